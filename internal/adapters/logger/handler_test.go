package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/pathline/internal/adapters/logger"
	"go.trai.ch/pathline/internal/core/domain"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{name: "info level", level: slog.LevelInfo, msg: "information message", goldenName: "handler_info"},
		{name: "warn level", level: slog.LevelWarn, msg: "warning message", goldenName: "handler_warn"},
		{name: "error level", level: slog.LevelError, msg: "error message", goldenName: "handler_error"},
		{name: "debug level filtered", level: slog.LevelDebug, msg: "debug message", goldenName: "handler_debug_filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, nil).
		WithAttrs([]slog.Attr{slog.Int("stack", 3)}).
		WithGroup("cache")
	slog.New(h).Info("window moved", "lo", 2, "hi", 4)

	g := goldie.New(t)
	g.Assert(t, "handler_attrs_group", buf.Bytes())
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}

func TestPrettyHandler_DomainValues(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	slog.New(logger.NewPrettyHandler(buf, nil)).Warn("seed stopped",
		"point", domain.Point{1.5, -2, 0},
		"time", 0.30000000000000004,
		"range", [2]float64{0, 2.5},
		"fields", []string{"vectors", "pressure"},
	)

	assert.Equal(t, "! seed stopped point=(1.5, -2, 0) time=0.30000000000000004 range=[0, 2.5] fields=vectors,pressure\n", buf.String())
}

func TestPrettyHandler_NestedGroups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, nil).WithGroup("trace").WithGroup("seed")
	slog.New(h).Info("done",
		slog.Int("index", 2),
		slog.Group("end", slog.Float64("t", 1), slog.Any("p", domain.Point{2, 1, 0})),
		slog.Attr{},
	)

	assert.Equal(t, "done trace.seed.index=2 trace.seed.end.t=1 trace.seed.end.p=(2, 1, 0)\n", buf.String())
}

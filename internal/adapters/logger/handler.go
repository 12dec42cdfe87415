package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/pathline/internal/ui/output"
	"go.trai.ch/pathline/internal/ui/style"
)

// PrettyHandler is a slog.Handler writing one colored line per record:
// the level icon, the message, then key=value pairs. Points, time ranges and
// floats are printed the way the commands print them.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	// prefix is the dotted group path applied to keys added from now on.
	prefix string
	// fields holds the rendered pairs from WithAttrs, prefixed when they were added.
	fields []string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or to stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := levelStyle(r.Level)

	var b strings.Builder
	if icon != "" {
		b.WriteString(icon)
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)

	pairs := slices.Clip(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		pairs = appendAttr(pairs, h.prefix, a)
		return true
	})
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p)
	}

	line := h.out.String(b.String()).Foreground(h.out.Color(string(color)))
	_, err := h.out.WriteString(line.String() + "\n")
	return err
}

// WithAttrs returns a handler that prints attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.fields = make([]string, len(h.fields), len(h.fields)+len(attrs))
	copy(next.fields, h.fields)
	for _, a := range attrs {
		next.fields = appendAttr(next.fields, h.prefix, a)
	}
	return &next
}

// WithGroup returns a handler that nests later keys under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = join(h.prefix, name)
	return &next
}

func levelStyle(level slog.Level) (string, lipgloss.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, style.Red
	case level >= slog.LevelWarn:
		return style.Warning, style.Yellow
	default:
		return "", style.Slate
	}
}

// appendAttr renders a as key=value. Group values are flattened into dotted
// keys and empty attributes are dropped.
func appendAttr(dst []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = join(prefix, a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, inner, ga)
		}
		return dst
	}
	return append(dst, join(prefix, a.Key)+"="+formatSlogValue(a.Value))
}

func formatSlogValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return formatValue(v.Float64())
	case slog.KindAny:
		return formatValue(v.Any())
	default:
		return v.String()
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

package app_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.trai.ch/pathline/internal/adapters/arrowfs"
	"go.trai.ch/pathline/internal/adapters/config"
	"go.trai.ch/pathline/internal/adapters/telemetry"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestApp_ArrowRun(t *testing.T) {
	dir := t.TempDir()
	g := grid()
	for k := range 4 {
		snap, err := flowSnapshot(g, float64(k))
		require.NoError(t, err)
		require.NoError(t, arrowfs.WriteSnapshotFile(filepath.Join(dir, "data", fmt.Sprintf("step_%03d.arrow", k)), snap))
	}
	runFile := `
stack: 2
fields: [vectors, temperature]
series:
  pattern: data/step_*.arrow
  start: 0
  step: 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(runFile), 0o600))

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	factory := telemetry.NewTracedFactory(arrowfs.NewFactory(), noop.NewTracerProvider().Tracer("test"))
	a := app.New(config.NewLoader(logger), factory, arrowfs.NewSeriesWriter(), logger)

	info, err := a.Info(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Snapshots)
	assert.InDelta(t, 1.5, info.End, 0)

	report, err := a.Sample(context.Background(), dir, app.SampleRequest{
		Times:  []float64{0.25, 0.75, 1.25},
		Points: []domain.Point{{0.5, 2, 0}},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	for _, r := range report.Results {
		require.Len(t, r.Values, 2)
		assert.Equal(t, domain.Value{1, 0, 0}, r.Values[0])
		// temperature is x + k where snapshot k sits at time k/2.
		assert.InDelta(t, 0.5+2*r.Time, r.Values[1][0], 1e-12)
	}
	assert.Equal(t, 4, report.Stats.Loads)
}

func TestApp_GenerateThenTrace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rotation")

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any())
	a := app.New(config.NewLoader(logger), arrowfs.NewFactory(), arrowfs.NewSeriesWriter(), logger)

	_, err := a.Generate(context.Background(), app.GenerateRequest{
		Dir: dir, Flow: app.FlowRotation, Size: 9, Steps: 5, Dt: 0.25, Stack: 2,
	})
	require.NoError(t, err)

	report, err := a.Sample(context.Background(), dir, app.SampleRequest{
		Times:  []float64{0.6},
		Points: []domain.Point{{6, 4, 0}},
		Fields: []string{"velocity", "pressure"},
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 2, 0}, report.Results[0].Values[0], 1e-12)
	assert.InDelta(t, 10.6, report.Results[0].Values[1][0], 1e-12)

	// Unit angular speed around (4, 4): one radian by t=1.
	results, err := a.Trace(context.Background(), dir, app.TraceRequest{
		Seeds: []domain.Point{{6, 4, 0}},
		Step:  0.01,
	})
	require.NoError(t, err)
	end := results[0].Path.End()
	assert.InDelta(t, 1.0, end.T, 1e-9)
	assert.InDelta(t, 4+2*math.Cos(1), end.Point[0], 1e-6)
	assert.InDelta(t, 4+2*math.Sin(1), end.Point[1], 1e-6)
}

func TestApp_Sample_ColumnOutsideRunFields(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uniform")

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any())
	a := app.New(config.NewLoader(logger), arrowfs.NewFactory(), arrowfs.NewSeriesWriter(), logger)

	run, err := a.Generate(context.Background(), app.GenerateRequest{
		Dir: dir, Flow: app.FlowUniform, Size: 4, Steps: 3, Dt: 1,
	})
	require.NoError(t, err)
	require.Equal(t, []string{domain.DefaultField}, run.Fields)

	// The run file names only the vectors; pressure is read from the files on request.
	report, err := a.Sample(context.Background(), dir, app.SampleRequest{
		Times:  []float64{1.5},
		Points: []domain.Point{{1, 2, 0}},
		Fields: []string{"pressure"},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.InDelta(t, 4.5, report.Results[0].Values[0][0], 1e-12)
}

package app_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports/mocks"
	"go.trai.ch/pathline/internal/engine/pathline"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	app     *app.App
	run     *domain.Run
	configs *mocks.MockConfigLoader
	logger  *mocks.MockLogger
}

func grid() *domain.ImageGrid {
	return &domain.ImageGrid{Spacing: [3]float64{1, 1, 1}, Dims: [3]int{3, 3, 1}}
}

// flowSnapshot builds snapshot k: a uniform velocity (1, 0, 0) and a
// temperature of x + k.
func flowSnapshot(g domain.Geometry, k float64) (*domain.Snapshot, error) {
	img := g.(*domain.ImageGrid)
	n := g.NumPoints()
	velocity := make([]float64, 0, 3*n)
	temperature := make([]float64, 0, n)
	for range img.Dims[1] {
		for i := range img.Dims[0] {
			velocity = append(velocity, 1, 0, 0)
			temperature = append(temperature, float64(i)+k)
		}
	}
	v, err := domain.NewField("velocity", 3, velocity)
	if err != nil {
		return nil, err
	}
	v.Attribute = domain.AttributeVectors
	temp, err := domain.NewField("temperature", 1, temperature)
	if err != nil {
		return nil, err
	}
	return domain.NewSnapshot(g, v, temp)
}

func newFixture(t *testing.T, withGeometry, strict bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	axis, err := domain.NewTimeAxis([]domain.TimeStep{
		{Time: 0, Source: "s0"}, {Time: 1, Source: "s1"}, {Time: 2, Source: "s2"},
	})
	require.NoError(t, err)

	g := grid()
	run := &domain.Run{Axis: axis, Stack: 3, Fields: []string{"velocity", "temperature"}, Strict: strict}
	if withGeometry {
		run.Geometry = g
	}

	loader := mocks.NewMockSnapshotLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, source string, _ []string) (*domain.Snapshot, error) {
			k, err := strconv.Atoi(strings.TrimPrefix(source, "s"))
			if err != nil {
				return nil, err
			}
			return flowSnapshot(g, float64(k))
		},
	).AnyTimes()

	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(loader, nil).AnyTimes()

	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("run.yaml").Return(run, nil).AnyTimes()

	logger := mocks.NewMockLogger(ctrl)
	return &fixture{app: app.New(configs, factory, mocks.NewMockSeriesWriter(ctrl), logger), run: run, configs: configs, logger: logger}
}

func TestApp_Sample(t *testing.T) {
	f := newFixture(t, true, false)

	report, err := f.app.Sample(context.Background(), "run.yaml", app.SampleRequest{
		Times:  []float64{0.5, 2},
		Points: []domain.Point{{1, 1, 0}, {5, 5, 0}},
		Fields: []string{"temperature"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"temperature"}, report.Fields)
	require.Len(t, report.Results, 4)

	assert.InDelta(t, 1.5, report.Results[0].Values[0][0], 1e-12)
	assert.False(t, report.Results[1].Values[0].Valid())
	assert.InDelta(t, 2.0, report.Results[2].Time, 0)
	assert.InDelta(t, 3.0, report.Results[2].Values[0][0], 1e-12)
	assert.Equal(t, 3, report.Stats.Loads)
}

func TestApp_Sample_Strict(t *testing.T) {
	f := newFixture(t, true, true)

	_, err := f.app.Sample(context.Background(), "run.yaml", app.SampleRequest{
		Times:  []float64{0.5},
		Points: []domain.Point{{5, 5, 0}},
	})
	require.ErrorIs(t, err, domain.ErrOutOfDomain)

	_, err = f.app.Sample(context.Background(), "run.yaml", app.SampleRequest{
		Times:  []float64{3},
		Points: []domain.Point{{1, 1, 0}},
	})
	require.ErrorIs(t, err, domain.ErrTimeOutOfRange)
}

func TestApp_Sample_ConfigError(t *testing.T) {
	ctrl := gomock.NewController(t)
	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("missing.yaml").Return(nil, domain.ErrConfigReadFailed)

	a := app.New(configs, mocks.NewMockLoaderFactory(ctrl), mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))
	_, err := a.Sample(context.Background(), "missing.yaml", app.SampleRequest{})
	require.ErrorIs(t, err, domain.ErrConfigReadFailed)
}

func TestApp_Locate(t *testing.T) {
	f := newFixture(t, true, false)

	results, err := f.app.Locate(context.Background(), "run.yaml", []domain.Point{{0.5, 0.5, 0}, {-1, 0, 0}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Found)
	assert.Equal(t, 0, results[0].Location.Cell)
	assert.Len(t, results[0].Location.Weights, 4)
	assert.False(t, results[1].Found)
}

func TestApp_Info_DerivesGeometry(t *testing.T) {
	f := newFixture(t, false, false)

	info, err := f.app.Info(context.Background(), "run.yaml")
	require.NoError(t, err)

	assert.Equal(t, domain.KindImageGrid, info.Geometry.Kind())
	assert.Equal(t, domain.Point{2, 2, 0}, info.Bounds.Max)
	assert.Equal(t, 3, info.Snapshots)
	assert.InDelta(t, 2.0, info.End, 0)
}

func TestApp_Trace(t *testing.T) {
	f := newFixture(t, true, false)
	f.logger.EXPECT().Warn(gomock.Any()).Times(1)

	to := 1.0
	results, err := f.app.Trace(context.Background(), "run.yaml", app.TraceRequest{
		Seeds:       []domain.Point{{0, 1, 0}, {1.5, 1, 0}},
		To:          &to,
		Step:        0.01,
		Concurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	straight := results[0].Path
	assert.Equal(t, pathline.Reached, straight.Reason)
	end := straight.End()
	assert.InDelta(t, 1.0, end.T, 1e-9)
	assert.InDelta(t, 1.0, end.Point[0], 1e-9)
	assert.InDelta(t, 1.0, end.Point[1], 1e-9)

	assert.Equal(t, pathline.LeftDomain, results[1].Path.Reason)
	assert.LessOrEqual(t, results[1].Path.End().Point[0], 2.0+1e-9)
}

func TestApp_Trace_NoSeeds(t *testing.T) {
	f := newFixture(t, true, false)

	results, err := f.app.Trace(context.Background(), "run.yaml", app.TraceRequest{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestApp_Trace_LoaderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	axis, err := domain.NewTimeAxis([]domain.TimeStep{{Time: 0, Source: "s0"}, {Time: 1, Source: "s1"}})
	require.NoError(t, err)
	run := &domain.Run{Axis: axis, Stack: 2, Geometry: grid(), Fields: []string{"velocity"}}

	boom := errors.New("unreadable")
	loader := mocks.NewMockSnapshotLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(loader, nil).AnyTimes()
	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("run.yaml").Return(run, nil)

	a := app.New(configs, factory, mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))
	_, err = a.Trace(context.Background(), "run.yaml", app.TraceRequest{Seeds: []domain.Point{{1, 1, 0}}})
	require.ErrorIs(t, err, domain.ErrSnapshotLoadFailed)
	require.ErrorIs(t, err, boom)
}

func TestApp_Trace_Observe(t *testing.T) {
	f := newFixture(t, true, false)

	var (
		mu     sync.Mutex
		events []app.TraceEvent
	)
	to := 1.0
	_, err := f.app.Trace(context.Background(), "run.yaml", app.TraceRequest{
		Seeds: []domain.Point{{0, 1, 0}},
		To:    &to,
		Step:  0.1,
		Observe: func(ev app.TraceEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		},
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.False(t, events[0].Done)
	assert.True(t, events[1].Done)
	assert.Equal(t, pathline.Reached, events[1].Reason)
	assert.NoError(t, events[1].Err)
}

func TestApp_SteadyRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	axis, err := domain.NewTimeAxis([]domain.TimeStep{{Time: 4, Source: "s2"}})
	require.NoError(t, err)
	run := &domain.Run{Axis: axis, Stack: 2, Fields: []string{"velocity", "temperature"}}

	snap, err := flowSnapshot(grid(), 2)
	require.NoError(t, err)
	loader := mocks.NewMockSnapshotLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "s2", gomock.Any()).Return(snap, nil).AnyTimes()
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(loader, nil).AnyTimes()
	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("steady.yaml").Return(run, nil).AnyTimes()

	a := app.New(configs, factory, mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))

	info, err := a.Info(context.Background(), "steady.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Snapshots)
	assert.InDelta(t, 4.0, info.Start, 0)

	// Time is ignored for a single snapshot.
	report, err := a.Sample(context.Background(), "steady.yaml", app.SampleRequest{
		Times:  []float64{-10, 100},
		Points: []domain.Point{{1, 1, 0}},
		Fields: []string{"temperature"},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.InDelta(t, 3.0, report.Results[0].Values[0][0], 1e-12)
	assert.InDelta(t, 3.0, report.Results[1].Values[0][0], 1e-12)
	assert.Equal(t, 1, report.Stats.Loads)

	from, to := 0.0, 1.0
	results, err := a.Trace(context.Background(), "steady.yaml", app.TraceRequest{
		Seeds: []domain.Point{{0, 1, 0}, {0, 0.5, 0}},
		From:  &from,
		To:    &to,
		Step:  0.25,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Path.End().Point[0], 1e-9)
	assert.InDelta(t, 0.5, results[1].Path.End().Point[1], 1e-9)
}

// selectiveLoader returns snapshot k holding only the requested fields, the way
// the Arrow loader reads only the named columns.
func selectiveLoader(ctrl *gomock.Controller, g domain.Geometry) *mocks.MockSnapshotLoader {
	loader := mocks.NewMockSnapshotLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, source string, names []string) (*domain.Snapshot, error) {
			k, err := strconv.Atoi(strings.TrimPrefix(source, "s"))
			if err != nil {
				return nil, err
			}
			snap, err := flowSnapshot(g, float64(k))
			if err != nil {
				return nil, err
			}
			fields, err := snap.Resolve(names)
			if err != nil {
				return nil, err
			}
			return domain.NewSnapshot(g, fields...)
		},
	).AnyTimes()
	return loader
}

func TestApp_Sample_FieldOutsideRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	axis, err := domain.NewTimeAxis([]domain.TimeStep{{Time: 0, Source: "s0"}, {Time: 1, Source: "s1"}})
	require.NoError(t, err)
	run := &domain.Run{Axis: axis, Stack: 2, Geometry: grid(), Fields: []string{"vectors"}}

	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(selectiveLoader(ctrl, run.Geometry), nil).AnyTimes()
	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("run.yaml").Return(run, nil).AnyTimes()
	a := app.New(configs, factory, mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))

	report, err := a.Sample(context.Background(), "run.yaml", app.SampleRequest{
		Times:  []float64{0.5},
		Points: []domain.Point{{1, 1, 0}},
		Fields: []string{"temperature", "velocity"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"temperature", "velocity"}, report.Fields)
	require.Len(t, report.Results, 1)
	assert.InDelta(t, 1.5, report.Results[0].Values[0][0], 1e-12)
	assert.Equal(t, domain.Value{1, 0, 0}, report.Results[0].Values[1])

	// Without an override only the run's fields are loaded.
	report, err = a.Sample(context.Background(), "run.yaml", app.SampleRequest{
		Times:  []float64{0.5},
		Points: []domain.Point{{1, 1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vectors"}, report.Fields)
	assert.Equal(t, domain.Value{1, 0, 0}, report.Results[0].Values[0])
}

func TestApp_SteadyRun_NoSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	axis, err := domain.NewTimeAxis([]domain.TimeStep{{Time: 0, Source: "s0"}})
	require.NoError(t, err)
	run := &domain.Run{Axis: axis, Stack: 2, Geometry: grid(), Fields: []string{"velocity"}}

	loader := mocks.NewMockSnapshotLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "s0", gomock.Any()).Return(nil, nil)
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(loader, nil)
	configs := mocks.NewMockConfigLoader(ctrl)
	configs.EXPECT().Load("steady.yaml").Return(run, nil)

	a := app.New(configs, factory, mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))
	_, err = a.Info(context.Background(), "steady.yaml")
	require.ErrorIs(t, err, domain.ErrSnapshotLoadFailed)
}

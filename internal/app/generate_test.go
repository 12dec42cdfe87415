package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/pathline/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestApp_Generate(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mocks.NewMockSeriesWriter(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info("wrote 3 snapshots of rotation flow to out")

	var snaps []*domain.Snapshot
	writer.EXPECT().Write(gomock.Any(), "out", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, run *domain.Run, source ports.SnapshotSource) error {
			for i := range run.Axis.Len() {
				s, err := source(i)
				if err != nil {
					return err
				}
				snaps = append(snaps, s)
			}
			return nil
		},
	)

	a := app.New(mocks.NewMockConfigLoader(ctrl), mocks.NewMockLoaderFactory(ctrl), writer, logger)
	run, err := a.Generate(context.Background(), app.GenerateRequest{
		Dir: "out", Flow: app.FlowRotation, Size: 3, Steps: 3, Dt: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultStack, run.Stack)
	assert.Equal(t, []string{domain.DefaultField}, run.Fields)
	assert.Equal(t, "data/step_0002.arrow", run.Axis.Source(2))
	assert.InDelta(t, 1.0, run.Axis.Last(), 0)

	require.Len(t, snaps, 3)
	last := snaps[2]
	assert.Equal(t, 9, last.Geometry.NumPoints())

	velocity, err := last.Field("vectors")
	require.NoError(t, err)
	// Point 0 sits at (0, 0); the grid center is (1, 1).
	assert.Equal(t, []float64{1, -1, 0}, velocity.Tuple(0))
	assert.Equal(t, []float64{0, 0, 0}, velocity.Tuple(4))

	pressure, err := last.Field("scalars")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pressure.Tuple(0)[0], 1e-12)
	assert.InDelta(t, 5.0, pressure.Tuple(8)[0], 1e-12)
}

func TestApp_Generate_Validation(t *testing.T) {
	valid := app.GenerateRequest{Dir: "out", Flow: app.FlowUniform, Size: 4, Steps: 3, Dt: 1}

	for _, tc := range []struct {
		name   string
		mutate func(*app.GenerateRequest)
		want   error
	}{
		{"unknown flow", func(r *app.GenerateRequest) { r.Flow = "vortex" }, domain.ErrUnknownFlow},
		{"small grid", func(r *app.GenerateRequest) { r.Size = 1 }, domain.ErrInvalidGeometry},
		{"one step", func(r *app.GenerateRequest) { r.Steps = 1 }, domain.ErrTimeAxisTooShort},
		{"zero dt", func(r *app.GenerateRequest) { r.Dt = 0 }, domain.ErrInvalidTime},
		{"small stack", func(r *app.GenerateRequest) { r.Stack = 1 }, domain.ErrInvalidStackSize},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			a := app.New(mocks.NewMockConfigLoader(ctrl), mocks.NewMockLoaderFactory(ctrl), mocks.NewMockSeriesWriter(ctrl), mocks.NewMockLogger(ctrl))

			req := valid
			tc.mutate(&req)
			_, err := a.Generate(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApp_Generate_WriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := errors.New("disk full")
	writer := mocks.NewMockSeriesWriter(ctrl)
	writer.EXPECT().Write(gomock.Any(), "out", gomock.Any(), gomock.Any()).Return(boom)

	a := app.New(mocks.NewMockConfigLoader(ctrl), mocks.NewMockLoaderFactory(ctrl), writer, mocks.NewMockLogger(ctrl))
	_, err := a.Generate(context.Background(), app.GenerateRequest{Dir: "out", Flow: app.FlowUniform, Size: 2, Steps: 2, Dt: 1})
	require.ErrorIs(t, err, boom)
}

package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/pathline/internal/adapters/telemetry"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func setupRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func attrs(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTracedFactory_LoadRecordsSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	sr, tp := setupRecorder(t)

	g := &domain.ImageGrid{Spacing: [3]float64{1, 1, 1}, Dims: [3]int{2, 2, 1}}
	f, err := domain.NewField("pressure", 1, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	snap, err := domain.NewSnapshot(g, f)
	require.NoError(t, err)

	run := &domain.Run{}
	inner := mocks.NewMockSnapshotLoader(ctrl)
	inner.EXPECT().Load(gomock.Any(), "s0.arrow", []string{"pressure"}).Return(snap, nil)
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(run).Return(inner, nil)

	loader, err := telemetry.NewTracedFactory(factory, tp.Tracer("test")).NewLoader(run)
	require.NoError(t, err)

	got, err := loader.Load(context.Background(), "s0.arrow", []string{"pressure"})
	require.NoError(t, err)
	assert.Same(t, snap, got)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, telemetry.LoadSpanName, spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	a := attrs(spans[0].Attributes())
	assert.Equal(t, "s0.arrow", a["snapshot.source"].AsString())
	assert.Equal(t, int64(1), a["snapshot.field_count"].AsInt64())
	assert.Equal(t, int64(4), a["snapshot.points"].AsInt64())
	assert.Equal(t, int64(32), a["snapshot.bytes"].AsInt64())
}

func TestTracedFactory_LoadRecordsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sr, tp := setupRecorder(t)

	boom := errors.New("disk on fire")
	inner := mocks.NewMockSnapshotLoader(ctrl)
	inner.EXPECT().Load(gomock.Any(), "s1.arrow", gomock.Nil()).Return(nil, boom)
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(gomock.Any()).Return(inner, nil)

	loader, err := telemetry.NewTracedFactory(factory, tp.Tracer("test")).NewLoader(&domain.Run{})
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "s1.arrow", nil)
	require.ErrorIs(t, err, boom)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "disk on fire", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestTracedFactory_NewLoaderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, tp := setupRecorder(t)

	boom := errors.New("no loader")
	factory := mocks.NewMockLoaderFactory(ctrl)
	factory.EXPECT().NewLoader(gomock.Any()).Return(nil, boom)

	_, err := telemetry.NewTracedFactory(factory, tp.Tracer("test")).NewLoader(&domain.Run{})
	require.ErrorIs(t, err, boom)
}

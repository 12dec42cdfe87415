// Package telemetry traces snapshot loads with OpenTelemetry.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
)

// LoadSpanName is the name of the span wrapping each snapshot load.
const LoadSpanName = "snapshot.load"

// TracedFactory decorates a ports.LoaderFactory so every snapshot load runs in its own span.
type TracedFactory struct {
	next   ports.LoaderFactory
	tracer trace.Tracer
}

var _ ports.LoaderFactory = (*TracedFactory)(nil)

// NewTracedFactory wraps next with tracer.
func NewTracedFactory(next ports.LoaderFactory, tracer trace.Tracer) *TracedFactory {
	return &TracedFactory{next: next, tracer: tracer}
}

// NewLoader implements ports.LoaderFactory.
func (f *TracedFactory) NewLoader(run *domain.Run) (ports.SnapshotLoader, error) {
	loader, err := f.next.NewLoader(run)
	if err != nil {
		return nil, err
	}
	return &tracedLoader{next: loader, tracer: f.tracer}, nil
}

type tracedLoader struct {
	next   ports.SnapshotLoader
	tracer trace.Tracer
}

func (l *tracedLoader) Load(ctx context.Context, source string, fields []string) (*domain.Snapshot, error) {
	ctx, span := l.tracer.Start(ctx, LoadSpanName, trace.WithAttributes(
		attribute.String("snapshot.source", source),
		attribute.StringSlice("snapshot.fields", fields),
	))
	defer span.End()

	snap, err := l.next.Load(ctx, source, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("snapshot.field_count", len(snap.Fields)),
		attribute.Int("snapshot.points", snap.Geometry.NumPoints()),
		attribute.Int64("snapshot.bytes", snap.Bytes()),
	)
	return snap, nil
}

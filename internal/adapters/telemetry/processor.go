package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/pathline/internal/core/ports"
)

// LogProcessor implements sdktrace.SpanProcessor by logging every finished span.
type LogProcessor struct {
	logger ports.Logger
}

var _ sdktrace.SpanProcessor = (*LogProcessor)(nil)

// NewLogProcessor returns a LogProcessor writing to logger.
func NewLogProcessor(logger ports.Logger) *LogProcessor {
	return &LogProcessor{logger: logger}
}

// OnStart does nothing.
func (p *LogProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and attributes. Failed spans are logged as warnings.
func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s took %s", s.Name(), s.EndTime().Sub(s.StartTime()).Round(time.Microsecond))
	for _, kv := range s.Attributes() {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value.Emit())
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		fmt.Fprintf(&b, " error=%q", desc)
		p.logger.Warn(b.String())
		return
	}
	p.logger.Info(b.String())
}

// ForceFlush does nothing.
func (p *LogProcessor) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *LogProcessor) Shutdown(context.Context) error {
	return nil
}

// Install registers a global tracer provider that logs spans to logger and
// returns its shutdown function.
func Install(logger ports.Logger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogProcessor(logger)))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

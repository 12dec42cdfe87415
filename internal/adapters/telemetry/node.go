package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	"go.trai.ch/pathline/internal/adapters/arrowfs"
	"go.trai.ch/pathline/internal/core/ports"
)

// NodeID is the unique identifier for the traced loader factory Graft node.
const NodeID graft.ID = "adapter.telemetry"

// TracerName is the instrumentation name of the loader spans.
const TracerName = "go.trai.ch/pathline"

func init() {
	graft.Register(graft.Node[ports.LoaderFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{arrowfs.NodeID},
		Run: func(ctx context.Context) (ports.LoaderFactory, error) {
			factory, err := graft.Dep[*arrowfs.Factory](ctx)
			if err != nil {
				return nil, err
			}
			return NewTracedFactory(factory, otel.Tracer(TracerName)), nil
		},
	})
}

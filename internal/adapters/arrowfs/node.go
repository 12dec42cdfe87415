package arrowfs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pathline/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the Arrow snapshot loader Graft node.
	NodeID graft.ID = "adapter.arrowfs"
	// WriterNodeID is the unique identifier for the Arrow series writer Graft node.
	WriterNodeID graft.ID = "adapter.arrowfs_writer"
)

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Factory, error) {
			return NewFactory(), nil
		},
	})

	graft.Register(graft.Node[ports.SeriesWriter]{
		ID:        WriterNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SeriesWriter, error) {
			return NewSeriesWriter(), nil
		},
	})
}

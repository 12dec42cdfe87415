package ports

import (
	"context"

	"go.trai.ch/pathline/internal/core/domain"
)

// SnapshotSource produces snapshot i of a series being written.
type SnapshotSource func(i int) (*domain.Snapshot, error)

// SeriesWriter stores a snapshot series together with a run description that reads it back.
//
//go:generate go run go.uber.org/mock/mockgen -source=writer.go -destination=mocks/mock_writer.go -package=mocks
type SeriesWriter interface {
	// Write stores one snapshot per entry of run.Axis under dir, named by the
	// entry's source, and writes the run description next to them.
	Write(ctx context.Context, dir string, run *domain.Run, source SnapshotSource) error
}

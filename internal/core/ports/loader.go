// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/pathline/internal/core/domain"
)

// SnapshotLoader turns an opaque time-step source into a snapshot.
//
//go:generate go run go.uber.org/mock/mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks
type SnapshotLoader interface {
	// Load reads the snapshot referenced by source. Only the named fields need to be
	// present in the result; reserved names (scalars, vectors, tensors) select fields
	// by attribute. Loading blocks and honours ctx cancellation.
	Load(ctx context.Context, source string, fields []string) (*domain.Snapshot, error)
}

// LoaderFactory builds the snapshot loader for a run.
type LoaderFactory interface {
	// NewLoader returns a loader resolving the run's snapshot sources.
	NewLoader(run *domain.Run) (SnapshotLoader, error)
}

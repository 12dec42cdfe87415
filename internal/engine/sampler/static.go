package sampler

import (
	"context"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/engine/interp"
	"go.trai.ch/pathline/internal/engine/locator"
	"go.trai.ch/zerr"
)

// Static samples a single snapshot. Time is ignored.
type Static struct {
	locator  *locator.Locator
	snapshot *domain.Snapshot
	fields   []string
	strict   bool
}

// NewStatic builds a sampler over one snapshot. Stack is ignored.
func NewStatic(snapshot *domain.Snapshot, opts Options) (*Static, error) {
	if snapshot == nil {
		return nil, zerr.Wrap(domain.ErrInvalidGeometry, "no snapshot")
	}
	opts = opts.withDefaults()
	loc, err := locator.Build(snapshot.Geometry)
	if err != nil {
		return nil, err
	}
	if _, err := snapshot.Resolve(opts.Fields); err != nil {
		return nil, err
	}
	return &Static{locator: loc, snapshot: snapshot, fields: opts.Fields, strict: opts.Strict}, nil
}

// Geometry returns the snapshot geometry.
func (s *Static) Geometry() domain.Geometry { return s.locator.Geometry() }

// Bounds returns the spatial extent of the geometry.
func (s *Static) Bounds() domain.Bounds { return s.locator.Bounds() }

// Locate finds the cell containing p.
func (s *Static) Locate(p domain.Point) (domain.Location, error) {
	return s.locator.Locate(p)
}

// Snapshot returns the sampled snapshot.
func (s *Static) Snapshot() *domain.Snapshot { return s.snapshot }

// Sample returns the value of each named field at p.
func (s *Static) Sample(p domain.Point, names ...string) ([]domain.Value, error) {
	if len(names) == 0 {
		names = s.fields
	}
	fields, err := s.snapshot.Resolve(names)
	if err != nil {
		return nil, err
	}
	loc, err := s.locator.Locate(p)
	if err != nil {
		return outside(err, fields, s.strict)
	}
	return interp.InterpolateAll(loc, fields), nil
}

// Velocity samples the first configured field at y; t is ignored.
func (s *Static) Velocity(_ context.Context, _ float64, y domain.Point) (domain.Point, error) {
	vs, err := s.Sample(y, s.fields[0])
	if err != nil {
		return domain.Point{}, err
	}
	return toPoint(s.fields[0], vs[0])
}

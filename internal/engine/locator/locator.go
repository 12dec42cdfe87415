// Package locator finds the cell enclosing a point in a spatial geometry and the
// weights that interpolate point data at that position.
package locator

import (
	"math"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/zerr"
)

// relTol scales the geometry diagonal into the absolute tolerance used for bounds tests.
const relTol = 1e-9

// paramTol is the tolerance on parametric and barycentric coordinates.
const paramTol = 1e-9

type strategy interface {
	locate(p domain.Point) (domain.Location, bool)
}

// Locator answers point location queries for one geometry. It is built once and
// shared by every snapshot defined on that geometry. A Locator is read-only after
// Build and safe for concurrent use.
type Locator struct {
	geometry domain.Geometry
	bounds   domain.Bounds
	tol      float64
	planar   bool
	strategy strategy
}

// Build returns a Locator for g. Image and rectilinear grids are located
// arithmetically; point-set meshes get a bounding-volume hierarchy over their cells.
func Build(g domain.Geometry) (*Locator, error) {
	if g == nil {
		return nil, zerr.Wrap(domain.ErrUnsupportedGeometry, "geometry is nil")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	bounds := g.Bounds()
	tol := relTol * math.Max(1, bounds.Diagonal())
	l := &Locator{geometry: g, bounds: bounds, tol: tol, planar: planar(g) && bounds.Min[2] == bounds.Max[2]}

	switch geom := g.(type) {
	case *domain.ImageGrid:
		l.strategy = newImageStrategy(geom, tol)
	case *domain.RectilinearGrid:
		l.strategy = newRectilinearStrategy(geom, tol)
	case *domain.PointSetMesh:
		l.strategy = newCellTree(geom, tol)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedGeometry, "no location strategy"), "kind", g.Kind().String())
	}
	return l, nil
}

// Geometry returns the geometry the locator was built for.
func (l *Locator) Geometry() domain.Geometry { return l.geometry }

// Bounds returns the extent of the geometry.
func (l *Locator) Bounds() domain.Bounds { return l.bounds }

// Locate finds the cell containing p. Points on shared faces resolve to the lowest
// cell id. Points outside the geometry fail with domain.ErrOutOfDomain.
func (l *Locator) Locate(p domain.Point) (domain.Location, error) {
	if !p.Finite() {
		return domain.Location{}, outOfDomain(p)
	}
	q := p
	if l.planar {
		q[2] = l.bounds.Min[2]
	}
	if !l.bounds.Contains(q, l.tol) {
		return domain.Location{}, outOfDomain(p)
	}
	loc, ok := l.strategy.locate(q)
	if !ok {
		return domain.Location{}, outOfDomain(p)
	}
	return loc, nil
}

// planar reports geometries whose z component is ignored by Locate.
func planar(g domain.Geometry) bool {
	switch geom := g.(type) {
	case *domain.ImageGrid:
		return geom.Dims[2] == 1
	case *domain.RectilinearGrid:
		return len(geom.Z) == 1
	case *domain.PointSetMesh:
		for _, c := range geom.Cells {
			if c.Kind == domain.Tetra || c.Kind == domain.Hexahedron {
				return false
			}
		}
		return true
	}
	return false
}

func outOfDomain(p domain.Point) error {
	return zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "no cell contains point"), "point", p)
}

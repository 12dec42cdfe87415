package domain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// GeometryKind enumerates the closed set of supported geometries.
type GeometryKind uint8

const (
	// KindImageGrid is a uniform grid described by origin, spacing and dimensions.
	KindImageGrid GeometryKind = iota + 1
	// KindRectilinearGrid is a grid with per-axis coordinate arrays.
	KindRectilinearGrid
	// KindPointSetMesh is an explicit-coordinate mesh with cell connectivity.
	KindPointSetMesh
)

func (k GeometryKind) String() string {
	switch k {
	case KindImageGrid:
		return "image"
	case KindRectilinearGrid:
		return "rectilinear"
	case KindPointSetMesh:
		return "pointset"
	default:
		return fmt.Sprintf("GeometryKind(%d)", uint8(k))
	}
}

// Geometry is the time-invariant spatial domain shared by every snapshot of a run.
// The set of implementations is closed: ImageGrid, RectilinearGrid and PointSetMesh.
type Geometry interface {
	// Kind identifies the geometry variant.
	Kind() GeometryKind
	// NumPoints is the number of points that carry field tuples.
	NumPoints() int
	// Bounds returns the axis-aligned extent of the geometry.
	Bounds() Bounds
	// Fingerprint identifies the geometry by its kind, coordinates and connectivity.
	Fingerprint() uint64
	// Validate reports an inconsistent description.
	Validate() error

	geometry()
}

// SameGeometry reports whether a and b describe the same domain.
func SameGeometry(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	return a.Kind() == b.Kind() && a.NumPoints() == b.NumPoints() && a.Fingerprint() == b.Fingerprint()
}

// ImageGrid is a uniform grid. A dimension of 1 collapses that axis, so Dims[2] == 1 is a 2D image.
// Point (i, j, k) has index i + Dims[0]*(j + Dims[1]*k).
type ImageGrid struct {
	Origin  Point
	Spacing [3]float64
	Dims    [3]int
}

var _ Geometry = (*ImageGrid)(nil)

func (*ImageGrid) geometry() {}

// Kind implements Geometry.
func (*ImageGrid) Kind() GeometryKind { return KindImageGrid }

// NumPoints implements Geometry.
func (g *ImageGrid) NumPoints() int { return g.Dims[0] * g.Dims[1] * g.Dims[2] }

// Bounds implements Geometry.
func (g *ImageGrid) Bounds() Bounds {
	var b Bounds
	for a := range 3 {
		b.Min[a] = g.Origin[a]
		b.Max[a] = g.Origin[a] + float64(g.Dims[a]-1)*g.Spacing[a]
	}
	return b
}

// Validate implements Geometry.
func (g *ImageGrid) Validate() error {
	cells := 0
	for a := range 3 {
		if g.Dims[a] < 1 {
			return zerr.With(zerr.Wrap(ErrInvalidGeometry, "image dimensions must be at least 1"), "axis", a)
		}
		if g.Dims[a] > 1 {
			cells++
			if !(g.Spacing[a] > 0) || math.IsInf(g.Spacing[a], 0) {
				return zerr.With(zerr.Wrap(ErrInvalidGeometry, "image spacing must be positive"), "axis", a)
			}
		}
	}
	if cells == 0 {
		return zerr.Wrap(ErrInvalidGeometry, "image grid has no cells")
	}
	if !g.Origin.Finite() {
		return zerr.Wrap(ErrInvalidGeometry, "image origin must be finite")
	}
	return nil
}

// Fingerprint implements Geometry.
func (g *ImageGrid) Fingerprint() uint64 {
	h := fingerprinter(KindImageGrid)
	h.floats(g.Origin[:]...)
	h.floats(g.Spacing[:]...)
	h.ints(g.Dims[:]...)
	return h.Sum64()
}

// RectilinearGrid is a grid whose axes carry strictly ascending coordinate arrays.
// A single-entry Z axis makes it two-dimensional. Point indexing matches ImageGrid.
type RectilinearGrid struct {
	X, Y, Z []float64
}

var _ Geometry = (*RectilinearGrid)(nil)

func (*RectilinearGrid) geometry() {}

// Kind implements Geometry.
func (*RectilinearGrid) Kind() GeometryKind { return KindRectilinearGrid }

// Axes returns the coordinate arrays in x, y, z order.
func (g *RectilinearGrid) Axes() [3][]float64 { return [3][]float64{g.X, g.Y, g.Z} }

// Dims returns the number of coordinates along each axis.
func (g *RectilinearGrid) Dims() [3]int { return [3]int{len(g.X), len(g.Y), len(g.Z)} }

// NumPoints implements Geometry.
func (g *RectilinearGrid) NumPoints() int { return len(g.X) * len(g.Y) * len(g.Z) }

// Bounds implements Geometry.
func (g *RectilinearGrid) Bounds() Bounds {
	var b Bounds
	for a, axis := range g.Axes() {
		if len(axis) == 0 {
			continue
		}
		b.Min[a] = axis[0]
		b.Max[a] = axis[len(axis)-1]
	}
	return b
}

// Validate implements Geometry.
func (g *RectilinearGrid) Validate() error {
	cells := 0
	for a, axis := range g.Axes() {
		if len(axis) == 0 {
			return zerr.With(zerr.Wrap(ErrInvalidGeometry, "rectilinear axis has no coordinates"), "axis", a)
		}
		if len(axis) > 1 {
			cells++
		}
		for i, c := range axis {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return zerr.With(zerr.Wrap(ErrInvalidGeometry, "rectilinear coordinate must be finite"), "axis", a)
			}
			if i > 0 && !(c > axis[i-1]) {
				return zerr.With(zerr.Wrap(ErrInvalidGeometry, "rectilinear coordinates must be strictly ascending"), "axis", a)
			}
		}
	}
	if cells == 0 {
		return zerr.Wrap(ErrInvalidGeometry, "rectilinear grid has no cells")
	}
	return nil
}

// Fingerprint implements Geometry.
func (g *RectilinearGrid) Fingerprint() uint64 {
	h := fingerprinter(KindRectilinearGrid)
	for _, axis := range g.Axes() {
		h.ints(len(axis))
		h.floats(axis...)
	}
	return h.Sum64()
}

// CellKind enumerates the cell shapes of a PointSetMesh. Vertex order follows VTK.
type CellKind uint8

const (
	// Triangle is a 3-point 2D simplex.
	Triangle CellKind = iota + 1
	// Quad is a 4-point 2D cell, counter-clockwise.
	Quad
	// Tetra is a 4-point 3D simplex.
	Tetra
	// Hexahedron is an 8-point 3D cell: bottom face counter-clockwise, then top face.
	Hexahedron
)

// NumPoints returns the number of vertices of the cell kind.
func (k CellKind) NumPoints() int {
	switch k {
	case Triangle:
		return 3
	case Quad, Tetra:
		return 4
	case Hexahedron:
		return 8
	default:
		return 0
	}
}

func (k CellKind) String() string {
	switch k {
	case Triangle:
		return "triangle"
	case Quad:
		return "quad"
	case Tetra:
		return "tetra"
	case Hexahedron:
		return "hexahedron"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// ParseCellKind maps a cell kind name to a CellKind.
func ParseCellKind(s string) (CellKind, bool) {
	switch s {
	case "triangle", "tri":
		return Triangle, true
	case "quad":
		return Quad, true
	case "tetra", "tet":
		return Tetra, true
	case "hexahedron", "hex":
		return Hexahedron, true
	default:
		return 0, false
	}
}

// Cell is one element of a PointSetMesh.
type Cell struct {
	Kind   CellKind
	Points []int
}

// PointSetMesh is an explicit-coordinate mesh.
type PointSetMesh struct {
	Points []Point
	Cells  []Cell
}

var _ Geometry = (*PointSetMesh)(nil)

func (*PointSetMesh) geometry() {}

// Kind implements Geometry.
func (*PointSetMesh) Kind() GeometryKind { return KindPointSetMesh }

// NumPoints implements Geometry.
func (m *PointSetMesh) NumPoints() int { return len(m.Points) }

// Bounds implements Geometry.
func (m *PointSetMesh) Bounds() Bounds {
	b := EmptyBounds()
	for _, p := range m.Points {
		b.Extend(p)
	}
	return b
}

// CellBounds returns the extent of cell c.
func (m *PointSetMesh) CellBounds(c int) Bounds {
	b := EmptyBounds()
	for _, id := range m.Cells[c].Points {
		b.Extend(m.Points[id])
	}
	return b
}

// Validate implements Geometry.
func (m *PointSetMesh) Validate() error {
	if len(m.Cells) == 0 {
		return zerr.Wrap(ErrInvalidGeometry, "mesh has no cells")
	}
	for i, p := range m.Points {
		if !p.Finite() {
			return zerr.With(zerr.Wrap(ErrInvalidGeometry, "mesh point must be finite"), "point", i)
		}
	}
	for c, cell := range m.Cells {
		n := cell.Kind.NumPoints()
		if n == 0 {
			return zerr.With(zerr.Wrap(ErrInvalidGeometry, "unknown cell kind"), "cell", c)
		}
		if len(cell.Points) != n {
			return zerr.With(
				zerr.With(zerr.Wrap(ErrInvalidGeometry, "wrong number of cell points"), "cell", c),
				"kind", cell.Kind.String(),
			)
		}
		for _, id := range cell.Points {
			if id < 0 || id >= len(m.Points) {
				return zerr.With(zerr.With(zerr.Wrap(ErrInvalidGeometry, "cell references unknown point"), "cell", c), "point", id)
			}
		}
	}
	return nil
}

// Fingerprint implements Geometry.
func (m *PointSetMesh) Fingerprint() uint64 {
	h := fingerprinter(KindPointSetMesh)
	h.ints(len(m.Points))
	for _, p := range m.Points {
		h.floats(p[:]...)
	}
	h.ints(len(m.Cells))
	for _, c := range m.Cells {
		h.ints(int(c.Kind))
		h.ints(c.Points...)
	}
	return h.Sum64()
}

type fingerprint struct {
	*xxhash.Digest
	buf []byte
}

func fingerprinter(k GeometryKind) fingerprint {
	h := fingerprint{Digest: xxhash.New(), buf: make([]byte, 0, 8)}
	_, _ = h.Write([]byte{byte(k)})
	return h
}

func (h fingerprint) floats(vs ...float64) {
	for _, v := range vs {
		h.buf = binary.LittleEndian.AppendUint64(h.buf[:0], math.Float64bits(v))
		_, _ = h.Write(h.buf)
	}
}

func (h fingerprint) ints(vs ...int) {
	for _, v := range vs {
		h.buf = binary.LittleEndian.AppendUint64(h.buf[:0], uint64(int64(v)))
		_, _ = h.Write(h.buf)
	}
}

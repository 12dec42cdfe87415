package config

import (
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EncodeGeometry renders g in the run file's geometry notation.
func EncodeGeometry(g domain.Geometry) ([]byte, error) {
	dto, err := DescribeGeometry(g)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(dto)
}

// DecodeGeometry parses a geometry written by EncodeGeometry.
func DecodeGeometry(data []byte) (domain.Geometry, error) {
	var dto GeometryDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidGeometry, err.Error())
	}
	return BuildGeometry(&dto)
}

// DescribeGeometry is the inverse of BuildGeometry.
func DescribeGeometry(g domain.Geometry) (*GeometryDTO, error) {
	switch g := g.(type) {
	case *domain.ImageGrid:
		return &GeometryDTO{
			Kind:       domain.KindImageGrid.String(),
			Origin:     g.Origin[:],
			Spacing:    g.Spacing[:],
			Dimensions: g.Dims[:],
		}, nil
	case *domain.RectilinearGrid:
		return &GeometryDTO{Kind: domain.KindRectilinearGrid.String(), X: g.X, Y: g.Y, Z: g.Z}, nil
	case *domain.PointSetMesh:
		dto := &GeometryDTO{
			Kind:   domain.KindPointSetMesh.String(),
			Points: make([][]float64, len(g.Points)),
			Cells:  make([]CellDTO, len(g.Cells)),
		}
		for i, p := range g.Points {
			dto.Points[i] = []float64{p[0], p[1], p[2]}
		}
		for i, c := range g.Cells {
			dto.Cells[i] = CellDTO{Kind: c.Kind.String(), Points: c.Points}
		}
		return dto, nil
	default:
		return nil, zerr.Wrap(domain.ErrUnsupportedGeometry, "geometry cannot be described")
	}
}

// BuildGeometry converts a geometry description into a validated domain geometry.
func BuildGeometry(dto *GeometryDTO) (domain.Geometry, error) {
	var g domain.Geometry
	switch dto.Kind {
	case "image":
		img := &domain.ImageGrid{Spacing: [3]float64{1, 1, 1}, Dims: [3]int{1, 1, 1}}
		if err := fill(img.Origin[:], dto.Origin, "origin"); err != nil {
			return nil, err
		}
		if len(dto.Spacing) > 0 {
			if err := fill(img.Spacing[:], dto.Spacing, "spacing"); err != nil {
				return nil, err
			}
		}
		if len(dto.Dimensions) < 2 || len(dto.Dimensions) > 3 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidGeometry, "dimensions needs 2 or 3 entries"), "key", "dimensions")
		}
		copy(img.Dims[:], dto.Dimensions)
		g = img
	case "rectilinear":
		z := dto.Z
		if len(z) == 0 {
			z = []float64{0}
		}
		g = &domain.RectilinearGrid{X: dto.X, Y: dto.Y, Z: z}
	case "pointset":
		mesh := &domain.PointSetMesh{
			Points: make([]domain.Point, len(dto.Points)),
			Cells:  make([]domain.Cell, len(dto.Cells)),
		}
		for i, p := range dto.Points {
			if err := fill(mesh.Points[i][:], p, "points"); err != nil {
				return nil, zerr.With(err, "point", i)
			}
		}
		for i, c := range dto.Cells {
			kind, ok := domain.ParseCellKind(c.Kind)
			if !ok {
				return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidGeometry, "unknown cell kind"), "cell", i), "kind", c.Kind)
			}
			mesh.Cells[i] = domain.Cell{Kind: kind, Points: c.Points}
		}
		g = mesh
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedGeometry, "unknown geometry kind"), "kind", dto.Kind)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// fill copies two or three coordinates from src into dst.
func fill(dst, src []float64, key string) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) < 2 || len(src) > len(dst) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidGeometry, "expected 2 or 3 coordinates"), "key", key)
	}
	copy(dst, src)
	return nil
}

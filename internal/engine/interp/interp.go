// Package interp combines located cell weights with point data.
package interp

import (
	"slices"

	"go.trai.ch/pathline/internal/core/domain"
)

// Interpolate returns the weighted sum of the field tuples at the located points.
// Scalars, vectors and tensors are handled alike, component by component.
func Interpolate(loc domain.Location, f *domain.Field) domain.Value {
	v := make(domain.Value, f.Components)
	for i, id := range loc.Points {
		w := loc.Weights[i]
		if w == 0 {
			continue
		}
		for c, x := range f.Tuple(id) {
			v[c] += w * x
		}
	}
	return v
}

// InterpolateAll interpolates every field at the same location, in order.
func InterpolateAll(loc domain.Location, fields []*domain.Field) []domain.Value {
	out := make([]domain.Value, len(fields))
	for i, f := range fields {
		out[i] = Interpolate(loc, f)
	}
	return out
}

// Blend returns (1-u)*a + u*b. At u == 0 and u == 1 it returns an exact copy of a or b.
func Blend(a, b domain.Value, u float64) domain.Value {
	switch u {
	case 0:
		return slices.Clone(a)
	case 1:
		return slices.Clone(b)
	}
	v := make(domain.Value, len(a))
	for i := range a {
		v[i] = (1-u)*a[i] + u*b[i]
	}
	return v
}

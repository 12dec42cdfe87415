package locator

import (
	"math"
	"sort"

	"go.trai.ch/pathline/internal/core/domain"
)

// gridStrategy locates points in a structured grid. cell reports, for one axis,
// the cell index and the fractional position inside it.
type gridStrategy struct {
	dims [3]int
	cell func(axis int, x float64) (int, float64, bool)
}

func newImageStrategy(g *domain.ImageGrid, tol float64) *gridStrategy {
	return &gridStrategy{
		dims: g.Dims,
		cell: func(a int, x float64) (int, float64, bool) {
			n := g.Dims[a] - 1
			if n == 0 {
				return 0, 0, true
			}
			f := (x - g.Origin[a]) / g.Spacing[a]
			ftol := tol / g.Spacing[a]
			if f < -ftol || f > float64(n)+ftol {
				return 0, 0, false
			}
			f = math.Min(math.Max(f, 0), float64(n))
			i := min(max(int(math.Ceil(f))-1, 0), n-1)
			return i, f - float64(i), true
		},
	}
}

func newRectilinearStrategy(g *domain.RectilinearGrid, tol float64) *gridStrategy {
	axes := g.Axes()
	return &gridStrategy{
		dims: g.Dims(),
		cell: func(a int, x float64) (int, float64, bool) {
			coords := axes[a]
			n := len(coords) - 1
			if n == 0 {
				return 0, 0, true
			}
			if x < coords[0]-tol || x > coords[n]+tol {
				return 0, 0, false
			}
			x = math.Min(math.Max(x, coords[0]), coords[n])
			// First coordinate >= x; the cell to its left is the lowest one containing x.
			i := min(max(sort.SearchFloat64s(coords, x)-1, 0), n-1)
			return i, (x - coords[i]) / (coords[i+1] - coords[i]), true
		},
	}
}

func (s *gridStrategy) locate(p domain.Point) (domain.Location, bool) {
	var (
		idx  [3]int
		frac [3]float64
	)
	for a := range 3 {
		i, f, ok := s.cell(a, p[a])
		if !ok {
			return domain.Location{}, false
		}
		idx[a], frac[a] = i, f
	}

	cellDims := [3]int{max(s.dims[0]-1, 1), max(s.dims[1]-1, 1), max(s.dims[2]-1, 1)}
	loc := domain.Location{
		Cell: idx[0] + cellDims[0]*(idx[1]+cellDims[1]*idx[2]),
	}

	// Corners of the cell, x varying fastest, over the non-collapsed axes only.
	var span [3]int
	for a := range 3 {
		if s.dims[a] > 1 {
			span[a] = 1
		}
	}
	for dk := 0; dk <= span[2]; dk++ {
		for dj := 0; dj <= span[1]; dj++ {
			for di := 0; di <= span[0]; di++ {
				w := 1.0
				for a, d := range [3]int{di, dj, dk} {
					if span[a] == 0 {
						continue
					}
					if d == 0 {
						w *= 1 - frac[a]
					} else {
						w *= frac[a]
					}
				}
				i, j, k := idx[0]+di, idx[1]+dj, idx[2]+dk
				loc.Points = append(loc.Points, i+s.dims[0]*(j+s.dims[1]*k))
				loc.Weights = append(loc.Weights, w)
			}
		}
	}
	return loc, true
}

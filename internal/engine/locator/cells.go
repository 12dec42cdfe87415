package locator

import (
	"math"

	"go.trai.ch/pathline/internal/core/domain"
)

const (
	newtonIterations = 30
	newtonTol        = 1e-12
)

// cellWeights returns the interpolation weights of p inside a cell with the given
// corners, or false when p lies outside the cell.
func cellWeights(kind domain.CellKind, c []domain.Point, p domain.Point) ([]float64, bool) {
	switch kind {
	case domain.Triangle:
		return triangleWeights(c, p)
	case domain.Tetra:
		return tetraWeights(c, p)
	case domain.Quad:
		return quadWeights(c, p)
	case domain.Hexahedron:
		return hexWeights(c, p)
	default:
		return nil, false
	}
}

func inside(ws ...float64) bool {
	for _, w := range ws {
		if w < -paramTol || w > 1+paramTol {
			return false
		}
	}
	return true
}

// triangleWeights computes barycentric coordinates in the xy plane.
func triangleWeights(c []domain.Point, p domain.Point) ([]float64, bool) {
	a := [2][2]float64{
		{c[1][0] - c[0][0], c[2][0] - c[0][0]},
		{c[1][1] - c[0][1], c[2][1] - c[0][1]},
	}
	x, ok := solve2(a, [2]float64{p[0] - c[0][0], p[1] - c[0][1]})
	if !ok {
		return nil, false
	}
	w := []float64{1 - x[0] - x[1], x[0], x[1]}
	return w, inside(w...)
}

func tetraWeights(c []domain.Point, p domain.Point) ([]float64, bool) {
	var a [3][3]float64
	var b [3]float64
	for r := range 3 {
		a[r] = [3]float64{c[1][r] - c[0][r], c[2][r] - c[0][r], c[3][r] - c[0][r]}
		b[r] = p[r] - c[0][r]
	}
	x, ok := solve3(a, b)
	if !ok {
		return nil, false
	}
	w := []float64{1 - x[0] - x[1] - x[2], x[0], x[1], x[2]}
	return w, inside(w...)
}

// quadShape returns the bilinear shape functions at (r, s) and their derivatives.
func quadShape(r, s float64) (n [4]float64, dr, ds [4]float64) {
	n = [4]float64{(1 - r) * (1 - s), r * (1 - s), r * s, (1 - r) * s}
	dr = [4]float64{-(1 - s), 1 - s, s, -s}
	ds = [4]float64{-(1 - r), -r, r, 1 - r}
	return n, dr, ds
}

// quadWeights inverts the bilinear map of the quad in the xy plane with Newton's method.
func quadWeights(c []domain.Point, p domain.Point) ([]float64, bool) {
	r, s := 0.5, 0.5
	for range newtonIterations {
		n, dr, ds := quadShape(r, s)
		var f [2]float64
		var j [2][2]float64
		for i := range 4 {
			for a := range 2 {
				f[a] += n[i] * c[i][a]
				j[a][0] += dr[i] * c[i][a]
				j[a][1] += ds[i] * c[i][a]
			}
		}
		d, ok := solve2(j, [2]float64{p[0] - f[0], p[1] - f[1]})
		if !ok {
			return nil, false
		}
		r += d[0]
		s += d[1]
		if math.Abs(d[0]) < newtonTol && math.Abs(d[1]) < newtonTol {
			break
		}
	}
	if !inside(r, s) {
		return nil, false
	}
	n, _, _ := quadShape(r, s)
	return n[:], true
}

// hexShape returns the trilinear shape functions at (r, s, t) and their derivatives.
func hexShape(r, s, t float64) (n [8]float64, d [3][8]float64) {
	rm, sm, tm := 1-r, 1-s, 1-t
	n = [8]float64{
		rm * sm * tm, r * sm * tm, r * s * tm, rm * s * tm,
		rm * sm * t, r * sm * t, r * s * t, rm * s * t,
	}
	d[0] = [8]float64{-sm * tm, sm * tm, s * tm, -s * tm, -sm * t, sm * t, s * t, -s * t}
	d[1] = [8]float64{-rm * tm, -r * tm, r * tm, rm * tm, -rm * t, -r * t, r * t, rm * t}
	d[2] = [8]float64{-rm * sm, -r * sm, -r * s, -rm * s, rm * sm, r * sm, r * s, rm * s}
	return n, d
}

// hexWeights inverts the trilinear map of the hexahedron with Newton's method.
func hexWeights(c []domain.Point, p domain.Point) ([]float64, bool) {
	x := [3]float64{0.5, 0.5, 0.5}
	for range newtonIterations {
		n, d := hexShape(x[0], x[1], x[2])
		var f [3]float64
		var j [3][3]float64
		for i := range 8 {
			for a := range 3 {
				f[a] += n[i] * c[i][a]
				for k := range 3 {
					j[a][k] += d[k][i] * c[i][a]
				}
			}
		}
		dx, ok := solve3(j, [3]float64{p[0] - f[0], p[1] - f[1], p[2] - f[2]})
		if !ok {
			return nil, false
		}
		done := true
		for a := range 3 {
			x[a] += dx[a]
			if math.Abs(dx[a]) >= newtonTol {
				done = false
			}
		}
		if done {
			break
		}
	}
	if !inside(x[:]...) {
		return nil, false
	}
	n, _ := hexShape(x[0], x[1], x[2])
	return n[:], true
}

// solve2 solves a 2x2 system by Cramer's rule.
func solve2(a [2][2]float64, b [2]float64) ([2]float64, bool) {
	det := a[0][0]*a[1][1] - a[0][1]*a[1][0]
	if det == 0 || math.IsNaN(det) {
		return [2]float64{}, false
	}
	return [2]float64{
		(b[0]*a[1][1] - a[0][1]*b[1]) / det,
		(a[0][0]*b[1] - b[0]*a[1][0]) / det,
	}, true
}

// solve3 solves a 3x3 system by Cramer's rule.
func solve3(a [3][3]float64, b [3]float64) ([3]float64, bool) {
	det := det3(a)
	if det == 0 || math.IsNaN(det) {
		return [3]float64{}, false
	}
	var x [3]float64
	for col := range 3 {
		m := a
		for r := range 3 {
			m[r][col] = b[r]
		}
		x[col] = det3(m) / det
	}
	return x, true
}

func det3(a [3][3]float64) float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

package domain

import (
	"math"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Point is a position in space. Two-dimensional geometries ignore the z component.
type Point [3]float64

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

// Scale returns s * p.
func (p Point) Scale(s float64) Point {
	return Point{s * p[0], s * p[1], s * p[2]}
}

// Finite reports whether every coordinate is a finite number.
func (p Point) Finite() bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ParsePoint parses "x,y[,z]" into a Point. A missing z defaults to 0.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Point{}, zerr.With(zerr.Wrap(ErrInvalidPoint, "expected x,y or x,y,z"), "point", s)
	}

	var p Point
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Point{}, zerr.With(zerr.Wrap(ErrInvalidPoint, err.Error()), "point", s)
		}
		p[i] = v
	}
	if !p.Finite() {
		return Point{}, zerr.With(zerr.Wrap(ErrInvalidPoint, "coordinates must be finite"), "point", s)
	}
	return p, nil
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max Point
}

// EmptyBounds returns a box that contains nothing and grows with Extend.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: Point{inf, inf, inf},
		Max: Point{-inf, -inf, -inf},
	}
}

// Extend grows b to include p.
func (b *Bounds) Extend(p Point) {
	for a := range 3 {
		b.Min[a] = math.Min(b.Min[a], p[a])
		b.Max[a] = math.Max(b.Max[a], p[a])
	}
}

// Union grows b to include o.
func (b *Bounds) Union(o Bounds) {
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Contains reports whether p lies in b, widened by tol on every side.
func (b Bounds) Contains(p Point, tol float64) bool {
	for a := range 3 {
		if p[a] < b.Min[a]-tol || p[a] > b.Max[a]+tol {
			return false
		}
	}
	return true
}

// Center returns the midpoint of b.
func (b Bounds) Center() Point {
	return Point{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float64 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

package domain

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"go.trai.ch/zerr"
)

// TimeStep pairs a timestamp with the external reference used to load its snapshot.
type TimeStep struct {
	Time   float64
	Source string
}

// TimeAxis is a strictly ascending sequence of time steps.
type TimeAxis struct {
	steps []TimeStep
}

// NewTimeAxis sorts steps by time and rejects empty, non-finite or duplicate timestamps.
func NewTimeAxis(steps []TimeStep) (*TimeAxis, error) {
	if len(steps) == 0 {
		return nil, zerr.Wrap(ErrEmptyTimeAxis, "time axis needs at least one snapshot")
	}
	sorted := slices.Clone(steps)
	slices.SortStableFunc(sorted, func(a, b TimeStep) int { return cmp.Compare(a.Time, b.Time) })
	for i, s := range sorted {
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) {
			return nil, zerr.With(zerr.Wrap(ErrInvalidTime, "timestamps must be finite"), "source", s.Source)
		}
		if i > 0 && s.Time == sorted[i-1].Time {
			return nil, zerr.With(zerr.Wrap(ErrDuplicateTime, "timestamps must be unique"), "time", s.Time)
		}
	}
	return &TimeAxis{steps: sorted}, nil
}

// Len returns the number of time steps.
func (a *TimeAxis) Len() int { return len(a.steps) }

// Time returns the timestamp at index i.
func (a *TimeAxis) Time(i int) float64 { return a.steps[i].Time }

// Source returns the loader reference at index i.
func (a *TimeAxis) Source(i int) string { return a.steps[i].Source }

// Step returns the time step at index i.
func (a *TimeAxis) Step(i int) TimeStep { return a.steps[i] }

// First returns the earliest timestamp.
func (a *TimeAxis) First() float64 { return a.steps[0].Time }

// Last returns the latest timestamp.
func (a *TimeAxis) Last() float64 { return a.steps[len(a.steps)-1].Time }

// Bracket returns the index i with Time(i-1) <= t < Time(i). The endpoints are
// clamped onto the outer brackets: t == First() yields 1 and t == Last() yields Len()-1.
// Times outside [First(), Last()] fail with ErrTimeOutOfRange.
func (a *TimeAxis) Bracket(t float64) (int, error) {
	n := len(a.steps)
	if n < 2 {
		return 0, zerr.With(zerr.Wrap(ErrTimeAxisTooShort, "cannot bracket a query time"), "snapshots", n)
	}
	if math.IsNaN(t) || t < a.First() || t > a.Last() {
		return 0, zerr.With(
			zerr.With(zerr.Wrap(ErrTimeOutOfRange, "query time outside time axis"), "time", t),
			"range", [2]float64{a.First(), a.Last()},
		)
	}
	i := sort.Search(n, func(j int) bool { return a.steps[j].Time > t })
	switch {
	case i == 0:
		return 1, nil
	case i == n:
		return n - 1, nil
	default:
		return i, nil
	}
}

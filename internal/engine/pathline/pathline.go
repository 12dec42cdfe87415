// Package pathline integrates particle paths through a time-varying vector field.
package pathline

import (
	"context"
	"errors"
	"math"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultMaxSteps bounds an integration when Options.MaxSteps is zero.
const DefaultMaxSteps = 100_000

// stepSlack absorbs rounding when deciding whether the next step is the last.
const stepSlack = 1e-9

// defaultSegments is the number of steps used when Options.Step is zero.
const defaultSegments = 100

// Field is the right-hand side dy/dt = v(t, y) of a pathline.
type Field interface {
	Velocity(ctx context.Context, t float64, y domain.Point) (domain.Point, error)
}

// FieldFunc adapts a function to Field.
type FieldFunc func(ctx context.Context, t float64, y domain.Point) (domain.Point, error)

// Velocity implements Field.
func (f FieldFunc) Velocity(ctx context.Context, t float64, y domain.Point) (domain.Point, error) {
	return f(ctx, t, y)
}

// Reason tells why an integration stopped.
type Reason uint8

const (
	// Reached means the path arrived at T1.
	Reached Reason = iota
	// LeftDomain means the field had no value at the next evaluation point.
	LeftDomain
	// StepLimit means MaxSteps steps were taken before reaching T1.
	StepLimit
)

func (r Reason) String() string {
	switch r {
	case Reached:
		return "reached"
	case LeftDomain:
		return "left-domain"
	case StepLimit:
		return "step-limit"
	default:
		return "unknown"
	}
}

// Options configures an integration.
type Options struct {
	// T0 and T1 are the start and end times. T1 < T0 integrates backwards.
	T0, T1 float64
	// Step is the magnitude of the time step. Zero splits [T0, T1] into 100 steps.
	Step float64
	// MaxSteps stops the integration early. Zero selects DefaultMaxSteps.
	MaxSteps int
}

// Sample is one vertex of a path.
type Sample struct {
	T     float64
	Point domain.Point
}

// Path is the polyline traced from a seed.
type Path struct {
	Samples []Sample
	Reason  Reason
}

// End returns the last vertex of the path.
func (p *Path) End() Sample { return p.Samples[len(p.Samples)-1] }

// Trace integrates from seed at T0 towards T1 with the classical fourth-order
// Runge-Kutta scheme. The final step is shortened to land exactly on T1. The
// path stops early when the field reports domain.ErrOutOfDomain or a non-finite
// velocity; any other field error is returned.
func Trace(ctx context.Context, f Field, seed domain.Point, opts Options) (*Path, error) {
	if !seed.Finite() {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPoint, "seed must be finite"), "seed", seed)
	}
	span := opts.T1 - opts.T0
	if math.IsNaN(span) || math.IsInf(span, 0) || math.IsNaN(opts.Step) || opts.Step < 0 {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrTraceFailed, "invalid time range or step"), "range", [2]float64{opts.T0, opts.T1}), "step", opts.Step)
	}
	h := opts.Step
	if h == 0 {
		h = math.Abs(span) / defaultSegments
	}
	h = math.Copysign(h, span)
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	path := &Path{Samples: []Sample{{T: opts.T0, Point: seed}}}
	t, y := opts.T0, seed
	for steps := 0; t != opts.T1; steps++ {
		if steps == maxSteps {
			path.Reason = StepLimit
			return path, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(domain.ErrTraceFailed, err)
		}

		// Times are taken from the step count so rounding does not accumulate.
		next := opts.T0 + float64(steps+1)*h
		if math.Abs(opts.T1-t) <= math.Abs(h)*(1+stepSlack) {
			next = opts.T1
		}

		p, ok, err := rk4(ctx, f, t, y, next-t)
		if err != nil {
			return nil, errors.Join(domain.ErrTraceFailed, zerr.With(zerr.Wrap(err, "velocity evaluation failed"), "time", t))
		}
		if !ok {
			path.Reason = LeftDomain
			return path, nil
		}

		t, y = next, p
		path.Samples = append(path.Samples, Sample{T: t, Point: y})
	}
	path.Reason = Reached
	return path, nil
}

// rk4 advances y by one step of size dt. ok is false when any stage has no value.
func rk4(ctx context.Context, f Field, t float64, y domain.Point, dt float64) (domain.Point, bool, error) {
	k1, ok, err := eval(ctx, f, t, y)
	if !ok || err != nil {
		return y, ok, err
	}
	k2, ok, err := eval(ctx, f, t+dt/2, y.Add(k1.Scale(dt/2)))
	if !ok || err != nil {
		return y, ok, err
	}
	k3, ok, err := eval(ctx, f, t+dt/2, y.Add(k2.Scale(dt/2)))
	if !ok || err != nil {
		return y, ok, err
	}
	k4, ok, err := eval(ctx, f, t+dt, y.Add(k3.Scale(dt)))
	if !ok || err != nil {
		return y, ok, err
	}
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return y.Add(sum.Scale(dt / 6)), true, nil
}

func eval(ctx context.Context, f Field, t float64, y domain.Point) (domain.Point, bool, error) {
	v, err := f.Velocity(ctx, t, y)
	switch {
	case errors.Is(err, domain.ErrOutOfDomain):
		return v, false, nil
	case err != nil:
		return v, false, err
	case !v.Finite():
		return v, false, nil
	}
	return v, true, nil
}

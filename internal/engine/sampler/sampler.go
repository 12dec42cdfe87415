// Package sampler answers field queries at arbitrary (time, point) pairs over a
// sequence of snapshots that share one geometry.
package sampler

import (
	"context"
	"errors"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/pathline/internal/engine/interp"
	"go.trai.ch/pathline/internal/engine/locator"
	"go.trai.ch/pathline/internal/engine/window"
	"go.trai.ch/zerr"
)

// Options configures a Sampler.
type Options struct {
	// Stack is the number of resident snapshots. Zero selects domain.DefaultStack.
	Stack int
	// Fields are sampled when a query names none. Empty selects domain.DefaultField.
	Fields []string
	// Strict makes out-of-domain points fail with domain.ErrOutOfDomain instead of
	// yielding values that are not Valid.
	Strict bool
}

func (o Options) withDefaults() Options {
	if o.Stack == 0 {
		o.Stack = domain.DefaultStack
	}
	if len(o.Fields) == 0 {
		o.Fields = []string{domain.DefaultField}
	}
	return o
}

// Sampler blends spatially interpolated values of the two snapshots bracketing a
// query time. Snapshots are loaded on demand through a sliding window cache.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	axis    *domain.TimeAxis
	locator *locator.Locator
	cache   *window.Cache
	fields  []string
	strict  bool
	// last is the bracket of the previous query, -1 before the first one.
	last int
	// lastHint is the hint used for last.
	lastHint window.Hint
}

// New builds a sampler over axis for snapshots defined on geometry.
func New(geometry domain.Geometry, axis *domain.TimeAxis, loader ports.SnapshotLoader, opts Options) (*Sampler, error) {
	opts = opts.withDefaults()
	if opts.Stack < 2 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidStackSize, "sampler needs room for a bracketing pair"), "stack", opts.Stack)
	}
	if axis == nil || axis.Len() == 0 {
		return nil, domain.ErrEmptyTimeAxis
	}
	if axis.Len() < 2 {
		return nil, zerr.With(zerr.Wrap(domain.ErrTimeAxisTooShort, "cannot bracket any time"), "length", axis.Len())
	}

	loc, err := locator.Build(geometry)
	if err != nil {
		return nil, err
	}
	cache, err := window.New(axis, loader, window.Options{
		Capacity: opts.Stack,
		Fields:   opts.Fields,
		Geometry: geometry,
	})
	if err != nil {
		return nil, err
	}

	return &Sampler{
		axis:    axis,
		locator: loc,
		cache:   cache,
		fields:  opts.Fields,
		strict:  opts.Strict,
		last:    -1,
	}, nil
}

// Open builds a sampler whose geometry is taken from the first snapshot of axis.
func Open(ctx context.Context, axis *domain.TimeAxis, loader ports.SnapshotLoader, opts Options) (*Sampler, error) {
	if axis == nil || axis.Len() == 0 {
		return nil, domain.ErrEmptyTimeAxis
	}
	opts = opts.withDefaults()
	first, err := loader.Load(ctx, axis.Source(0), opts.Fields)
	if err != nil {
		return nil, errors.Join(domain.ErrSnapshotLoadFailed, zerr.With(zerr.Wrap(err, "load first snapshot"), "source", axis.Source(0)))
	}
	if first == nil || first.Geometry == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidGeometry, "first snapshot has no geometry"), "source", axis.Source(0))
	}
	return New(first.Geometry, axis, loader, opts)
}

// Axis returns the time axis.
func (s *Sampler) Axis() *domain.TimeAxis { return s.axis }

// Geometry returns the geometry shared by every snapshot.
func (s *Sampler) Geometry() domain.Geometry { return s.locator.Geometry() }

// Bounds returns the spatial extent of the geometry.
func (s *Sampler) Bounds() domain.Bounds { return s.locator.Bounds() }

// Stats returns the cache counters.
func (s *Sampler) Stats() window.Stats { return s.cache.Stats() }

// Window returns the resident snapshot range.
func (s *Sampler) Window() window.Span { return s.cache.Window() }

// Locate finds the cell containing p.
func (s *Sampler) Locate(p domain.Point) (domain.Location, error) {
	return s.locator.Locate(p)
}

// Sample returns the value of each named field at time t and point p, in the
// order given. With no names the configured fields are sampled. Names must
// resolve against what the loader returned for Options.Fields; a loader that
// reads only those fields makes any other name fail with domain.ErrFieldNotFound.
// Times outside the axis fail with domain.ErrTimeOutOfRange.
func (s *Sampler) Sample(ctx context.Context, t float64, p domain.Point, names ...string) ([]domain.Value, error) {
	i, err := s.axis.Bracket(t)
	if err != nil {
		return nil, err
	}
	hint := s.hint(i)
	if err := s.cache.EnsureWindow(ctx, i, hint); err != nil {
		return nil, err
	}
	s.last, s.lastHint = i, hint

	before, _ := s.cache.Get(i - 1)
	after, _ := s.cache.Get(i)

	if len(names) == 0 {
		names = s.fields
	}
	fa, err := before.Resolve(names)
	if err != nil {
		return nil, zerr.With(err, "time", s.axis.Time(i-1))
	}
	fb, err := after.Resolve(names)
	if err != nil {
		return nil, zerr.With(err, "time", s.axis.Time(i))
	}
	for k := range fa {
		if fa[k].Components != fb[k].Components {
			return nil, zerr.With(zerr.Wrap(domain.ErrFieldSizeMismatch, "component count changes between snapshots"), "field", names[k])
		}
	}

	loc, err := s.locator.Locate(p)
	if err != nil {
		return outside(err, fa, s.strict)
	}

	t0, t1 := s.axis.Time(i-1), s.axis.Time(i)
	u := (t - t0) / (t1 - t0)
	out := make([]domain.Value, len(fa))
	for k := range fa {
		out[k] = interp.Blend(interp.Interpolate(loc, fa[k]), interp.Interpolate(loc, fb[k]), u)
	}
	return out, nil
}

// Velocity samples the first configured field at (t, y) as a right-hand side for
// pathline integration. Outside the domain it returns a non-finite point in
// lenient mode and domain.ErrOutOfDomain in strict mode.
func (s *Sampler) Velocity(ctx context.Context, t float64, y domain.Point) (domain.Point, error) {
	vs, err := s.Sample(ctx, t, y, s.fields[0])
	if err != nil {
		return domain.Point{}, err
	}
	return toPoint(s.fields[0], vs[0])
}

// hint picks the window bias from the previous bracket. Repeated queries in one
// bracket keep the previous bias: after a backward step the window stays put
// instead of sliding forward and loading a snapshot the sweep will not reach.
func (s *Sampler) hint(i int) window.Hint {
	switch {
	case s.last < 0:
		return window.Centered
	case i == s.last:
		return s.lastHint
	case i == s.last+1:
		return window.Forward
	case i == s.last-1:
		return window.Backward
	default:
		return window.Centered
	}
}

func outside(err error, fields []*domain.Field, strict bool) ([]domain.Value, error) {
	if strict || !errors.Is(err, domain.ErrOutOfDomain) {
		return nil, err
	}
	out := make([]domain.Value, len(fields))
	for k, f := range fields {
		out[k] = domain.NoValue(f.Components)
	}
	return out, nil
}

func toPoint(name string, v domain.Value) (domain.Point, error) {
	var p domain.Point
	if len(v) != len(p) {
		return p, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrFieldSizeMismatch, "velocity field needs 3 components"), "field", name),
			"components", len(v),
		)
	}
	copy(p[:], v)
	return p, nil
}

// Package window keeps a bounded, contiguous run of snapshots resident while a
// caller moves along a time axis.
package window

import (
	"context"
	"errors"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options configures a Cache.
type Options struct {
	// Capacity is the maximum number of resident snapshots, at least 1.
	Capacity int
	// Fields is handed to the loader on every load.
	Fields []string
	// Geometry, when set, must match the geometry of every loaded snapshot.
	Geometry domain.Geometry
}

// Stats reports cache activity since construction or the last Reset.
type Stats struct {
	Loads         int
	Evictions     int
	FullReloads   int
	ResidentBytes int64
}

// Cache is a sliding window of loaded snapshots over a time axis. Resident
// indices are always contiguous and number at most min(Capacity, axis length).
// A Cache is not safe for concurrent use.
type Cache struct {
	axis     *domain.TimeAxis
	loader   ports.SnapshotLoader
	fields   []string
	geometry domain.Geometry
	// fingerprint is geometry.Fingerprint(), computed once.
	fingerprint uint64
	capacity    int

	// ring holds the snapshot for index j at slot j % capacity.
	ring   []*domain.Snapshot
	window Span
	stats  Stats
}

// New creates an empty cache over axis.
func New(axis *domain.TimeAxis, loader ports.SnapshotLoader, opts Options) (*Cache, error) {
	if opts.Capacity < 1 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidStackSize, "cache capacity must be at least 1"), "stack", opts.Capacity)
	}
	if axis == nil || axis.Len() == 0 {
		return nil, domain.ErrEmptyTimeAxis
	}
	c := &Cache{
		axis:     axis,
		loader:   loader,
		fields:   opts.Fields,
		geometry: opts.Geometry,
		capacity: opts.Capacity,
		ring:     make([]*domain.Snapshot, opts.Capacity),
		window:   EmptySpan(),
	}
	if c.geometry != nil {
		c.fingerprint = c.geometry.Fingerprint()
	}
	return c, nil
}

// Capacity returns the configured number of resident snapshots.
func (c *Cache) Capacity() int { return c.capacity }

// Window returns the resident index range.
func (c *Cache) Window() Span { return c.window }

// Len returns the number of resident snapshots.
func (c *Cache) Len() int { return c.window.Len() }

// Stats returns the activity counters.
func (c *Cache) Stats() Stats { return c.stats }

// Get returns the resident snapshot for index j.
func (c *Cache) Get(j int) (*domain.Snapshot, bool) {
	if !c.window.Contains(j) {
		return nil, false
	}
	return c.ring[c.slot(j)], true
}

// Reset drops every resident snapshot and clears the counters.
func (c *Cache) Reset() {
	clear(c.ring)
	c.window = EmptySpan()
	c.stats = Stats{}
}

// EnsureWindow makes the window planned for target resident. A window that
// already covers the plan is left alone; an overlapping one slides, loading only
// the missing indices; a disjoint or empty one is replaced wholesale.
//
// Loads happen before anything is evicted, so a failed load leaves the previous
// window resident and unchanged.
func (c *Cache) EnsureWindow(ctx context.Context, target int, hint Hint) error {
	n := c.axis.Len()
	if target < 0 || target >= n {
		return zerr.With(
			zerr.With(zerr.Wrap(domain.ErrIndexOutOfRange, "window target outside time axis"), "index", target),
			"length", n,
		)
	}

	want := Plan(target, n, c.capacity, hint)
	cur := c.window
	switch {
	case cur.Covers(want):
		return nil
	case cur.Disjoint(want) || (want.Lo < cur.Lo && want.Hi > cur.Hi):
		return c.reload(ctx, want)
	case want.Lo < cur.Lo:
		return c.shiftLeft(ctx, want)
	default:
		return c.shiftRight(ctx, want)
	}
}

func (c *Cache) reload(ctx context.Context, want Span) error {
	staged := make([]*domain.Snapshot, 0, want.Len())
	for j := want.Lo; j <= want.Hi; j++ {
		s, err := c.load(ctx, j)
		if err != nil {
			return err
		}
		staged = append(staged, s)
	}

	for j := c.window.Lo; j <= c.window.Hi; j++ {
		c.evict(j)
	}
	for k, s := range staged {
		c.install(want.Lo+k, s)
	}
	c.window = want
	c.stats.FullReloads++
	return nil
}

// shiftLeft loads cur.Lo-1 down to want.Lo, then drops as many entries from the right.
func (c *Cache) shiftLeft(ctx context.Context, want Span) error {
	cur := c.window
	staged := make([]*domain.Snapshot, 0, cur.Lo-want.Lo)
	for j := cur.Lo - 1; j >= want.Lo; j-- {
		s, err := c.load(ctx, j)
		if err != nil {
			return err
		}
		staged = append(staged, s)
	}

	for k, s := range staged {
		if c.window.Len() >= want.Len() {
			c.evict(c.window.Hi)
			c.window.Hi--
		}
		c.install(cur.Lo-1-k, s)
		c.window.Lo--
	}
	return nil
}

// shiftRight loads cur.Hi+1 up to want.Hi, then drops as many entries from the left.
func (c *Cache) shiftRight(ctx context.Context, want Span) error {
	cur := c.window
	staged := make([]*domain.Snapshot, 0, want.Hi-cur.Hi)
	for j := cur.Hi + 1; j <= want.Hi; j++ {
		s, err := c.load(ctx, j)
		if err != nil {
			return err
		}
		staged = append(staged, s)
	}

	for k, s := range staged {
		if c.window.Len() >= want.Len() {
			c.evict(c.window.Lo)
			c.window.Lo++
		}
		c.install(cur.Hi+1+k, s)
		c.window.Hi++
	}
	return nil
}

func (c *Cache) load(ctx context.Context, j int) (*domain.Snapshot, error) {
	source := c.axis.Source(j)
	s, err := c.loader.Load(ctx, source, c.fields)
	if err == nil && s == nil {
		err = errors.New("loader returned no snapshot")
	}
	if err != nil {
		return nil, errors.Join(domain.ErrSnapshotLoadFailed, zerr.With(zerr.With(zerr.Wrap(err, "load snapshot"), "index", j), "source", source))
	}
	if c.geometry != nil && !c.matches(s.Geometry) {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrGeometryMismatch, "snapshot geometry differs"), "index", j), "source", source)
	}
	c.stats.Loads++
	return s, nil
}

// matches compares g against the cache geometry without rehashing the latter.
func (c *Cache) matches(g domain.Geometry) bool {
	if g == nil {
		return false
	}
	if g == c.geometry {
		return true
	}
	return g.Kind() == c.geometry.Kind() && g.NumPoints() == c.geometry.NumPoints() && g.Fingerprint() == c.fingerprint
}

func (c *Cache) slot(j int) int { return j % c.capacity }

func (c *Cache) install(j int, s *domain.Snapshot) {
	c.ring[c.slot(j)] = s
	c.stats.ResidentBytes += s.Bytes()
}

func (c *Cache) evict(j int) {
	s := c.ring[c.slot(j)]
	if s == nil {
		return
	}
	c.ring[c.slot(j)] = nil
	c.stats.ResidentBytes -= s.Bytes()
	c.stats.Evictions++
}

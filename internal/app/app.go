// Package app implements the application layer for pathline.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/pathline/internal/engine/pathline"
	"go.trai.ch/pathline/internal/engine/sampler"
	"go.trai.ch/pathline/internal/engine/window"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	loaders      ports.LoaderFactory
	writer       ports.SeriesWriter
	logger       ports.Logger
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, loaders ports.LoaderFactory, writer ports.SeriesWriter, log ports.Logger) *App {
	return &App{
		configLoader: loader,
		loaders:      loaders,
		writer:       writer,
		logger:       log,
	}
}

// RunInfo summarises a run description and its geometry.
type RunInfo struct {
	Geometry  domain.Geometry
	Bounds    domain.Bounds
	Start     float64
	End       float64
	Snapshots int
	Stack     int
	Fields    []string
	Strict    bool
}

// Info loads the run at path and describes it.
func (a *App) Info(ctx context.Context, path string) (*RunInfo, error) {
	run, s, err := a.open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &RunInfo{
		Geometry:  s.Geometry(),
		Bounds:    s.Bounds(),
		Start:     run.Axis.First(),
		End:       run.Axis.Last(),
		Snapshots: run.Axis.Len(),
		Stack:     run.Stack,
		Fields:    run.Fields,
		Strict:    run.Strict,
	}, nil
}

// SampleRequest lists the query times and points. Every point is sampled at
// every time, times outermost.
type SampleRequest struct {
	Times  []float64
	Points []domain.Point
	// Fields replaces the run's fields when not empty. Only these fields are
	// loaded from the snapshots.
	Fields []string
}

// SampleResult holds the values of one (time, point) query in field order.
type SampleResult struct {
	Time   float64
	Point  domain.Point
	Values []domain.Value
}

// SampleReport is the outcome of Sample.
type SampleReport struct {
	Fields  []string
	Results []SampleResult
	Stats   window.Stats
}

// Sample answers req against the run at path with a single sampler.
func (a *App) Sample(ctx context.Context, path string, req SampleRequest) (*SampleReport, error) {
	run, err := a.load(path)
	if err != nil {
		return nil, err
	}
	opts := options(run)
	if len(req.Fields) > 0 {
		opts.Fields = req.Fields
	}
	s, err := a.openView(ctx, run, opts)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	report := &SampleReport{
		Fields:  fields,
		Results: make([]SampleResult, 0, len(req.Times)*len(req.Points)),
	}
	for _, t := range req.Times {
		for _, p := range req.Points {
			values, err := s.Sample(ctx, t, p, fields...)
			if err != nil {
				return nil, zerr.Wrap(err, "sampling failed")
			}
			report.Results = append(report.Results, SampleResult{Time: t, Point: p, Values: values})
		}
	}
	report.Stats = s.Stats()
	return report, nil
}

// LocateResult tells which cell holds a point. Found is false outside the domain.
type LocateResult struct {
	Point    domain.Point
	Location domain.Location
	Found    bool
}

// Locate finds the cell and weights of every point in the run's geometry.
func (a *App) Locate(ctx context.Context, path string, points []domain.Point) ([]LocateResult, error) {
	_, s, err := a.open(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make([]LocateResult, len(points))
	for i, p := range points {
		out[i].Point = p
		loc, err := s.Locate(p)
		switch {
		case err == nil:
			out[i].Location, out[i].Found = loc, true
		case errors.Is(err, domain.ErrOutOfDomain):
		default:
			return nil, err
		}
	}
	return out, nil
}

// TraceRequest configures Trace.
type TraceRequest struct {
	Seeds []domain.Point
	// From and To default to the first and last time of the run.
	From, To *float64
	Step     float64
	MaxSteps int
	// Concurrency bounds the seeds traced at once. Zero uses the number of CPUs.
	Concurrency int
	// Observe, when set, is called from the tracing goroutines as seeds start and finish.
	Observe func(TraceEvent)
}

// TraceEvent reports a seed starting or, when Done is set, finishing.
type TraceEvent struct {
	Seed   int
	Point  domain.Point
	Done   bool
	Reason pathline.Reason
	Err    error
}

// TraceResult is the path traced from one seed.
type TraceResult struct {
	Seed  domain.Point
	Path  *pathline.Path
	Stats window.Stats
}

// Trace integrates a pathline from every seed. Seeds run concurrently, each
// with its own sampler and loader.
func (a *App) Trace(ctx context.Context, path string, req TraceRequest) ([]TraceResult, error) {
	run, first, err := a.open(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(req.Seeds) == 0 {
		return nil, nil
	}

	opts := pathline.Options{
		T0:       run.Axis.First(),
		T1:       run.Axis.Last(),
		Step:     req.Step,
		MaxSteps: req.MaxSteps,
	}
	if req.From != nil {
		opts.T0 = *req.From
	}
	if req.To != nil {
		opts.T1 = *req.To
	}

	limit := req.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	samplers := make([]view, len(req.Seeds))
	samplers[0] = first
	for i := 1; i < len(samplers); i++ {
		if _, steady := first.(staticView); steady {
			samplers[i] = first
			continue
		}
		samplers[i], err = a.newSampler(run, first.Geometry(), options(run))
		if err != nil {
			return nil, err
		}
	}

	results := make([]TraceResult, len(req.Seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, seed := range req.Seeds {
		s := samplers[i]
		g.Go(func() error {
			req.observe(TraceEvent{Seed: i, Point: seed})
			p, err := pathline.Trace(ctx, s, seed, opts)
			if err != nil {
				req.observe(TraceEvent{Seed: i, Point: seed, Done: true, Err: err})
				return zerr.With(zerr.Wrap(err, "trace failed"), "seed", i)
			}
			req.observe(TraceEvent{Seed: i, Point: seed, Done: true, Reason: p.Reason})
			if p.Reason != pathline.Reached {
				end := p.End()
				a.logger.Warn(fmt.Sprintf("seed %d stopped at t=%g: %s", i, end.T, p.Reason))
			}
			results[i] = TraceResult{Seed: seed, Path: p, Stats: s.Stats()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *TraceRequest) observe(ev TraceEvent) {
	if r.Observe != nil {
		r.Observe(ev)
	}
}

// view is what the commands need from a sampler. Runs with a single snapshot
// are steady and sampled without regard to time.
type view interface {
	pathline.Field
	Geometry() domain.Geometry
	Bounds() domain.Bounds
	Locate(p domain.Point) (domain.Location, error)
	Sample(ctx context.Context, t float64, p domain.Point, names ...string) ([]domain.Value, error)
	Stats() window.Stats
}

type staticView struct {
	*sampler.Static
}

func (v staticView) Sample(_ context.Context, _ float64, p domain.Point, names ...string) ([]domain.Value, error) {
	return v.Static.Sample(p, names...)
}

func (v staticView) Stats() window.Stats {
	return window.Stats{Loads: 1, ResidentBytes: v.Snapshot().Bytes()}
}

func (a *App) open(ctx context.Context, path string) (*domain.Run, view, error) {
	run, err := a.load(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.openView(ctx, run, options(run))
	if err != nil {
		return nil, nil, err
	}
	return run, s, nil
}

func (a *App) load(path string) (*domain.Run, error) {
	run, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load run description")
	}
	return run, nil
}

// openView builds the view over run that loads opts.Fields from every snapshot.
func (a *App) openView(ctx context.Context, run *domain.Run, opts sampler.Options) (view, error) {
	if run.Axis.Len() == 1 {
		return a.openStatic(ctx, run, opts)
	}

	if run.Geometry != nil {
		s, err := a.newSampler(run, run.Geometry, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	loader, err := a.loaders.NewLoader(run)
	if err != nil {
		return nil, err
	}
	s, err := sampler.Open(ctx, run.Axis, loader, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) openStatic(ctx context.Context, run *domain.Run, opts sampler.Options) (view, error) {
	loader, err := a.loaders.NewLoader(run)
	if err != nil {
		return nil, err
	}
	source := run.Axis.Source(0)
	snap, err := loader.Load(ctx, source, opts.Fields)
	if err != nil {
		return nil, errors.Join(domain.ErrSnapshotLoadFailed, zerr.With(zerr.Wrap(err, "load snapshot"), "source", source))
	}
	if snap == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotLoadFailed, "loader returned no snapshot"), "source", source)
	}
	if run.Geometry != nil && !domain.SameGeometry(run.Geometry, snap.Geometry) {
		return nil, zerr.With(zerr.Wrap(domain.ErrGeometryMismatch, "snapshot does not use the run geometry"), "source", source)
	}
	s, err := sampler.NewStatic(snap, opts)
	if err != nil {
		return nil, err
	}
	return staticView{s}, nil
}

func (a *App) newSampler(run *domain.Run, geometry domain.Geometry, opts sampler.Options) (*sampler.Sampler, error) {
	loader, err := a.loaders.NewLoader(run)
	if err != nil {
		return nil, err
	}
	return sampler.New(geometry, run.Axis, loader, opts)
}

func options(run *domain.Run) sampler.Options {
	return sampler.Options{Stack: run.Stack, Fields: run.Fields, Strict: run.Strict}
}

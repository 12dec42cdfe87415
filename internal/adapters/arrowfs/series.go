package arrowfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/pathline/internal/adapters/config"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/zerr"
)

// SeriesWriter implements ports.SeriesWriter with one Arrow file per snapshot
// and a pathline.yaml beside them.
type SeriesWriter struct{}

var _ ports.SeriesWriter = (*SeriesWriter)(nil)

// NewSeriesWriter creates a SeriesWriter.
func NewSeriesWriter() *SeriesWriter {
	return &SeriesWriter{}
}

// Write implements ports.SeriesWriter. Snapshots embed their geometry unless
// the run carries one, in which case the run file holds it and every snapshot
// must match it.
func (w *SeriesWriter) Write(ctx context.Context, dir string, run *domain.Run, source ports.SnapshotSource) error {
	if run == nil || run.Axis == nil {
		return zerr.Wrap(domain.ErrEmptyTimeAxis, "run has no time axis")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.Join(domain.ErrSnapshotWriteFailed, zerr.With(err, "dir", dir))
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return errors.Join(domain.ErrSnapshotWriteFailed, zerr.With(zerr.Wrap(err, "failed to create series directory"), "dir", dir))
	}

	var opts []WriteOption
	if run.Geometry != nil {
		opts = append(opts, WithoutGeometry())
	}

	written := *run
	written.Root = root
	for i := range run.Axis.Len() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := source(i)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to produce snapshot"), "index", i)
		}
		if run.Geometry != nil && !domain.SameGeometry(run.Geometry, s.Geometry) {
			return zerr.With(zerr.Wrap(domain.ErrGeometryMismatch, "snapshot does not use the run geometry"), "index", i)
		}
		path := written.ResolveSource(run.Axis.Source(i))
		if err := WriteSnapshotFile(path, s, opts...); err != nil {
			return errors.Join(domain.ErrSnapshotWriteFailed, zerr.With(err, "time", run.Axis.Time(i)))
		}
	}

	return config.SaveRun(filepath.Join(root, config.FileName), &written)
}

package arrowfs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"go.trai.ch/pathline/internal/adapters/config"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/zerr"
)

type writeConfig struct {
	embedGeometry bool
}

// WriteOption configures WriteSnapshot.
type WriteOption func(*writeConfig)

// WithoutGeometry leaves the geometry out of the file. Readers then need the
// geometry from the run description.
func WithoutGeometry() WriteOption {
	return func(c *writeConfig) { c.embedGeometry = false }
}

// WriteSnapshot writes s to w as an Arrow IPC file. The file footer needs to
// seek back over the record batches, so w must be seekable.
func WriteSnapshot(w io.WriteSeeker, s *domain.Snapshot, opts ...WriteOption) error {
	cfg := writeConfig{embedGeometry: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var md arrow.Metadata
	if cfg.embedGeometry {
		encoded, err := config.EncodeGeometry(s.Geometry)
		if err != nil {
			return err
		}
		md = arrow.NewMetadata([]string{GeometryKey}, []string{string(encoded)})
	}

	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, len(s.Fields))
	cols := make([]arrow.Array, len(s.Fields))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i, f := range s.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: columnType(f.Components)}
		if f.Attribute != domain.AttributeNone {
			fields[i].Metadata = arrow.NewMetadata([]string{AttributeKey}, []string{f.Attribute.String()})
		}
		cols[i] = buildColumn(mem, f)
	}

	schema := arrow.NewSchema(fields, &md)
	rec := array.NewRecord(schema, cols, int64(s.Geometry.NumPoints()))
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return zerr.Wrap(err, "failed to create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return zerr.Wrap(err, "failed to write arrow record")
	}
	if err := fw.Close(); err != nil {
		return zerr.Wrap(err, "failed to finish arrow file")
	}
	return nil
}

// WriteSnapshotFile writes s to path, creating parent directories.
func WriteSnapshotFile(path string, s *domain.Snapshot, opts ...WriteOption) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create snapshot directory"), "path", path)
	}
	// #nosec G304 -- output path is chosen by the caller
	f, err := os.Create(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create snapshot file"), "path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close snapshot file"), "path", path)
		}
	}()
	return WriteSnapshot(f, s, opts...)
}

func columnType(k int) arrow.DataType {
	if k == 1 {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.FixedSizeListOf(int32(k), arrow.PrimitiveTypes.Float64)
}

func buildColumn(mem memory.Allocator, f *domain.Field) arrow.Array {
	if f.Components == 1 {
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(f.Values, nil)
		return b.NewArray()
	}

	b := array.NewFixedSizeListBuilder(mem, int32(f.Components), arrow.PrimitiveTypes.Float64)
	defer b.Release()
	vb, _ := b.ValueBuilder().(*array.Float64Builder)
	for i := range f.Len() {
		b.Append(true)
		vb.AppendValues(f.Tuple(i), nil)
	}
	return b.NewArray()
}

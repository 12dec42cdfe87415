// Package arrowfs loads snapshots stored as Apache Arrow IPC files.
//
// A snapshot file holds one record batch (or several, concatenated) with one
// row per geometry point and one column per field: Float64 for scalar fields
// and FixedSizeList<Float64>[k] for k-component fields. The schema metadata key
// "geometry" carries the geometry in run file notation; the field metadata key
// "attribute" marks the active scalars, vectors or tensors.
package arrowfs

import (
	"context"
	"errors"
	"math"
	"os"
	"slices"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"go.trai.ch/pathline/internal/adapters/config"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// GeometryKey is the schema metadata key holding the encoded geometry.
	GeometryKey = "geometry"
	// AttributeKey is the field metadata key holding the field attribute.
	AttributeKey = "attribute"
)

// Factory implements ports.LoaderFactory for Arrow IPC snapshot files.
type Factory struct {
	alloc memory.Allocator
}

// NewFactory creates a Factory backed by the Go allocator.
func NewFactory() *Factory {
	return &Factory{alloc: memory.NewGoAllocator()}
}

// NewLoader implements ports.LoaderFactory.
func (f *Factory) NewLoader(run *domain.Run) (ports.SnapshotLoader, error) {
	if run == nil {
		return nil, zerr.Wrap(domain.ErrConfigParseFailed, "no run description")
	}
	return NewLoader(run, f.alloc), nil
}

// Loader reads the snapshot files of one run. It is not safe for concurrent use.
type Loader struct {
	run   *domain.Run
	alloc memory.Allocator

	lastEncoded  string
	lastGeometry domain.Geometry
}

var _ ports.SnapshotLoader = (*Loader)(nil)

// NewLoader creates a loader resolving sources against the run root. Files
// without embedded geometry fall back to run.Geometry.
func NewLoader(run *domain.Run, alloc memory.Allocator) *Loader {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	return &Loader{run: run, alloc: alloc}
}

// Load implements ports.SnapshotLoader. An empty fields list loads every column.
func (l *Loader) Load(ctx context.Context, source string, fields []string) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.run.ResolveSource(source)
	// #nosec G304 -- snapshot paths come from the run description
	f, err := os.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open snapshot"), "path", path)
	}
	defer func() { _ = f.Close() }()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(l.alloc))
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidSnapshot, zerr.With(zerr.Wrap(err, "not an arrow file"), "path", path))
	}
	defer func() { _ = r.Close() }()

	schema := r.Schema()
	geom, err := l.geometry(schema)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	columns, err := selectColumns(schema, fields)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	out := make([]*domain.Field, len(columns))
	for i, c := range columns {
		out[i] = &domain.Field{
			Name:       c.name,
			Attribute:  c.attribute,
			Components: c.components,
			Values:     make([]float64, 0, geom.NumPoints()*c.components),
		}
	}

	for i := range r.NumRecords() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Record(i)
		if err != nil {
			return nil, errors.Join(domain.ErrInvalidSnapshot, zerr.With(zerr.Wrap(err, "failed to read record batch"), "path", path))
		}
		for j, c := range columns {
			out[j].Values = appendColumn(out[j].Values, rec.Column(c.index), c.components)
		}
	}

	snap, err := domain.NewSnapshot(geom, out...)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return snap, nil
}

func (l *Loader) geometry(schema *arrow.Schema) (domain.Geometry, error) {
	md := schema.Metadata()
	idx := md.FindKey(GeometryKey)
	if idx < 0 {
		if l.run.Geometry == nil {
			return nil, zerr.Wrap(domain.ErrInvalidGeometry, "snapshot carries no geometry and the run defines none")
		}
		return l.run.Geometry, nil
	}

	encoded := md.Values()[idx]
	if l.lastGeometry != nil && encoded == l.lastEncoded {
		return l.lastGeometry, nil
	}
	g, err := config.DecodeGeometry([]byte(encoded))
	if err != nil {
		return nil, err
	}
	l.lastEncoded, l.lastGeometry = encoded, g
	return g, nil
}

type column struct {
	index      int
	name       string
	attribute  domain.Attribute
	components int
}

func describeColumn(schema *arrow.Schema, i int) (column, error) {
	field := schema.Field(i)
	c := column{index: i, name: field.Name}

	if idx := field.Metadata.FindKey(AttributeKey); idx >= 0 {
		c.attribute, _ = domain.ReservedAttribute(field.Metadata.Values()[idx])
	}

	switch t := field.Type.(type) {
	case *arrow.Float64Type:
		c.components = 1
	case *arrow.FixedSizeListType:
		if t.Elem().ID() == arrow.FLOAT64 && t.Len() > 0 {
			c.components = int(t.Len())
		}
	}
	if c.components == 0 {
		return column{}, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrInvalidSnapshot, "unsupported column type"), "field", field.Name),
			"type", field.Type.String(),
		)
	}
	return c, nil
}

// selectColumns resolves names the way domain.Snapshot.Field does: exact names
// first, then reserved names by attribute. A column requested twice is read once.
func selectColumns(schema *arrow.Schema, names []string) ([]column, error) {
	if len(names) == 0 {
		columns := make([]column, schema.NumFields())
		for i := range columns {
			c, err := describeColumn(schema, i)
			if err != nil {
				return nil, err
			}
			columns[i] = c
		}
		return columns, nil
	}

	var indices []int
	for _, name := range names {
		idx, err := findColumn(schema, name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(indices, idx) {
			indices = append(indices, idx)
		}
	}

	columns := make([]column, len(indices))
	for i, idx := range indices {
		c, err := describeColumn(schema, idx)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}
	return columns, nil
}

func findColumn(schema *arrow.Schema, name string) (int, error) {
	if indices := schema.FieldIndices(name); len(indices) > 0 {
		return indices[0], nil
	}
	if attr, ok := domain.ReservedAttribute(name); ok {
		for i, field := range schema.Fields() {
			idx := field.Metadata.FindKey(AttributeKey)
			if idx < 0 {
				continue
			}
			if a, _ := domain.ReservedAttribute(field.Metadata.Values()[idx]); a == attr {
				return i, nil
			}
		}
	}
	return 0, zerr.With(zerr.Wrap(domain.ErrFieldNotFound, "snapshot has no such column"), "field", name)
}

// appendColumn appends the tuples of col to dst. Null slots read as NaN.
func appendColumn(dst []float64, col arrow.Array, k int) []float64 {
	switch col := col.(type) {
	case *array.Float64:
		for j := range col.Len() {
			if col.IsNull(j) {
				dst = append(dst, math.NaN())
				continue
			}
			dst = append(dst, col.Value(j))
		}
	case *array.FixedSizeList:
		values, _ := col.ListValues().(*array.Float64)
		offset := col.Data().Offset()
		for j := range col.Len() {
			start := (offset + j) * k
			for c := range k {
				if values == nil || col.IsNull(j) || values.IsNull(start+c) {
					dst = append(dst, math.NaN())
					continue
				}
				dst = append(dst, values.Value(start+c))
			}
		}
	}
	return dst
}

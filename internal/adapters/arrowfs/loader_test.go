package arrowfs_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pathline/internal/adapters/arrowfs"
	"go.trai.ch/pathline/internal/core/domain"
)

func grid() *domain.ImageGrid {
	return &domain.ImageGrid{Spacing: [3]float64{1, 1, 1}, Dims: [3]int{2, 2, 1}}
}

func snapshot(t *testing.T, g domain.Geometry, shift float64) *domain.Snapshot {
	t.Helper()
	n := g.NumPoints()

	pressure := make([]float64, n)
	velocity := make([]float64, 0, 3*n)
	for i := range n {
		pressure[i] = float64(i) + shift
		velocity = append(velocity, 1+shift, float64(i), 0)
	}

	p, err := domain.NewField("pressure", 1, pressure)
	require.NoError(t, err)
	p.Attribute = domain.AttributeScalars
	v, err := domain.NewField("velocity", 3, velocity)
	require.NoError(t, err)
	v.Attribute = domain.AttributeVectors

	s, err := domain.NewSnapshot(g, p, v)
	require.NoError(t, err)
	return s
}

func writeRun(t *testing.T, g domain.Geometry, opts ...arrowfs.WriteOption) (*domain.Run, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, arrowfs.WriteSnapshotFile(filepath.Join(dir, "s0.arrow"), snapshot(t, g, 0), opts...))
	return &domain.Run{Root: dir}, dir
}

func TestLoader_Load_RoundTrip(t *testing.T) {
	run, _ := writeRun(t, grid())
	loader, err := arrowfs.NewFactory().NewLoader(run)
	require.NoError(t, err)

	snap, err := loader.Load(context.Background(), "s0.arrow", nil)
	require.NoError(t, err)

	assert.True(t, domain.SameGeometry(grid(), snap.Geometry))
	require.Len(t, snap.Fields, 2)

	p, err := snap.Field("scalars")
	require.NoError(t, err)
	assert.Equal(t, "pressure", p.Name)
	assert.Equal(t, []float64{0, 1, 2, 3}, p.Values)

	v, err := snap.Field("velocity")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Components)
	assert.Equal(t, domain.AttributeVectors, v.Attribute)
	assert.Equal(t, []float64{1, 2, 0}, v.Tuple(2))
}

func TestLoader_Load_SelectsRequestedFields(t *testing.T) {
	run, _ := writeRun(t, grid())
	loader := arrowfs.NewLoader(run, nil)

	snap, err := loader.Load(context.Background(), "s0.arrow", []string{"Vectors", "velocity"})
	require.NoError(t, err)
	require.Len(t, snap.Fields, 1)
	assert.Equal(t, "velocity", snap.Fields[0].Name)

	_, err = loader.Load(context.Background(), "s0.arrow", []string{"temperature"})
	require.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestLoader_Load_GeometryFromRun(t *testing.T) {
	run, _ := writeRun(t, grid(), arrowfs.WithoutGeometry())

	_, err := arrowfs.NewLoader(run, nil).Load(context.Background(), "s0.arrow", nil)
	require.ErrorIs(t, err, domain.ErrInvalidGeometry)

	run.Geometry = grid()
	snap, err := arrowfs.NewLoader(run, nil).Load(context.Background(), "s0.arrow", nil)
	require.NoError(t, err)
	assert.Same(t, run.Geometry, snap.Geometry)
}

func TestLoader_Load_ReusesDecodedGeometry(t *testing.T) {
	run, dir := writeRun(t, grid())
	require.NoError(t, arrowfs.WriteSnapshotFile(filepath.Join(dir, "s1.arrow"), snapshot(t, grid(), 1)))
	loader := arrowfs.NewLoader(run, nil)

	a, err := loader.Load(context.Background(), "s0.arrow", nil)
	require.NoError(t, err)
	b, err := loader.Load(context.Background(), "s1.arrow", nil)
	require.NoError(t, err)
	assert.Same(t, a.Geometry, b.Geometry)
}

func TestLoader_Load_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	small := grid()
	require.NoError(t, arrowfs.WriteSnapshotFile(filepath.Join(dir, "s0.arrow"), snapshot(t, small, 0), arrowfs.WithoutGeometry()))

	run := &domain.Run{Root: dir, Geometry: &domain.ImageGrid{Spacing: [3]float64{1, 1, 1}, Dims: [3]int{3, 3, 1}}}
	_, err := arrowfs.NewLoader(run, nil).Load(context.Background(), "s0.arrow", nil)
	require.ErrorIs(t, err, domain.ErrFieldSizeMismatch)
}

func TestLoader_Load_Failures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.arrow"), []byte("not arrow"), 0o600))
	loader := arrowfs.NewLoader(&domain.Run{Root: dir, Geometry: grid()}, nil)

	_, err := loader.Load(context.Background(), "missing.arrow", nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = loader.Load(context.Background(), "garbage.arrow", nil)
	require.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, "garbage.arrow", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteSnapshot_PreservesNaN(t *testing.T) {
	g := grid()
	f, err := domain.NewField("pressure", 1, []float64{0, math.NaN(), 2, 3})
	require.NoError(t, err)
	s, err := domain.NewSnapshot(g, f)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, arrowfs.WriteSnapshotFile(filepath.Join(dir, "nan.arrow"), s))
	snap, err := arrowfs.NewLoader(&domain.Run{Root: dir}, nil).Load(context.Background(), "nan.arrow", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(snap.Fields[0].Values[1]))
	assert.InDelta(t, 3.0, snap.Fields[0].Values[3], 0)
}

func TestFactory_NewLoader_NilRun(t *testing.T) {
	_, err := arrowfs.NewFactory().NewLoader(nil)
	require.Error(t, err)
}

func TestWriteSnapshot_ToOpenFile(t *testing.T) {
	g := grid()
	f, err := domain.NewField("pressure", 1, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	s, err := domain.NewSnapshot(g, f)
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "open.arrow"))
	require.NoError(t, err)
	require.NoError(t, arrowfs.WriteSnapshot(out, s, arrowfs.WithoutGeometry()))
	require.NoError(t, out.Close())

	snap, err := arrowfs.NewLoader(&domain.Run{Root: dir, Geometry: g}, nil).Load(context.Background(), "open.arrow", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 3, 2, 1}, snap.Fields[0].Values)
}

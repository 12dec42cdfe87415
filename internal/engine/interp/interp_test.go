package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/engine/interp"
)

func TestInterpolate_Components(t *testing.T) {
	loc := domain.Location{Cell: 0, Points: []int{0, 2}, Weights: []float64{0.25, 0.75}}

	scalar, err := domain.NewField("p", 1, []float64{4, 100, 8})
	require.NoError(t, err)
	assert.Equal(t, domain.Value{7}, interp.Interpolate(loc, scalar))

	vector, err := domain.NewField("v", 3, []float64{
		0, 4, 8,
		9, 9, 9,
		4, 8, 0,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Value{3, 7, 2}, interp.Interpolate(loc, vector))

	tensor := make([]float64, 27)
	for i := range tensor {
		tensor[i] = float64(i % 9)
	}
	tf, err := domain.NewField("t", 9, tensor)
	require.NoError(t, err)
	got := interp.Interpolate(loc, tf)
	require.Len(t, got, 9)
	for c := range 9 {
		assert.InDelta(t, float64(c), got[c], 1e-12)
	}
}

func TestInterpolateAll_PreservesOrder(t *testing.T) {
	loc := domain.Location{Points: []int{1}, Weights: []float64{1}}
	a, _ := domain.NewField("a", 1, []float64{1, 2})
	b, _ := domain.NewField("b", 2, []float64{3, 4, 5, 6})

	got := interp.InterpolateAll(loc, []*domain.Field{b, a})
	assert.Equal(t, []domain.Value{{5, 6}, {2}}, got)
}

func TestBlend(t *testing.T) {
	a := domain.Value{0.1, 0.2}
	b := domain.Value{0.7, -0.3}

	at0 := interp.Blend(a, b, 0)
	assert.Equal(t, a, at0)
	at0[0] = 42
	assert.InDelta(t, 0.1, a[0], 0, "blend returns a copy")

	assert.Equal(t, b, interp.Blend(a, b, 1))

	mid := interp.Blend(a, b, 0.5)
	assert.InDelta(t, 0.4, mid[0], 1e-15)
	assert.InDelta(t, -0.05, mid[1], 1e-15)
}

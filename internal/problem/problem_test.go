package problem

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/paretoswarm/internal/moo"
)

func TestLoad(t *testing.T) {
	p, err := Load("ZDT4", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "ZDT4", p.Name())
	assert.Equal(t, 10, p.NumberOfVariables())
	assert.Equal(t, 2, p.NumberOfObjectives())
	assert.Equal(t, 0.0, p.LowerBound(0))
	assert.Equal(t, 1.0, p.UpperBound(0))
	assert.Equal(t, -5.0, p.LowerBound(3))
	assert.Equal(t, 5.0, p.UpperBound(3))

	p, err = Load(" dtlz2 ", 12, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumberOfObjectives())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name       string
		problem    string
		vars, objs int
	}{
		{"unknown", "nope", 0, 0},
		{"zdt objectives fixed", "zdt1", 30, 3},
		{"too few variables", "dtlz1", 2, 3},
		{"single objective", "dtlz2", 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.problem, tt.vars, tt.objs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, moo.ErrConfiguration))
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dtlz1", "dtlz2", "zdt1", "zdt2", "zdt3", "zdt4", "zdt6"}, Names())
}

func TestZDT1_OptimalFront(t *testing.T) {
	p := NewZDT1(30)
	x := make([]float64, 30)
	x[0] = 0.25
	f, err := p.Evaluate(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f[0], 1e-12)
	assert.InDelta(t, 0.5, f[1], 1e-12)
}

func TestZDT4_OptimalFront(t *testing.T) {
	p := NewZDT4(10)
	x := make([]float64, 10)
	x[0] = 0.64
	f, err := p.Evaluate(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.64, f[0], 1e-12)
	assert.InDelta(t, 0.2, f[1], 1e-12)
}

func TestEvaluate_RejectsBadInput(t *testing.T) {
	p := NewZDT2(5)
	_, err := p.Evaluate([]float64{0, 0})
	assert.True(t, errors.Is(err, moo.ErrDimensionMismatch))

	_, err = p.Evaluate([]float64{math.NaN(), 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestTrueFronts(t *testing.T) {
	for _, name := range []string{"zdt1", "zdt2", "zdt3", "zdt4", "zdt6"} {
		p, err := Load(name, 0, 0)
		require.NoError(t, err)
		front := p.TrueFront(100)
		require.NotEmpty(t, front, name)
		for i := range front {
			for j := range front {
				require.False(t, moo.Dominates(front[i], front[j]), "%s front point %v dominates %v", name, front[i], front[j])
			}
		}
	}

	d1, err := Load("dtlz1", 6, 2)
	require.NoError(t, err)
	for _, pt := range d1.TrueFront(10) {
		assert.InDelta(t, 0.5, pt[0]+pt[1], 1e-12)
	}

	d2, err := Load("dtlz2", 11, 2)
	require.NoError(t, err)
	for _, pt := range d2.TrueFront(10) {
		assert.InDelta(t, 1.0, pt[0]*pt[0]+pt[1]*pt[1], 1e-12)
	}
	assert.Nil(t, NewDTLZ2(12, 3).TrueFront(10))
}

func TestDTLZ2_OnFront(t *testing.T) {
	p := NewDTLZ2(12, 3)
	x := make([]float64, 12)
	for i := range x {
		x[i] = 0.5
	}
	f, err := p.Evaluate(x)
	require.NoError(t, err)
	sum := 0.0
	for _, v := range f {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestNadirAndReferencePoint(t *testing.T) {
	zdt1, err := Load("zdt1", 0, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1}, zdt1.Nadir(), 1e-9)
	assert.InDeltaSlice(t, []float64{1.1, 1.1}, ReferencePoint(zdt1, 0.1), 1e-9)

	zdt3 := NewZDT3(30).Nadir()
	assert.Less(t, zdt3[0], 1.0)
	assert.InDelta(t, 1.0, zdt3[1], 1e-9)

	assert.Equal(t, []float64{0.5, 0.5, 0.5}, NewDTLZ1(7, 3).Nadir())
	assert.Equal(t, []float64{2, 2, 2, 2}, ReferencePoint(NewDTLZ2(13, 4), 1))
}

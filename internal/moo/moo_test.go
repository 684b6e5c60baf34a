package moo

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want Relation
	}{
		{"first better everywhere", []float64{1, 1}, []float64{2, 2}, FirstDominates},
		{"first better in one equal in other", []float64{1, 2}, []float64{2, 2}, FirstDominates},
		{"second dominates", []float64{3, 2}, []float64{2, 2}, SecondDominates},
		{"trade-off", []float64{1, 3}, []float64{3, 1}, NonDominated},
		{"identical", []float64{1, 1}, []float64{1, 1}, NonDominated},
		{"three objectives", []float64{0, 0, 1}, []float64{0, 0, 2}, FirstDominates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_DimensionMismatch(t *testing.T) {
	_, err := Compare([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var dm *DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
	assert.False(t, Dominates([]float64{0}, []float64{1, 1}))
}

func TestCompare_Antisymmetric(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		a := []float64{float64(rng.IntN(4)), float64(rng.IntN(4)), float64(rng.IntN(4))}
		b := []float64{float64(rng.IntN(4)), float64(rng.IntN(4)), float64(rng.IntN(4))}

		ab, err := Compare(a, b)
		require.NoError(t, err)
		ba, err := Compare(b, a)
		require.NoError(t, err)

		switch ab {
		case FirstDominates:
			assert.Equal(t, SecondDominates, ba, "a=%v b=%v", a, b)
		case SecondDominates:
			assert.Equal(t, FirstDominates, ba, "a=%v b=%v", a, b)
		default:
			assert.Equal(t, NonDominated, ba, "a=%v b=%v", a, b)
		}

		self, err := Compare(a, append([]float64(nil), a...))
		require.NoError(t, err)
		assert.Equal(t, NonDominated, self)
	}
}

func TestSolution_CloneIsIndependent(t *testing.T) {
	s := NewSolution([]float64{0.1, 0.2}, 2)
	s.Objectives[0] = 5
	c := s.Clone()
	c.Variables[0] = 9
	c.Objectives[0] = 9

	assert.Equal(t, 0.1, s.Variables[0])
	assert.Equal(t, 5.0, s.Objectives[0])
	assert.True(t, s.SameVariables(NewSolution([]float64{0.1, 0.2}, 2)))
	assert.False(t, s.SameVariables(c))
}

type sumProblem struct {
	objectives int
	fail       bool
}

func (p sumProblem) Name() string { return "sum" }
func (p sumProblem) NumberOfVariables() int { return 2 }
func (p sumProblem) NumberOfObjectives() int { return 2 }
func (p sumProblem) LowerBound(int) float64 { return 0 }
func (p sumProblem) UpperBound(int) float64 { return 1 }
func (p sumProblem) Evaluate(x []float64) ([]float64, error) {
	if p.fail {
		return nil, fmt.Errorf("boom")
	}
	out := make([]float64, p.objectives)
	for i := range out {
		out[i] = x[0] + x[1]
	}
	return out, nil
}

func TestEvaluate(t *testing.T) {
	s := NewSolution([]float64{0.25, 0.5}, 2)
	require.False(t, s.Evaluated())
	require.NoError(t, Evaluate(sumProblem{objectives: 2}, s))
	assert.True(t, s.Evaluated())
	assert.Equal(t, []float64{0.75, 0.75}, s.Objectives)

	s.Invalidate()
	assert.False(t, s.Evaluated())
}

func TestEvaluate_Errors(t *testing.T) {
	err := Evaluate(sumProblem{objectives: 2, fail: true}, NewSolution([]float64{0, 0}, 2))
	assert.True(t, errors.Is(err, ErrEvaluation))
	assert.Contains(t, err.Error(), "boom")

	err = Evaluate(sumProblem{objectives: 3}, NewSolution([]float64{0, 0}, 2))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	err = Evaluate(sumProblem{objectives: 2}, NewSolution([]float64{0}, 2))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s := NewSolution([]float64{0, 0}, 2)
		err = Evaluate(constProblem{sumProblem{objectives: 2}, []float64{1, bad}}, s)
		assert.True(t, errors.Is(err, ErrEvaluation), "objective %g", bad)
		assert.False(t, s.Evaluated())
	}
}

// constProblem returns fixed objective values.
type constProblem struct {
	sumProblem
	values []float64
}

func (p constProblem) Evaluate([]float64) ([]float64, error) {
	return p.values, nil
}

type badBounds struct{ sumProblem }

func (badBounds) LowerBound(int) float64 { return 2 }

func TestValidateProblem(t *testing.T) {
	require.NoError(t, ValidateProblem(sumProblem{objectives: 2}))

	err := ValidateProblem(badBounds{sumProblem{objectives: 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	assert.True(t, errors.Is(ValidateProblem(nil), ErrConfiguration))
}

package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population mayfly accepts.
const MinPopulation = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface.
//
// Mayfly only takes scalar bounds, so the search runs on the unit cube and every
// candidate is mapped onto the per-dimension box before evaluation.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. popSize is raised to MinPopulation.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	if popSize < MinPopulation {
		popSize = MinPopulation
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if len(lower) == 0 || len(lower) != len(upper) {
		return nil, 0, fmt.Errorf("mayfly: bounds must be non-empty and of equal length, got %d and %d", len(lower), len(upper))
	}
	dim := len(lower)
	scratch := make([]float64, dim)

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		return eval(fromUnit(u, lower, upper, scratch))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}

	best := fromUnit(result.GlobalBest.Position, lower, upper, make([]float64, dim))
	return best, result.GlobalBest.Cost, nil
}

// fromUnit maps u from [0,1]^n onto the box, clamping stray components.
func fromUnit(u, lower, upper, dst []float64) []float64 {
	for i := range dst {
		t := u[i]
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		dst[i] = lower[i] + t*(upper[i]-lower[i])
	}
	return dst
}

// Package random provides the seeded, reproducible generator shared by every
// stochastic component of a run.
package random

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

// Source is the random generator contract consumed by the optimizer.
type Source interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// Between returns a uniform draw in [low, high).
	Between(low, high float64) float64
	// IntBetween returns a uniform integer in [low, high], both inclusive.
	IntBetween(low, high int) int
	// Seed returns the seed the generator was created with.
	Seed() uint64
}

// Generator is a Mersenne Twister (MT19937) backed Source.
// A Generator is not safe for concurrent use; one instance belongs to one run.
type Generator struct {
	rng  *rand.Rand
	seed uint64
}

var _ Source = (*Generator)(nil)

// New creates a generator with an explicit seed.
func New(seed uint64) *Generator {
	mt := prng.NewMT19937()
	mt.Seed(seed)
	return &Generator{
		rng:  rand.New(mt),
		seed: seed,
	}
}

// NewAuto creates a generator seeded from the wall clock. Use Seed to report it.
func NewAuto() *Generator {
	return New(AutoSeed())
}

// AutoSeed returns a non-zero seed derived from the current time.
func AutoSeed() uint64 {
	s := uint64(time.Now().UnixNano())
	if s == 0 {
		s = 1
	}
	return s
}

func (g *Generator) Float64() float64 {
	return g.rng.Float64()
}

func (g *Generator) Between(low, high float64) float64 {
	return low + g.rng.Float64()*(high-low)
}

func (g *Generator) IntBetween(low, high int) int {
	if high <= low {
		return low
	}
	return low + g.rng.IntN(high-low+1)
}

func (g *Generator) Seed() uint64 {
	return g.seed
}

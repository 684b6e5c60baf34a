package smpso

import (
	"math"

	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/mutation"
)

// UpdateMode controls when evaluated particles reach the archive.
type UpdateMode string

const (
	// UpdateAsync inserts each particle into the archive right after it is
	// evaluated, so later particles of the same generation can follow it.
	UpdateAsync UpdateMode = "async"
	// UpdateSync moves the whole swarm against the archive as it was at the start
	// of the generation and inserts afterwards.
	UpdateSync UpdateMode = "sync"
)

// TieRule decides what happens to a personal best when the new position and the
// old best are mutually non-dominated.
type TieRule string

const (
	TieKeep    TieRule = "keep"    // first-found best is preserved
	TieReplace TieRule = "replace" // the newer position wins
	TieRandom  TieRule = "random"  // fair coin
)

// LeaderKind names one of the built-in leader selectors.
type LeaderKind string

const (
	LeaderUniform     LeaderKind = "uniform"
	LeaderCrowding    LeaderKind = "crowding"
	LeaderHypervolume LeaderKind = "hypervolume"
)

// MutationEvery is the default mutation period: every 6th particle of the swarm.
const MutationEvery = 6

// Config holds every tunable of a run. Build it with DefaultConfig and override
// fields; New validates it and never fills in missing values.
type Config struct {
	SwarmSize   int `json:"swarmSize"`
	ArchiveSize int `json:"archiveSize"`

	// MaxIterations is the number of generations run after initialization, so
	// a full run makes SwarmSize*(MaxIterations+1) evaluations. Initialization
	// is not counted as an iteration.
	MaxIterations int `json:"maxIterations"`

	C1            float64 `json:"c1"`
	C2            float64 `json:"c2"`
	InertiaWeight float64 `json:"inertiaWeight"`

	// InitialVelocityFraction scales the initial velocity range relative to each
	// variable's span. 0 starts every particle at rest.
	InitialVelocityFraction float64 `json:"initialVelocityFraction"`

	DistributionIndex   float64 `json:"distributionIndex"`
	MutationProbability float64 `json:"mutationProbability"`
	MutationEvery       int     `json:"mutationEvery"`

	Update            UpdateMode `json:"update"`
	Tie               TieRule    `json:"tie"`
	Leader            LeaderKind `json:"leader"`
	HypervolumeOffset float64    `json:"hypervolumeOffset"`

	// Seed of the run's generator. 0 picks one from the clock.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the standard SMPSO setup for a problem with numVars
// decision variables.
func DefaultConfig(numVars int) Config {
	pm := 1.0
	if numVars > 0 {
		pm = 1.0 / float64(numVars)
	}
	return Config{
		SwarmSize:           100,
		ArchiveSize:         100,
		MaxIterations:       250,
		C1:                  2.05,
		C2:                  2.05,
		InertiaWeight:       1.0,
		DistributionIndex:   mutation.DefaultDistributionIndex,
		MutationProbability: pm,
		MutationEvery:       MutationEvery,
		Update:              UpdateAsync,
		Tie:                 TieKeep,
		Leader:              LeaderUniform,
		HypervolumeOffset:   1.0,
	}
}

// Validate returns a *moo.ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.SwarmSize <= 0:
		return &moo.ConfigurationError{Field: "SwarmSize", Reason: "must be positive"}
	case c.ArchiveSize <= 0:
		return &moo.ConfigurationError{Field: "ArchiveSize", Reason: "must be positive"}
	case c.MaxIterations <= 0:
		return &moo.ConfigurationError{Field: "MaxIterations", Reason: "must be positive"}
	case !finite(c.C1) || c.C1 < 0:
		return &moo.ConfigurationError{Field: "C1", Reason: "must be a non-negative number"}
	case !finite(c.C2) || c.C2 < 0:
		return &moo.ConfigurationError{Field: "C2", Reason: "must be a non-negative number"}
	case !finite(c.InertiaWeight):
		return &moo.ConfigurationError{Field: "InertiaWeight", Reason: "must be finite"}
	case !finite(c.InitialVelocityFraction) || c.InitialVelocityFraction < 0 || c.InitialVelocityFraction > 1:
		return &moo.ConfigurationError{Field: "InitialVelocityFraction", Reason: "must be in [0, 1]"}
	case !finite(c.DistributionIndex) || c.DistributionIndex < 0:
		return &moo.ConfigurationError{Field: "DistributionIndex", Reason: "must be a non-negative number"}
	case !(c.MutationProbability >= 0 && c.MutationProbability <= 1):
		return &moo.ConfigurationError{Field: "MutationProbability", Reason: "must be in [0, 1]"}
	case c.MutationEvery < 0:
		return &moo.ConfigurationError{Field: "MutationEvery", Reason: "must not be negative"}
	case !finite(c.HypervolumeOffset) || c.HypervolumeOffset < 0:
		return &moo.ConfigurationError{Field: "HypervolumeOffset", Reason: "must be a non-negative number"}
	}

	switch c.Update {
	case UpdateAsync, UpdateSync:
	default:
		return &moo.ConfigurationError{Field: "Update", Reason: "must be async or sync, got " + string(c.Update)}
	}
	switch c.Tie {
	case TieKeep, TieReplace, TieRandom:
	default:
		return &moo.ConfigurationError{Field: "Tie", Reason: "must be keep, replace or random, got " + string(c.Tie)}
	}
	switch c.Leader {
	case LeaderUniform, LeaderCrowding, LeaderHypervolume:
	default:
		return &moo.ConfigurationError{Field: "Leader", Reason: "must be uniform, crowding or hypervolume, got " + string(c.Leader)}
	}
	return nil
}

// ConstrictionCoefficient returns Clerc's constriction factor for c1 + c2.
// Sums up to 4 leave velocities unscaled.
func ConstrictionCoefficient(c1, c2 float64) float64 {
	rho := c1 + c2
	if rho <= 4 {
		return 1.0
	}
	return 2.0 / math.Abs(2.0-rho-math.Sqrt(rho*rho-4.0*rho))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

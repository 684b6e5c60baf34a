package smpso

import (
	"github.com/cwbudde/paretoswarm/internal/archive"
	"github.com/cwbudde/paretoswarm/internal/indicator"
	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/random"
)

// LeaderSelector picks the archive member that guides a particle's velocity
// update. Select returns nil when the archive is empty; the engine then uses the
// particle's personal best.
type LeaderSelector interface {
	Select(rng random.Source, a *archive.CrowdingDistance) *moo.Solution
}

// NewLeaderSelector returns the built-in selector for kind.
func NewLeaderSelector(kind LeaderKind, hypervolumeOffset float64) (LeaderSelector, error) {
	switch kind {
	case LeaderUniform:
		return UniformSelector{}, nil
	case LeaderCrowding:
		return CrowdingTournamentSelector{}, nil
	case LeaderHypervolume:
		return &HypervolumeSelector{Offset: hypervolumeOffset}, nil
	default:
		return nil, &moo.ConfigurationError{Field: "Leader", Reason: "unknown selector " + string(kind)}
	}
}

// UniformSelector draws a member uniformly at random.
type UniformSelector struct{}

func (UniformSelector) Select(rng random.Source, a *archive.CrowdingDistance) *moo.Solution {
	if a.Len() == 0 {
		return nil
	}
	return a.At(rng.IntBetween(0, a.Len()-1))
}

// CrowdingTournamentSelector runs a binary tournament; the less crowded member wins.
type CrowdingTournamentSelector struct{}

func (CrowdingTournamentSelector) Select(rng random.Source, a *archive.CrowdingDistance) *moo.Solution {
	if a.Len() == 0 {
		return nil
	}
	i, j := tournament(rng, a.Len())
	if a.Distance(j) > a.Distance(i) {
		i = j
	}
	return a.At(i)
}

// HypervolumeSelector runs a binary tournament on each member's exclusive
// hypervolume contribution. The reference point is the archive's nadir point
// shifted by Offset in every objective.
//
// Contributions are cached per archive version. A HypervolumeSelector belongs to
// a single engine.
type HypervolumeSelector struct {
	Offset float64

	owner         *archive.CrowdingDistance
	version       uint64
	contributions []float64
}

func (h *HypervolumeSelector) Select(rng random.Source, a *archive.CrowdingDistance) *moo.Solution {
	if a.Len() == 0 {
		return nil
	}
	if h.owner != a || h.version != a.Version() || len(h.contributions) != a.Len() {
		points := make([][]float64, a.Len())
		for i := range points {
			points[i] = a.At(i).Objectives
		}
		h.contributions = indicator.Contributions(points, indicator.NadirReference(points, h.Offset))
		h.owner = a
		h.version = a.Version()
	}
	i, j := tournament(rng, a.Len())
	if h.contributions[j] > h.contributions[i] {
		i = j
	}
	return a.At(i)
}

// tournament draws two indices in [0, n). They are distinct whenever n > 1.
func tournament(rng random.Source, n int) (int, int) {
	i := rng.IntBetween(0, n-1)
	if n == 1 {
		return i, i
	}
	j := rng.IntBetween(0, n-2)
	if j >= i {
		j++
	}
	return i, j
}

// Package archive keeps the bounded set of non-dominated solutions found during a run.
package archive

import (
	"errors"

	"github.com/cwbudde/paretoswarm/internal/moo"
)

// ErrUnevaluated is returned when a solution without valid objectives is offered.
var ErrUnevaluated = errors.New("archive: solution has not been evaluated")

// CrowdingDistance is a bounded archive of mutually non-dominated solutions.
// When it grows past capacity the member with the smallest crowding distance is
// dropped, so pruning keeps spread rather than age.
//
// Invariants after every call: no member dominates another, Len() <= Capacity().
// Crowding distances live in a side table aligned with the member order and are
// recomputed whenever membership changes.
//
// A CrowdingDistance is not safe for concurrent use.
type CrowdingDistance struct {
	capacity  int
	members   []*moo.Solution
	distances []float64
	version   uint64
}

// NewCrowdingDistance creates an empty archive holding at most capacity solutions.
func NewCrowdingDistance(capacity int) (*CrowdingDistance, error) {
	if capacity <= 0 {
		return nil, &moo.ConfigurationError{Field: "ArchiveSize", Reason: "must be positive"}
	}
	return &CrowdingDistance{
		capacity: capacity,
		members:  make([]*moo.Solution, 0, capacity+1),
	}, nil
}

// Add offers a copy of s to the archive and reports whether it was kept.
//
// s is rejected if any member dominates it or has bitwise equal variables. Members
// dominated by s are removed. If the archive then exceeds capacity, the most crowded
// members are removed until it fits again.
func (a *CrowdingDistance) Add(s *moo.Solution) (bool, error) {
	if !s.Evaluated() {
		return false, ErrUnevaluated
	}

	var dominated []int
	for i, m := range a.members {
		rel, err := moo.CompareSolutions(s, m)
		if err != nil {
			return false, err
		}
		switch rel {
		case moo.SecondDominates:
			return false, nil
		case moo.FirstDominates:
			dominated = append(dominated, i)
		default:
			if s.SameVariables(m) {
				return false, nil
			}
		}
	}

	if len(dominated) > 0 {
		kept := a.members[:0]
		next := 0
		for i, m := range a.members {
			if next < len(dominated) && dominated[next] == i {
				next++
				continue
			}
			kept = append(kept, m)
		}
		for i := len(kept); i < len(a.members); i++ {
			a.members[i] = nil
		}
		a.members = kept
	}

	a.members = append(a.members, s.Clone())
	a.ComputeCrowdingDistances()

	// Members never exceed capacity before an insertion, so one removal restores it.
	if len(a.members) > a.capacity {
		worst := a.mostCrowded()
		a.remove(worst)
		a.ComputeCrowdingDistances()
		if worst == len(a.members) {
			// The newcomer itself was the most crowded member.
			return false, nil
		}
	}
	return true, nil
}

// ComputeCrowdingDistances recomputes the crowding distance side table from scratch.
func (a *CrowdingDistance) ComputeCrowdingDistances() {
	points := make([][]float64, len(a.members))
	for i, m := range a.members {
		points[i] = m.Objectives
	}
	a.distances = CrowdingDistances(points)
	a.version++
}

// Version changes every time membership changes. Callers use it to cache values
// derived from the member set.
func (a *CrowdingDistance) Version() uint64 {
	return a.version
}

// Get returns copies of the current members in archive order.
func (a *CrowdingDistance) Get() []*moo.Solution {
	out := make([]*moo.Solution, len(a.members))
	for i, m := range a.members {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of members.
func (a *CrowdingDistance) Len() int {
	return len(a.members)
}

// Capacity returns the maximum number of members.
func (a *CrowdingDistance) Capacity() int {
	return a.capacity
}

// At returns member i without copying. Callers must not modify it.
func (a *CrowdingDistance) At(i int) *moo.Solution {
	return a.members[i]
}

// Distance returns the crowding distance of member i.
func (a *CrowdingDistance) Distance(i int) float64 {
	return a.distances[i]
}

// mostCrowded returns the index of the smallest crowding distance; the first one wins ties.
func (a *CrowdingDistance) mostCrowded() int {
	worst := 0
	for i := 1; i < len(a.distances); i++ {
		if a.distances[i] < a.distances[worst] {
			worst = i
		}
	}
	return worst
}

func (a *CrowdingDistance) remove(i int) {
	copy(a.members[i:], a.members[i+1:])
	a.members[len(a.members)-1] = nil
	a.members = a.members[:len(a.members)-1]
}

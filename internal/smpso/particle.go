package smpso

import (
	"github.com/cwbudde/paretoswarm/internal/moo"
)

// Particle is one swarm member. Position and Best are owned by the particle.
type Particle struct {
	Position *moo.Solution
	Velocity []float64
	Best     *moo.Solution
}

// move applies the constricted velocity update and moves the particle, repairing
// any component that leaves the box by clamping it and inverting its velocity.
func (e *Engine) move(p *Particle, leader *moo.Solution) {
	r1 := e.rng.Float64()
	r2 := e.rng.Float64()
	x := p.Position.Variables
	best := p.Best.Variables
	guide := leader.Variables

	for j := range x {
		v := e.chi * (e.cfg.InertiaWeight*p.Velocity[j] +
			e.cfg.C1*r1*(best[j]-x[j]) +
			e.cfg.C2*r2*(guide[j]-x[j]))
		v = moo.Clamp(v, -e.deltaMax[j], e.deltaMax[j])

		next := x[j] + v
		lo, hi := e.problem.LowerBound(j), e.problem.UpperBound(j)
		if next < lo {
			next = lo
			v = -v
		} else if next > hi {
			next = hi
			v = -v
		}
		x[j] = next
		p.Velocity[j] = v
	}
	p.Position.Invalidate()
}

// updateBest replaces the personal best when the new position dominates it, and
// applies the tie rule when neither dominates.
func (e *Engine) updateBest(p *Particle) error {
	rel, err := moo.CompareSolutions(p.Position, p.Best)
	if err != nil {
		return err
	}
	switch rel {
	case moo.FirstDominates:
		p.Best.CopyFrom(p.Position)
	case moo.NonDominated:
		switch e.cfg.Tie {
		case TieReplace:
			p.Best.CopyFrom(p.Position)
		case TieRandom:
			if e.rng.Float64() < 0.5 {
				p.Best.CopyFrom(p.Position)
			}
		}
	}
	return nil
}

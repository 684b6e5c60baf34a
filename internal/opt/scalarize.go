package opt

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/paretoswarm/internal/archive"
	"github.com/cwbudde/paretoswarm/internal/moo"
)

// Weights returns at least k weight vectors on the unit simplex in m dimensions.
// For two objectives exactly k evenly spaced vectors are returned; otherwise the
// smallest simplex lattice with k or more points.
func Weights(m, k int) [][]float64 {
	if m < 1 || k < 1 {
		return nil
	}
	if m == 1 {
		return [][]float64{{1}}
	}
	if m == 2 {
		if k == 1 {
			return [][]float64{{0.5, 0.5}}
		}
		out := make([][]float64, k)
		for i := range out {
			w := float64(i) / float64(k-1)
			out[i] = []float64{w, 1 - w}
		}
		return out
	}
	h := 1
	for latticeSize(m, h) < k {
		h++
	}
	return SimplexLattice(m, h)
}

// SimplexLattice enumerates all weight vectors with components in {0, 1/h, ..., 1}
// summing to one.
func SimplexLattice(m, h int) [][]float64 {
	var out [][]float64
	current := make([]int, m)
	var rec func(dim, left int)
	rec = func(dim, left int) {
		if dim == m-1 {
			current[dim] = left
			w := make([]float64, m)
			for i, c := range current {
				w[i] = float64(c) / float64(h)
			}
			out = append(out, w)
			return
		}
		for c := 0; c <= left; c++ {
			current[dim] = c
			rec(dim+1, left-c)
		}
	}
	rec(0, h)
	return out
}

// latticeSize is C(h+m-1, m-1).
func latticeSize(m, h int) int {
	n := 1
	for i := 1; i < m; i++ {
		n = n * (h + i) / i
	}
	return n
}

// WeightedSumFront minimizes the weighted sum of p's objectives once per weight
// vector and returns the non-dominated results, pruned to capacity.
//
// Weighted sums can only reach the convex parts of a front; the result is a
// baseline, not a substitute for a Pareto search.
func WeightedSumFront(p moo.Problem, weights [][]float64, o Optimizer, capacity int) ([]*moo.Solution, error) {
	if err := moo.ValidateProblem(p); err != nil {
		return nil, err
	}
	front, err := archive.NewCrowdingDistance(capacity)
	if err != nil {
		return nil, err
	}

	n := p.NumberOfVariables()
	m := p.NumberOfObjectives()
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = p.LowerBound(i)
		upper[i] = p.UpperBound(i)
	}

	for wi, w := range weights {
		if len(w) != m {
			return nil, &moo.DimensionMismatchError{What: "weights", Expected: m, Actual: len(w)}
		}

		var evalErr error
		scalar := func(x []float64) float64 {
			if evalErr != nil {
				return math.Inf(1)
			}
			f, err := p.Evaluate(x)
			if err != nil {
				evalErr = &moo.EvaluationError{Problem: p.Name(), Err: err}
				return math.Inf(1)
			}
			sum := 0.0
			for j, v := range f {
				sum += w[j] * v
			}
			return sum
		}

		best, cost, err := o.Run(scalar, lower, upper)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", wi, err)
		}
		if evalErr != nil {
			return nil, evalErr
		}

		s := moo.NewSolution(best, m)
		if err := moo.Evaluate(p, s); err != nil {
			return nil, err
		}
		added, err := front.Add(s)
		if err != nil {
			return nil, err
		}
		slog.Debug("weighted sum solved", "weight", wi, "cost", cost, "kept", added)
	}
	return front.Get(), nil
}

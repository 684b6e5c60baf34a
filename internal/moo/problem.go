package moo

import (
	"fmt"
	"math"
)

// Bounds exposes the box constraints of a continuous decision space.
type Bounds interface {
	NumberOfVariables() int
	LowerBound(i int) float64
	UpperBound(i int) float64
}

// Problem describes the contract a multi-objective problem needs to implement.
// All objectives are minimized.
type Problem interface {
	Bounds

	Name() string
	NumberOfObjectives() int

	// Evaluate maps a decision vector to its objective vector. It must not retain
	// or modify variables. An error aborts the optimization run.
	Evaluate(variables []float64) ([]float64, error)
}

// ValidateProblem checks that a problem declares a usable decision space.
func ValidateProblem(p Problem) error {
	if p == nil {
		return &ConfigurationError{Field: "Problem", Reason: "cannot be nil"}
	}
	if p.NumberOfVariables() <= 0 {
		return &ConfigurationError{Field: "Problem.NumberOfVariables", Reason: "must be positive"}
	}
	if p.NumberOfObjectives() <= 0 {
		return &ConfigurationError{Field: "Problem.NumberOfObjectives", Reason: "must be positive"}
	}
	for i := 0; i < p.NumberOfVariables(); i++ {
		lo, hi := p.LowerBound(i), p.UpperBound(i)
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("Problem.Bounds[%d]", i), Reason: "must be finite"}
		}
		if lo > hi {
			return &ConfigurationError{
				Field:  fmt.Sprintf("Problem.Bounds[%d]", i),
				Reason: fmt.Sprintf("lower bound %g exceeds upper bound %g", lo, hi),
			}
		}
	}
	return nil
}

// Evaluate runs p on s and caches the objective values in s. Objective vectors
// with NaN or infinite entries are rejected and leave s unevaluated.
func Evaluate(p Problem, s *Solution) error {
	if len(s.Variables) != p.NumberOfVariables() {
		return &DimensionMismatchError{What: "variables", Expected: p.NumberOfVariables(), Actual: len(s.Variables)}
	}
	objectives, err := p.Evaluate(s.Variables)
	if err != nil {
		return &EvaluationError{Problem: p.Name(), Err: err}
	}
	if len(objectives) != p.NumberOfObjectives() {
		return &DimensionMismatchError{What: "objectives", Expected: p.NumberOfObjectives(), Actual: len(objectives)}
	}
	for i, f := range objectives {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &EvaluationError{Problem: p.Name(), Err: fmt.Errorf("objective %d is not finite: %g", i, f)}
		}
	}
	s.Objectives = append(s.Objectives[:0], objectives...)
	s.evaluated = true
	return nil
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

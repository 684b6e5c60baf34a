package moo

import "math"

// Solution is a decision vector plus its cached objective values.
//
// Objectives are only meaningful while Evaluated reports true. Any code that writes
// to Variables must call Invalidate afterwards.
type Solution struct {
	Variables  []float64
	Objectives []float64

	evaluated bool
}

// NewSolution creates an unevaluated solution owning a copy of variables.
func NewSolution(variables []float64, numObjectives int) *Solution {
	return &Solution{
		Variables:  append([]float64(nil), variables...),
		Objectives: make([]float64, numObjectives),
	}
}

// Clone returns a deep copy, including the evaluated flag.
func (s *Solution) Clone() *Solution {
	return &Solution{
		Variables:  append([]float64(nil), s.Variables...),
		Objectives: append([]float64(nil), s.Objectives...),
		evaluated:  s.evaluated,
	}
}

// CopyFrom overwrites s with the contents of other, reusing s's storage.
func (s *Solution) CopyFrom(other *Solution) {
	s.Variables = append(s.Variables[:0], other.Variables...)
	s.Objectives = append(s.Objectives[:0], other.Objectives...)
	s.evaluated = other.evaluated
}

// Evaluated reports whether Objectives reflect the current Variables.
func (s *Solution) Evaluated() bool {
	return s.evaluated
}

// Invalidate marks the cached objectives stale.
func (s *Solution) Invalidate() {
	s.evaluated = false
}

// SameVariables reports whether both decision vectors are bitwise equal.
func (s *Solution) SameVariables(other *Solution) bool {
	if len(s.Variables) != len(other.Variables) {
		return false
	}
	for i, v := range s.Variables {
		if math.Float64bits(v) != math.Float64bits(other.Variables[i]) {
			return false
		}
	}
	return true
}

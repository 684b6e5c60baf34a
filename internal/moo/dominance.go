package moo

// Relation is the outcome of a Pareto dominance comparison.
type Relation int

const (
	NonDominated Relation = iota
	FirstDominates
	SecondDominates
)

func (r Relation) String() string {
	switch r {
	case FirstDominates:
		return "first-dominates"
	case SecondDominates:
		return "second-dominates"
	default:
		return "non-dominated"
	}
}

// Compare checks Pareto dominance between two objective vectors, all objectives minimized.
// a dominates b iff a is no worse in every objective and strictly better in at least one.
func Compare(a, b []float64) (Relation, error) {
	if len(a) != len(b) {
		return NonDominated, &DimensionMismatchError{What: "objectives", Expected: len(a), Actual: len(b)}
	}
	aBetter, bBetter := false, false
	for i := range a {
		if a[i] < b[i] {
			aBetter = true
		} else if b[i] < a[i] {
			bBetter = true
		}
		if aBetter && bBetter {
			return NonDominated, nil
		}
	}
	switch {
	case aBetter:
		return FirstDominates, nil
	case bBetter:
		return SecondDominates, nil
	default:
		return NonDominated, nil
	}
}

// CompareSolutions compares the cached objectives of two solutions.
func CompareSolutions(a, b *Solution) (Relation, error) {
	return Compare(a.Objectives, b.Objectives)
}

// Dominates reports whether a dominates b. Vectors of different length never dominate.
func Dominates(a, b []float64) bool {
	r, err := Compare(a, b)
	return err == nil && r == FirstDominates
}

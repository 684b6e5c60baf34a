// Package problem provides benchmark problems implementing moo.Problem.
package problem

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cwbudde/paretoswarm/internal/moo"
)

// Benchmark is a problem whose optimal front is known, at least for some shapes.
type Benchmark interface {
	moo.Problem

	// TrueFront samples numPoints points of the optimal front, or returns nil when
	// the front cannot be generated for this configuration.
	TrueFront(numPoints int) [][]float64

	// Nadir returns the worst value of each objective over the optimal front.
	Nadir() []float64
}

// ReferencePoint is the hypervolume reference point used for reporting: the
// benchmark's nadir point shifted by offset in every objective.
func ReferencePoint(b Benchmark, offset float64) []float64 {
	ref := b.Nadir()
	for i := range ref {
		ref[i] += offset
	}
	return ref
}

type entry struct {
	defaultVars       int
	defaultObjectives int
	build             func(numVars, numObjectives int) Benchmark
	fixedObjectives   bool
}

var registry = map[string]entry{
	"zdt1":  {30, 2, func(n, _ int) Benchmark { return NewZDT1(n) }, true},
	"zdt2":  {30, 2, func(n, _ int) Benchmark { return NewZDT2(n) }, true},
	"zdt3":  {30, 2, func(n, _ int) Benchmark { return NewZDT3(n) }, true},
	"zdt4":  {10, 2, func(n, _ int) Benchmark { return NewZDT4(n) }, true},
	"zdt6":  {10, 2, func(n, _ int) Benchmark { return NewZDT6(n) }, true},
	"dtlz1": {7, 3, func(n, m int) Benchmark { return NewDTLZ1(n, m) }, false},
	"dtlz2": {12, 3, func(n, m int) Benchmark { return NewDTLZ2(n, m) }, false},
}

// Names lists the registered benchmark names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a benchmark by case-insensitive name.
func Load(name string, numVars, numObjectives int) (Benchmark, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &moo.ConfigurationError{
			Field:  "Problem",
			Reason: fmt.Sprintf("unknown problem %q (known: %s)", name, strings.Join(Names(), ", ")),
		}
	}
	if numVars == 0 {
		numVars = e.defaultVars
	}
	if numObjectives == 0 {
		numObjectives = e.defaultObjectives
	}
	if e.fixedObjectives && numObjectives != e.defaultObjectives {
		return nil, &moo.ConfigurationError{
			Field:  "Objectives",
			Reason: fmt.Sprintf("%s has exactly %d objectives", name, e.defaultObjectives),
		}
	}
	if numObjectives < 2 {
		return nil, &moo.ConfigurationError{Field: "Objectives", Reason: "must be at least 2"}
	}
	if numVars < numObjectives {
		return nil, &moo.ConfigurationError{
			Field:  "Variables",
			Reason: fmt.Sprintf("must be at least the number of objectives (%d)", numObjectives),
		}
	}
	return e.build(numVars, numObjectives), nil
}

func checkInput(p moo.Problem, x []float64) error {
	if len(x) != p.NumberOfVariables() {
		return &moo.DimensionMismatchError{What: "variables", Expected: p.NumberOfVariables(), Actual: len(x)}
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("variable %d is not finite: %v", i, v)
		}
	}
	return nil
}

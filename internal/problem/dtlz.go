package problem

import (
	"math"
)

// DTLZ1 is scalable to any number of objectives.
// It has a linear Pareto front and many local fronts.
type DTLZ1 struct {
	numVars       int
	numObjectives int
}

// NewDTLZ1 creates a DTLZ1 instance. Recommended: numVars = numObjectives + 4.
func NewDTLZ1(numVars, numObjectives int) *DTLZ1 {
	return &DTLZ1{
		numVars:       numVars,
		numObjectives: numObjectives,
	}
}

func (p *DTLZ1) Name() string {
	return "DTLZ1"
}

func (p *DTLZ1) NumberOfVariables() int { return p.numVars }
func (p *DTLZ1) NumberOfObjectives() int { return p.numObjectives }
func (p *DTLZ1) LowerBound(int) float64 { return 0 }
func (p *DTLZ1) UpperBound(int) float64 { return 1 }

func (p *DTLZ1) g(x []float64) float64 {
	k := p.numVars - p.numObjectives + 1
	sum := 0.0
	for i := p.numObjectives - 1; i < p.numVars; i++ {
		sum += math.Pow(x[i]-0.5, 2) - math.Cos(20*math.Pi*(x[i]-0.5))
	}
	return 100 * (float64(k) + sum)
}

func (p *DTLZ1) Evaluate(x []float64) ([]float64, error) {
	if err := checkInput(p, x); err != nil {
		return nil, err
	}
	g := p.g(x)
	f := make([]float64, p.numObjectives)
	for objIdx := range f {
		v := 0.5 * (1 + g)
		for i := 0; i < p.numObjectives-objIdx-1; i++ {
			v *= x[i]
		}
		if objIdx > 0 {
			v *= 1 - x[p.numObjectives-objIdx-1]
		}
		f[objIdx] = v
	}
	return f, nil
}

// TrueFront returns points with sum(f_i) = 0.5. Only two objectives are sampled;
// other objective counts return nil.
func (p *DTLZ1) TrueFront(numPoints int) [][]float64 {
	if p.numObjectives != 2 || numPoints < 2 {
		return nil
	}
	points := make([][]float64, numPoints)
	for i := range points {
		t := float64(i) / float64(numPoints-1)
		points[i] = []float64{0.5 * t, 0.5 * (1 - t)}
	}
	return points
}

// Nadir of the linear front is 0.5 in every objective.
func (p *DTLZ1) Nadir() []float64 {
	return constant(p.numObjectives, 0.5)
}

// DTLZ2 has a spherical Pareto front (sum(f_i^2) = 1).
type DTLZ2 struct {
	numVars       int
	numObjectives int
}

// NewDTLZ2 creates a DTLZ2 instance. Recommended: numVars = numObjectives + 9.
func NewDTLZ2(numVars, numObjectives int) *DTLZ2 {
	return &DTLZ2{
		numVars:       numVars,
		numObjectives: numObjectives,
	}
}

func (p *DTLZ2) Name() string {
	return "DTLZ2"
}

func (p *DTLZ2) NumberOfVariables() int { return p.numVars }
func (p *DTLZ2) NumberOfObjectives() int { return p.numObjectives }
func (p *DTLZ2) LowerBound(int) float64 { return 0 }
func (p *DTLZ2) UpperBound(int) float64 { return 1 }

func (p *DTLZ2) Evaluate(x []float64) ([]float64, error) {
	if err := checkInput(p, x); err != nil {
		return nil, err
	}
	g := 0.0
	for i := p.numObjectives - 1; i < p.numVars; i++ {
		g += (x[i] - 0.5) * (x[i] - 0.5)
	}
	f := make([]float64, p.numObjectives)
	for objIdx := range f {
		v := 1 + g
		for i := 0; i < p.numObjectives-objIdx-1; i++ {
			v *= math.Cos(x[i] * math.Pi / 2)
		}
		if objIdx > 0 {
			v *= math.Sin(x[p.numObjectives-objIdx-1] * math.Pi / 2)
		}
		f[objIdx] = v
	}
	return f, nil
}

// TrueFront samples the quarter circle for two objectives; nil otherwise.
func (p *DTLZ2) TrueFront(numPoints int) [][]float64 {
	if p.numObjectives != 2 || numPoints < 2 {
		return nil
	}
	points := make([][]float64, numPoints)
	for i := range points {
		theta := float64(i) / float64(numPoints-1) * math.Pi / 2
		points[i] = []float64{math.Cos(theta), math.Sin(theta)}
	}
	return points
}

func (p *DTLZ2) Nadir() []float64 {
	return constant(p.numObjectives, 1)
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

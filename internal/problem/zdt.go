package problem

import (
	"math"
)

// ZDT is the family of two-objective benchmarks by Zitzler, Deb and Thiele.
// For more details, check the article below:
// https://datacrayon.com/practical-evolutionary-algorithms/synthetic-objective-functions-and-zdt1/
type ZDT struct {
	variant int
	numVars int
	g       func(x []float64) float64
	h       func(f1, g float64) float64
	f1      func(x0 float64) float64
	lower   func(i int) float64
	upper   func(i int) float64
}

func unitLower(int) float64 { return 0 }
func unitUpper(int) float64 { return 1 }

func gLinear(x []float64) float64 {
	sum := 0.0
	for _, v := range x[1:] {
		sum += v
	}
	return 1.0 + 9.0*sum/float64(len(x)-1)
}

// NewZDT1 has a convex Pareto front.
func NewZDT1(numVars int) *ZDT {
	return &ZDT{
		variant: 1,
		numVars: numVars,
		g:       gLinear,
		h:       func(f1, g float64) float64 { return 1.0 - math.Sqrt(f1/g) },
		f1:      identity,
		lower:   unitLower,
		upper:   unitUpper,
	}
}

// NewZDT2 has a non-convex Pareto front.
func NewZDT2(numVars int) *ZDT {
	return &ZDT{
		variant: 2,
		numVars: numVars,
		g:       gLinear,
		h:       func(f1, g float64) float64 { return 1.0 - math.Pow(f1/g, 2) },
		f1:      identity,
		lower:   unitLower,
		upper:   unitUpper,
	}
}

// NewZDT3 has a disconnected Pareto front.
func NewZDT3(numVars int) *ZDT {
	return &ZDT{
		variant: 3,
		numVars: numVars,
		g:       gLinear,
		h: func(f1, g float64) float64 {
			return 1.0 - math.Sqrt(f1/g) - (f1/g)*math.Sin(10.0*math.Pi*f1)
		},
		f1:    identity,
		lower: unitLower,
		upper: unitUpper,
	}
}

// NewZDT4 is multimodal with 21^9 local fronts; x1 is in [0,1], the rest in [-5,5].
func NewZDT4(numVars int) *ZDT {
	return &ZDT{
		variant: 4,
		numVars: numVars,
		g: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x[1:] {
				sum += v*v - 10.0*math.Cos(4.0*math.Pi*v)
			}
			return 1.0 + 10.0*float64(len(x)-1) + sum
		},
		h:  func(f1, g float64) float64 { return 1.0 - math.Sqrt(f1/g) },
		f1: identity,
		lower: func(i int) float64 {
			if i == 0 {
				return 0
			}
			return -5
		},
		upper: func(i int) float64 {
			if i == 0 {
				return 1
			}
			return 5
		},
	}
}

// NewZDT6 has a non-convex front with a non-uniform density of solutions.
func NewZDT6(numVars int) *ZDT {
	return &ZDT{
		variant: 6,
		numVars: numVars,
		g: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x[1:] {
				sum += v
			}
			return 1.0 + 9.0*math.Pow(sum/float64(len(x)-1), 0.25)
		},
		h: func(f1, g float64) float64 { return 1.0 - math.Pow(f1/g, 2) },
		f1: func(x0 float64) float64 {
			return 1.0 - math.Exp(-4.0*x0)*math.Pow(math.Sin(6.0*math.Pi*x0), 6)
		},
		lower: unitLower,
		upper: unitUpper,
	}
}

func identity(x float64) float64 { return x }

func (p *ZDT) Name() string {
	return "ZDT" + string(rune('0'+p.variant))
}

func (p *ZDT) NumberOfVariables() int { return p.numVars }
func (p *ZDT) NumberOfObjectives() int { return 2 }
func (p *ZDT) LowerBound(i int) float64 { return p.lower(i) }
func (p *ZDT) UpperBound(i int) float64 { return p.upper(i) }

func (p *ZDT) Evaluate(x []float64) ([]float64, error) {
	if err := checkInput(p, x); err != nil {
		return nil, err
	}
	f1 := p.f1(x[0])
	g := p.g(x)
	return []float64{f1, g * p.h(f1, g)}, nil
}

// TrueFront samples numPoints points of the optimal front (g = 1).
func (p *ZDT) TrueFront(numPoints int) [][]float64 {
	if numPoints < 2 {
		numPoints = 2
	}
	points := make([][]float64, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		t := float64(i) / float64(numPoints-1)
		var f1 float64
		switch p.variant {
		case 6:
			// f1 ranges over [0.2807753191, 1] on the optimal front.
			f1 = 0.2807753191 + t*(1-0.2807753191)
		default:
			f1 = t
		}
		points = append(points, []float64{f1, p.h(f1, 1)})
	}
	if p.variant == 3 {
		return nonDominated(points)
	}
	return points
}

// Nadir is taken from a dense sample of the optimal front.
func (p *ZDT) Nadir() []float64 {
	nadir := []float64{math.Inf(-1), math.Inf(-1)}
	for _, pt := range p.TrueFront(1000) {
		nadir[0] = math.Max(nadir[0], pt[0])
		nadir[1] = math.Max(nadir[1], pt[1])
	}
	return nadir
}

// nonDominated filters a sampled curve down to its Pareto-optimal segments.
func nonDominated(points [][]float64) [][]float64 {
	out := make([][]float64, 0, len(points))
	for i, p := range points {
		dominated := false
		for j, q := range points {
			if i != j && q[0] <= p[0] && q[1] <= p[1] && (q[0] < p[0] || q[1] < p[1]) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, p)
		}
	}
	return out
}

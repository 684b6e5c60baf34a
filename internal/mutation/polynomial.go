package mutation

import (
	"fmt"
	"math"

	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/random"
)

// DefaultDistributionIndex is the usual polynomial mutation index (eta_m).
const DefaultDistributionIndex = 20.0

// Polynomial perturbs real-valued variables with a polynomial probability distribution.
// Higher distribution indices keep offspring closer to the parent value.
type Polynomial struct {
	DistributionIndex float64
	Probability       float64

	rng random.Source
}

// NewPolynomial creates a polynomial mutation operator.
func NewPolynomial(distributionIndex, probability float64, rng random.Source) (*Polynomial, error) {
	if distributionIndex < 0 || math.IsNaN(distributionIndex) {
		return nil, &moo.ConfigurationError{Field: "DistributionIndex", Reason: "cannot be negative"}
	}
	if probability < 0 || probability > 1 || math.IsNaN(probability) {
		return nil, &moo.ConfigurationError{Field: "MutationProbability", Reason: fmt.Sprintf("must be in [0,1], got %g", probability)}
	}
	if rng == nil {
		return nil, &moo.ConfigurationError{Field: "Random", Reason: "cannot be nil"}
	}
	return &Polynomial{
		DistributionIndex: distributionIndex,
		Probability:       probability,
		rng:               rng,
	}, nil
}

// Mutate perturbs s in place and returns how many variables were changed.
// One draw is consumed per variable for the probability test plus one per mutated
// variable. The solution's objectives are invalidated.
func (m *Polynomial) Mutate(s *moo.Solution, bounds moo.Bounds) int {
	return Mutate(m.rng, s, bounds, m.DistributionIndex, m.Probability)
}

// Mutate applies polynomial mutation with the given distribution index and per-variable
// probability, clamping every result into its bounds.
func Mutate(rng random.Source, s *moo.Solution, bounds moo.Bounds, distributionIndex, probability float64) int {
	defer s.Invalidate()

	mutated := 0
	mutPow := 1.0 / (distributionIndex + 1.0)
	for i := range s.Variables {
		if rng.Float64() >= probability {
			continue
		}
		y := s.Variables[i]
		yl, yu := bounds.LowerBound(i), bounds.UpperBound(i)
		if yl == yu {
			s.Variables[i] = yl
			mutated++
			continue
		}

		delta1 := (y - yl) / (yu - yl)
		delta2 := (yu - y) / (yu - yl)
		rnd := rng.Float64()

		var deltaq float64
		if rnd <= 0.5 {
			xy := 1.0 - delta1
			val := 2.0*rnd + (1.0-2.0*rnd)*math.Pow(xy, distributionIndex+1.0)
			deltaq = math.Pow(val, mutPow) - 1.0
		} else {
			xy := 1.0 - delta2
			val := 2.0*(1.0-rnd) + 2.0*(rnd-0.5)*math.Pow(xy, distributionIndex+1.0)
			deltaq = 1.0 - math.Pow(val, mutPow)
		}

		s.Variables[i] = moo.Clamp(y+deltaq*(yu-yl), yl, yu)
		mutated++
	}
	return mutated
}

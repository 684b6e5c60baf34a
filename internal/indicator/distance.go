package indicator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// IGD is the inverted generational distance: the mean Euclidean distance from each
// reference point to its nearest point in front. Lower is better. It returns +Inf
// when front is empty and 0 when reference is empty.
func IGD(front, reference [][]float64) float64 {
	if len(reference) == 0 {
		return 0
	}
	if len(front) == 0 {
		return math.Inf(1)
	}
	nearest := make([]float64, len(reference))
	for i, r := range reference {
		nearest[i] = math.Inf(1)
		for _, p := range front {
			if d := floats.Distance(r, p, 2); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return stat.Mean(nearest, nil)
}

// Spread is Deb's diversity metric Δ for two-objective fronts. extremes holds the two
// end points of the true front. 0 means a perfectly uniform front reaching both
// extremes. Fronts with fewer than two points return 1.
func Spread(front [][]float64, extremes [2][]float64) float64 {
	if len(front) < 2 {
		return 1
	}
	sorted := append([][]float64(nil), front...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][0] < sorted[j][0]
	})

	gaps := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps[i-1] = floats.Distance(sorted[i-1], sorted[i], 2)
	}
	mean := stat.Mean(gaps, nil)

	df := floats.Distance(extremes[0], sorted[0], 2)
	dl := floats.Distance(extremes[1], sorted[len(sorted)-1], 2)

	deviation := 0.0
	for _, g := range gaps {
		deviation += math.Abs(g - mean)
	}
	denominator := df + dl + float64(len(gaps))*mean
	if denominator == 0 {
		return 0
	}
	return (df + dl + deviation) / denominator
}

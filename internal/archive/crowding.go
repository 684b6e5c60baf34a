package archive

import (
	"math"
	"sort"
)

// CrowdingDistances computes the crowding distance of every point in a front.
//
// For each objective the points are ordered by value (ties keep input order); the two
// boundary points get +Inf and interior points accumulate the gap between their
// neighbours divided by the observed range of that objective. A zero range
// contributes nothing. Fronts of one or two points are all boundary.
func CrowdingDistances(points [][]float64) []float64 {
	n := len(points)
	distances := make([]float64, n)
	if n == 0 {
		return distances
	}
	if n <= 2 {
		for i := range distances {
			distances[i] = math.Inf(1)
		}
		return distances
	}

	order := make([]int, n)
	numObjectives := len(points[0])
	for m := 0; m < numObjectives; m++ {
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return points[order[i]][m] < points[order[j]][m]
		})

		first, last := order[0], order[n-1]
		distances[first] = math.Inf(1)
		distances[last] = math.Inf(1)

		objectiveRange := points[last][m] - points[first][m]
		if objectiveRange == 0 {
			continue
		}
		for k := 1; k < n-1; k++ {
			idx := order[k]
			distances[idx] += (points[order[k+1]][m] - points[order[k-1]][m]) / objectiveRange
		}
	}
	return distances
}

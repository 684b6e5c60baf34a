// Package indicator computes quality indicators for approximation fronts.
// All objectives are minimized.
package indicator

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Hypervolume returns the volume of objective space dominated by points and
// bounded by ref. Points that do not strictly dominate ref contribute nothing.
//
// Two objectives use an exact sweep; more objectives slice along the last
// objective recursively, which is exponential in the objective count but fine for
// archive-sized fronts with up to four or five objectives.
func Hypervolume(points [][]float64, ref []float64) float64 {
	inside := make([][]float64, 0, len(points))
	for _, p := range points {
		if len(p) == len(ref) && strictlyBelow(p, ref) {
			inside = append(inside, p)
		}
	}
	if len(inside) == 0 {
		return 0
	}
	return hv(inside, ref, len(ref))
}

func hv(points [][]float64, ref []float64, m int) float64 {
	switch m {
	case 1:
		best := ref[0]
		for _, p := range points {
			if p[0] < best {
				best = p[0]
			}
		}
		return ref[0] - best
	case 2:
		return hv2(points, ref)
	}

	last := m - 1
	sorted := append([][]float64(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][last] < sorted[j][last]
	})

	volume := 0.0
	for k := range sorted {
		upper := ref[last]
		if k+1 < len(sorted) {
			upper = sorted[k+1][last]
		}
		depth := upper - sorted[k][last]
		if depth <= 0 {
			continue
		}
		volume += depth * hv(sorted[:k+1], ref, last)
	}
	return volume
}

func hv2(points [][]float64, ref []float64) float64 {
	sorted := append([][]float64(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	volume := 0.0
	currentY := ref[1]
	for _, p := range sorted {
		if p[1] < currentY {
			volume += (ref[0] - p[0]) * (currentY - p[1])
			currentY = p[1]
		}
	}
	return volume
}

// Contributions returns, for each point, the hypervolume lost if it were removed.
func Contributions(points [][]float64, ref []float64) []float64 {
	total := Hypervolume(points, ref)
	out := make([]float64, len(points))
	rest := make([][]float64, 0, len(points))
	for i := range points {
		rest = rest[:0]
		rest = append(rest, points[:i]...)
		rest = append(rest, points[i+1:]...)
		out[i] = total - Hypervolume(rest, ref)
	}
	return out
}

// NadirReference returns the component-wise worst value of points shifted by offset.
// It returns nil for an empty front.
func NadirReference(points [][]float64, offset float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	m := len(points[0])
	ref := make([]float64, m)
	column := make([]float64, len(points))
	for j := 0; j < m; j++ {
		for i, p := range points {
			column[i] = p[j]
		}
		ref[j] = floats.Max(column) + offset
	}
	return ref
}

func strictlyBelow(p, ref []float64) bool {
	for i := range p {
		if p[i] >= ref[i] {
			return false
		}
	}
	return true
}

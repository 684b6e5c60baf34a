// Package opt holds single-objective optimizers used to build reference fronts.
package opt

// Optimizer defines a single-objective minimization algorithm.
type Optimizer interface {
	// Run minimizes eval over the box [lower, upper]; len(lower) is the dimensionality.
	// Returns the best parameters and their cost.
	Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error)
}

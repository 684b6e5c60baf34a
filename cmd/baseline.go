package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/paretoswarm/internal/opt"
	"github.com/cwbudde/paretoswarm/internal/problem"
	"github.com/cwbudde/paretoswarm/internal/store"
)

var (
	baseProblem    string
	baseVariables  int
	baseObjectives int
	baseWeights    int
	baseIters      int
	basePopSize    int
	baseSeed       int64
	baseCapacity   int
	baseOutDir     string
	basePlotPath   string
	baseReference  string
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Approximate a front with weighted sums and the Mayfly optimizer",
	Long: `Scalarizes the problem with evenly spaced weight vectors and minimizes each
weighted sum with the Mayfly optimizer. The non-dominated results are written as
VAR.tsv and FUN.tsv like an SMPSO front, for comparison. Weighted sums only reach
the convex parts of a front.`,
	RunE: runBaseline,
}

func init() {
	f := baselineCmd.Flags()
	f.StringVar(&baseProblem, "problem", store.DefaultProblem, "Benchmark problem")
	f.IntVar(&baseVariables, "variables", 0, "Number of decision variables (0 = problem default)")
	f.IntVar(&baseObjectives, "objectives", 0, "Number of objectives (0 = problem default)")
	f.IntVar(&baseWeights, "weights", 20, "Number of weight vectors")
	f.IntVar(&baseIters, "iters", 100, "Mayfly iterations per weight vector")
	f.IntVar(&basePopSize, "pop", 30, "Mayfly population size")
	f.Int64Var(&baseSeed, "seed", 42, "Random seed")
	f.IntVar(&baseCapacity, "capacity", 100, "Maximum front size")
	f.StringVar(&baseOutDir, "out", ".", "Output directory for VAR.tsv and FUN.tsv")
	f.StringVar(&basePlotPath, "plot", "", "Write an HTML scatter plot of the front to this path")
	f.StringVar(&baseReference, "reference", "", "Reference front (FUN.tsv format) for IGD and plots")

	rootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	if baseWeights <= 0 {
		return fmt.Errorf("--weights must be positive, got %d", baseWeights)
	}
	if baseIters <= 0 {
		return fmt.Errorf("--iters must be positive, got %d", baseIters)
	}

	p, err := problem.Load(baseProblem, baseVariables, baseObjectives)
	if err != nil {
		return err
	}
	ref, err := referenceFront(baseReference, p)
	if err != nil {
		return err
	}

	weights := opt.Weights(p.NumberOfObjectives(), baseWeights)
	optimizer := opt.NewMayfly(baseIters, basePopSize, baseSeed)

	slog.Info("Starting weighted-sum baseline",
		"problem", p.Name(),
		"weights", len(weights),
		"iters", baseIters,
		"pop", basePopSize,
	)

	start := time.Now()
	solutions, err := opt.WeightedSumFront(p, weights, optimizer, baseCapacity)
	if err != nil {
		return fmt.Errorf("baseline failed: %w", err)
	}
	elapsed := time.Since(start)

	front := store.FrontFromSolutions(solutions)
	if err := writeOutputs(baseOutDir, basePlotPath, "Weighted sum", p, front, ref); err != nil {
		return err
	}

	q := assess(store.Objectives(front), p, ref)
	slog.Info("Baseline complete", "elapsed", elapsed, "front_size", len(front), "hypervolume", q.Hypervolume)

	fmt.Printf("Baseline on %s: %d weight vectors, %d non-dominated points in %s\n",
		p.Name(), len(weights), len(front), elapsed.Round(time.Millisecond))
	q.print(os.Stdout)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/cwbudde/paretoswarm/internal/smpso"
	"github.com/cwbudde/paretoswarm/internal/store"
)

var (
	configPath    string
	problemName   string
	numVariables  int
	numObjectives int
	swarmSize     int
	archiveSize   int
	iterations    int
	c1            float64
	c2            float64
	inertia       float64
	initVelocity  float64
	distIndex     float64
	mutationProb  float64
	mutationEvery int
	updateMode    string
	tieRule       string
	leaderKind    string
	hvOffset      float64
	seed          uint64

	outDir        string
	plotPath      string
	referencePath string
	saveRun       bool
	storeKind     string
	dataDir       string
)

// runOverrides maps flags to RunConfig keys. A changed flag replaces the value
// from --config.
var runOverrides = []struct {
	flag  string
	key   string
	value func() any
}{
	{"problem", "problem", func() any { return problemName }},
	{"variables", "variables", func() any { return numVariables }},
	{"objectives", "objectives", func() any { return numObjectives }},
	{"swarm-size", "swarmSize", func() any { return swarmSize }},
	{"archive-size", "archiveSize", func() any { return archiveSize }},
	{"iterations", "maxIterations", func() any { return iterations }},
	{"c1", "c1", func() any { return c1 }},
	{"c2", "c2", func() any { return c2 }},
	{"inertia", "inertiaWeight", func() any { return inertia }},
	{"initial-velocity", "initialVelocityFraction", func() any { return initVelocity }},
	{"distribution-index", "distributionIndex", func() any { return distIndex }},
	{"mutation-probability", "mutationProbability", func() any { return mutationProb }},
	{"mutation-every", "mutationEvery", func() any { return mutationEvery }},
	{"update", "update", func() any { return updateMode }},
	{"tie", "tie", func() any { return tieRule }},
	{"leader", "leader", func() any { return leaderKind }},
	{"hv-offset", "hypervolumeOffset", func() any { return hvOffset }},
	{"seed", "seed", func() any { return seed }},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run SMPSO on a benchmark problem",
	Long: `Runs SMPSO on a benchmark problem and writes the final front as VAR.tsv
(decision variables) and FUN.tsv (objective values). Settings come from --config
(YAML or JSON) or the problem's defaults; flags that are set explicitly override both.
Ctrl-C stops the run early and writes the partial front.`,
	RunE: runOptimization,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "Run configuration file (YAML or JSON)")
	f.StringVar(&problemName, "problem", store.DefaultProblem, "Benchmark problem (zdt1-4, zdt6, dtlz1, dtlz2)")
	f.IntVar(&numVariables, "variables", 0, "Number of decision variables (0 = problem default)")
	f.IntVar(&numObjectives, "objectives", 0, "Number of objectives (0 = problem default)")
	f.IntVar(&swarmSize, "swarm-size", 100, "Number of particles")
	f.IntVar(&archiveSize, "archive-size", 100, "Leader archive capacity")
	f.IntVar(&iterations, "iterations", 250, "Number of generations")
	f.Float64Var(&c1, "c1", 2.05, "Cognitive coefficient")
	f.Float64Var(&c2, "c2", 2.05, "Social coefficient")
	f.Float64Var(&inertia, "inertia", 1.0, "Inertia weight")
	f.Float64Var(&initVelocity, "initial-velocity", 0, "Initial velocity as a fraction of each variable's range")
	f.Float64Var(&distIndex, "distribution-index", 20, "Polynomial mutation distribution index")
	f.Float64Var(&mutationProb, "mutation-probability", 0, "Per-variable mutation probability (default 1/variables)")
	f.IntVar(&mutationEvery, "mutation-every", smpso.MutationEvery, "Mutate every N-th particle (0 = never)")
	f.StringVar(&updateMode, "update", string(smpso.UpdateAsync), "Archive update ordering: async, sync")
	f.StringVar(&tieRule, "tie", string(smpso.TieKeep), "Personal best tie rule: keep, replace, random")
	f.StringVar(&leaderKind, "leader", string(smpso.LeaderUniform), "Leader selection: uniform, crowding, hypervolume")
	f.Float64Var(&hvOffset, "hv-offset", 1.0, "Nadir offset for hypervolume leader selection")
	f.Uint64Var(&seed, "seed", 0, "Random seed (0 = time-based)")

	f.StringVar(&outDir, "out", ".", "Output directory for VAR.tsv and FUN.tsv")
	f.StringVar(&plotPath, "plot", "", "Write an HTML scatter plot of the front to this path")
	f.StringVar(&referencePath, "reference", "", "Reference front (FUN.tsv format) for IGD and plots")
	f.BoolVar(&saveRun, "save", false, "Save the run to the run store")
	f.StringVar(&storeKind, "store", "fs", "Run store backend: fs, badger")
	f.StringVar(&dataDir, "data-dir", "./data", "Base directory for the run store")
}

// buildRunConfig merges --config with the explicitly set flags and resolves the
// problem defaults.
func buildRunConfig(cmd *cobra.Command) (*store.RunConfig, error) {
	doc := map[string]any{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	for _, o := range runOverrides {
		if cmd.Flags().Changed(o.flag) {
			doc[o.key] = o.value()
		}
	}
	if _, ok := doc["problem"]; !ok {
		doc["problem"] = problemName
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	cfg, err := store.ParseRunConfig(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.LoadProblem()
	if err != nil {
		return err
	}
	ref, err := referenceFront(referencePath, p)
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	var runStore store.Store
	var trace *store.TraceWriter
	if saveRun {
		runStore, err = store.Open(storeKind, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer runStore.Close()

		if storeKind == "fs" {
			trace, err = store.NewTraceWriter(dataDir, runID, false)
			if err != nil {
				return err
			}
			defer trace.Close()
		}
	}

	observer := func(pr smpso.Progress) {
		if trace == nil {
			return
		}
		if err := trace.Write(store.NewTraceEntry(pr)); err != nil {
			slog.Warn("Failed to write trace entry", "error", err)
		}
	}

	engine, err := smpso.New(p, cfg.Config, smpso.WithObserver(observer))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting optimization",
		"run_id", runID,
		"problem", p.Name(),
		"variables", cfg.Variables,
		"objectives", cfg.Objectives,
		"swarm_size", cfg.SwarmSize,
		"iterations", cfg.MaxIterations,
		"leader", cfg.Leader,
		"update", cfg.Update,
	)

	start := time.Now()
	res, err := engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	result := store.NewRunResult(runID, *cfg, res, elapsed)
	if err := writeOutputs(outDir, plotPath, "SMPSO", p, result.Front, ref); err != nil {
		return err
	}

	if runStore != nil {
		if err := runStore.SaveRun(result); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Saved run %s to %s store at %s\n", runID, storeKind, dataDir)
	}

	q := assess(store.Objectives(result.Front), p, ref)

	slog.Info("Optimization complete",
		"run_id", runID,
		"elapsed", elapsed,
		"generations", result.Generations,
		"evaluations", result.Evaluations,
		"front_size", len(result.Front),
		"hypervolume", q.Hypervolume,
		"canceled", result.Canceled,
	)

	status := "completed"
	if result.Canceled {
		status = "cancelled"
	}
	fmt.Printf("Run %s %s: %d generations, %d evaluations in %s (seed %d)\n",
		runID, status, result.Generations, result.Evaluations, elapsed.Round(time.Millisecond), result.Seed)
	q.print(os.Stdout)
	return nil
}

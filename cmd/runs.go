package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/paretoswarm/internal/store"
)

var (
	runsDataDir   string
	runsStoreKind string
	showOutDir    string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored runs",
	Long: `Manage runs saved with "run --save" or by the server, including listing,
inspecting and cleaning old runs.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Long:  `Display all stored runs with metadata including run ID, problem, age, generations, hypervolume and size.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored run",
	Long:  `Print the configuration and results of a stored run. With --out the front is exported as VAR.tsv and FUN.tsv.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can specify how many runs to keep or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	// Add runs command to root
	rootCmd.AddCommand(runsCmd)

	// Add subcommands
	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	// Global flags for runs command
	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data-dir", "./data", "Base directory for the run store")
	runsCmd.PersistentFlags().StringVar(&runsStoreKind, "store", "fs", "Run store backend: fs, badger")

	showRunCmd.Flags().StringVar(&showOutDir, "out", "", "Export the front as VAR.tsv and FUN.tsv to this directory")

	// Clean command flags
	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openRunStore() (store.Store, error) {
	runStore, err := store.Open(runsStoreKind, runsDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return runStore, nil
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	defer runStore.Close()

	// List all runs
	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	// Display runs in a table
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tPROBLEM\tCREATED\tGENERATIONS\tFRONT\tHYPERVOLUME\tSIZE")
	fmt.Fprintln(w, "------\t-------\t-------\t-----------\t-----\t-----------\t----")

	for _, info := range infos {
		sizeStr := "-"
		if info.Size > 0 {
			sizeStr = humanize.Bytes(uint64(info.Size))
		}

		generations := humanize.Comma(int64(info.Generations))
		if info.Canceled {
			generations += " (cancelled)"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.6f\t%s\n",
			displayID(info.ID),
			info.Problem,
			humanize.Time(info.Timestamp),
			generations,
			info.FrontSize,
			info.Hypervolume,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	defer runStore.Close()

	result, err := runStore.LoadRun(args[0])
	if err != nil {
		return err
	}

	cfg := result.Config
	fmt.Printf("Run: %s\n", result.ID)
	fmt.Printf("Created: %s (%s)\n", result.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(result.Timestamp))
	if result.Canceled {
		fmt.Println("Status: cancelled")
	}
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Problem: %s (%d variables, %d objectives)\n", cfg.Problem, cfg.Variables, cfg.Objectives)
	fmt.Printf("  Swarm: %d, archive: %d, iterations: %d\n", cfg.SwarmSize, cfg.ArchiveSize, cfg.MaxIterations)
	fmt.Printf("  C1: %g, C2: %g, inertia: %g\n", cfg.C1, cfg.C2, cfg.InertiaWeight)
	fmt.Printf("  Mutation: eta %g, probability %g, every %d\n", cfg.DistributionIndex, cfg.MutationProbability, cfg.MutationEvery)
	fmt.Printf("  Leader: %s, update: %s, tie: %s\n", cfg.Leader, cfg.Update, cfg.Tie)
	fmt.Println()

	fmt.Println("Result:")
	fmt.Printf("  Seed: %d\n", result.Seed)
	fmt.Printf("  Generations: %s\n", humanize.Comma(int64(result.Generations)))
	fmt.Printf("  Evaluations: %s\n", humanize.Comma(int64(result.Evaluations)))
	fmt.Printf("  Front size: %d\n", len(result.Front))
	fmt.Printf("  Hypervolume: %.6f (reference %v)\n", result.Hypervolume, result.Reference)
	fmt.Printf("  Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))

	if runsStoreKind == "fs" {
		entries, err := store.ReadTrace(runsDataDir, result.ID)
		if err == nil && len(entries) > 0 {
			first, last := entries[0], entries[len(entries)-1]
			fmt.Printf("  Trace: %d entries, archive %d -> %d\n", len(entries), first.ArchiveSize, last.ArchiveSize)
		}
	}

	if showOutDir != "" {
		if err := os.MkdirAll(showOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := store.WriteFrontFiles(showOutDir, result.Front); err != nil {
			return err
		}
		fmt.Printf("\nWrote front to %s\n", showOutDir)
	}
	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	// Validate flags
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	defer runStore.Close()

	// List all runs
	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs to clean.")
		return nil
	}

	// Determine which runs to delete
	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No runs match deletion criteria.")
		return nil
	}

	// Show what will be deleted
	fmt.Printf("Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (%s, %s)\n",
			displayID(info.ID),
			info.Problem,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	// Ask for confirmation unless --force is set
	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Delete runs
	deleted := 0
	failed := 0
	for _, info := range toDelete {
		err := runStore.DeleteRun(info.ID)
		if err != nil {
			slog.Error("Failed to delete run", "run_id", info.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.ID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion determines which runs should be deleted based on retention policy.
// Runs older than olderThanDays are selected, and with keepLast > 0 every run but the
// newest keepLast as well.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	// Apply age-based deletion
	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	// Apply count-based deletion
	if keepLast > 0 && len(infos) > keepLast {
		// Sort by timestamp (oldest first)
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		// Delete oldest runs beyond keepLast
		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.ID] {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	return toDelete
}

// displayID truncates run IDs for tables
func displayID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

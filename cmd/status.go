package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/paretoswarm/internal/server"
	"github.com/cwbudde/paretoswarm/internal/store"
)

var (
	serverURL   string
	statusFront bool
	cancelRun   bool
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or specific run",
	Long: `Queries the server for run status information.
If no run-id is provided, lists all runs.
If run-id is provided, shows detailed status for that run; --front prints its
objective values as TSV and --cancel asks the server to stop it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	statusCmd.Flags().BoolVar(&statusFront, "front", false, "Print the run's front (FUN.tsv format)")
	statusCmd.Flags().BoolVar(&cancelRun, "cancel", false, "Cancel the run")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if statusFront || cancelRun {
			return fmt.Errorf("--front and --cancel need a run id")
		}
		// List all runs
		return listJobs(fmt.Sprintf("%s/api/v1/runs", serverURL))
	}

	runID := args[0]
	url := fmt.Sprintf("%s/api/v1/runs/%s", serverURL, runID)
	switch {
	case cancelRun:
		return cancelJob(url, runID)
	case statusFront:
		return getFront(url+"/front", runID)
	default:
		return getJobStatus(url, runID)
	}
}

// getJSON performs a request and decodes a 2xx JSON response into v.
func getJSON(method, url, runID string, v any) error {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && runID != "" {
		return fmt.Errorf("run not found: %s", runID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func listJobs(url string) error {
	var jobs []server.Job
	if err := getJSON(http.MethodGet, url, "", &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("Found %d run(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Run ID: %s\n", job.ID)
		fmt.Printf("  State: %s\n", job.State)
		fmt.Printf("  Problem: %s (%d variables, %d objectives)\n",
			job.Config.Problem, job.Config.Variables, job.Config.Objectives)
		fmt.Printf("  Generation: %d / %d\n", job.Generation, job.Config.MaxIterations)
		if job.State == server.StateCompleted || job.State == server.StateCancelled {
			fmt.Printf("  Hypervolume: %.6f\n", job.Hypervolume)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, runID string) error {
	var status struct {
		server.Job
		Elapsed float64 `json:"elapsed"`
	}
	if err := getJSON(http.MethodGet, url, runID, &status); err != nil {
		return err
	}

	// Display status
	fmt.Printf("Run: %s\n", status.ID)
	fmt.Printf("State: %s\n", status.State)
	fmt.Println()

	config := status.Config
	fmt.Println("Configuration:")
	fmt.Printf("  Problem: %s\n", config.Problem)
	fmt.Printf("  Variables: %d\n", config.Variables)
	fmt.Printf("  Objectives: %d\n", config.Objectives)
	fmt.Printf("  Swarm: %d\n", config.SwarmSize)
	fmt.Printf("  Archive: %d\n", config.ArchiveSize)
	fmt.Printf("  Iterations: %d\n", config.MaxIterations)
	fmt.Printf("  Leader: %s, update: %s, tie: %s\n", config.Leader, config.Update, config.Tie)
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Generation: %d\n", status.Generation)
	fmt.Printf("  Evaluations: %d\n", status.Evaluations)
	fmt.Printf("  Archive size: %d\n", status.ArchiveSize)
	if status.Seed != 0 {
		fmt.Printf("  Seed: %d\n", status.Seed)
	}
	if status.State == server.StateCompleted || status.State == server.StateCancelled {
		fmt.Printf("  Hypervolume: %.6f\n", status.Hypervolume)
	}

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if status.Error != "" {
		fmt.Printf("\nError: %s\n", status.Error)
	}

	return nil
}

func getFront(url, runID string) error {
	var resp struct {
		Front []store.FrontPoint `json:"front"`
	}
	if err := getJSON(http.MethodGet, url, runID, &resp); err != nil {
		return err
	}
	return store.WriteTSV(os.Stdout, store.Objectives(resp.Front))
}

func cancelJob(url, runID string) error {
	var job server.Job
	if err := getJSON(http.MethodDelete, url, runID, &job); err != nil {
		return err
	}
	fmt.Printf("Cancellation requested for run %s\n", job.ID)
	return nil
}

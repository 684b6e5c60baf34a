package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/paretoswarm/internal/smpso"
	"github.com/cwbudde/paretoswarm/internal/store"
)

// progressInterval throttles the progress events broadcast while a run is active.
var progressInterval = 500 * time.Millisecond

// releaseDelay is how long a finished run's subscribers stay registered after
// the final event, so slow clients can drain it.
var releaseDelay = 5 * time.Second

// baseDirStore is implemented by stores that keep runs on the local filesystem.
type baseDirStore interface {
	BaseDir() string
}

// runJob executes an optimization run in the background.
// If runStore is not nil the completed or cancelled run is saved to it. Stores
// backed by a directory also receive a per-generation trace.jsonl.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string) error {
	// Get the job
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Check for cancellation before doing any work
	if err := ctx.Err(); err != nil {
		markJobCancelled(jm, jobID)
		return err
	}

	// Update state to running
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	logger := slog.Default().With("job_id", jobID)
	logger.Info("Starting job", "problem", job.Config.Problem, "swarm_size", job.Config.SwarmSize,
		"max_iterations", job.Config.MaxIterations)

	p, err := job.Config.LoadProblem()
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	trace := openTrace(runStore, jobID, logger)
	observer := func(pr smpso.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = pr.Generation
			j.Evaluations = pr.Evaluations
			j.ArchiveSize = pr.ArchiveSize
		})
		if trace != nil {
			if err := trace.Write(store.NewTraceEntry(pr)); err != nil {
				logger.Warn("Failed to write trace entry", "error", err)
			}
		}
	}

	engine, err := smpso.New(p, job.Config.Config, smpso.WithObserver(observer), smpso.WithLogger(logger))
	if err != nil {
		closeTrace(trace, logger)
		markJobFailed(jm, jobID, err)
		return err
	}
	jm.UpdateJob(jobID, func(j *Job) {
		j.Seed = engine.Seed()
	})

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	start := time.Now()
	res, runErr := engine.Run(ctx)
	close(progressDone)
	elapsed := time.Since(start)
	closeTrace(trace, logger)

	if runErr != nil && (res == nil || !res.Canceled) {
		markJobFailed(jm, jobID, runErr)
		return runErr
	}

	result := store.NewRunResult(jobID, job.Config, res, elapsed)
	if runStore != nil {
		if err := runStore.SaveRun(result); err != nil {
			logger.Error("Failed to save run", "error", err)
		}
	}

	state := StateCompleted
	if result.Canceled {
		state = StateCancelled
	}
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = state
		j.Generation = result.Generations
		j.Evaluations = result.Evaluations
		j.ArchiveSize = len(result.Front)
		j.Hypervolume = result.Hypervolume
		j.front = result.Front
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	logger.Info("Job finished",
		"state", state,
		"elapsed", elapsed,
		"generations", result.Generations,
		"evaluations", result.Evaluations,
		"front_size", len(result.Front),
		"hypervolume", result.Hypervolume,
	)

	broadcastFinal(jm, jobID)

	return runErr
}

// monitorProgress periodically broadcasts progress events during a run
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			if job.State == StateRunning {
				jm.broadcaster.Broadcast(eventFromJob(job))
			}
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)

	broadcastFinal(jm, jobID)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)

	broadcastFinal(jm, jobID)
}

// broadcastFinal sends the terminal event of a run and schedules the release of
// its stream state. Streams opened later are answered from the job itself.
func broadcastFinal(jm *JobManager, jobID string) {
	job, ok := jm.GetJob(jobID)
	if !ok {
		return
	}
	jm.broadcaster.Broadcast(eventFromJob(job))
	time.AfterFunc(releaseDelay, func() {
		jm.broadcaster.Release(jobID)
	})
}

func openTrace(runStore store.Store, jobID string, logger *slog.Logger) *store.TraceWriter {
	fs, ok := runStore.(baseDirStore)
	if !ok {
		return nil
	}
	trace, err := store.NewTraceWriter(fs.BaseDir(), jobID, false)
	if err != nil {
		logger.Warn("Failed to open trace", "error", err)
		return nil
	}
	return trace
}

func closeTrace(trace *store.TraceWriter, logger *slog.Logger) {
	if trace == nil {
		return
	}
	if err := trace.Close(); err != nil {
		logger.Warn("Failed to close trace", "error", err)
	}
}

package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/paretoswarm/internal/store"
)

func TestRunJob_Success(t *testing.T) {
	runStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 5))

	if err := runJob(context.Background(), jm, runStore, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.Generation != 5 {
		t.Errorf("Expected 5 generations, got %d", updated.Generation)
	}
	if updated.Evaluations != 60 { // 10 initial + 5 generations of 10
		t.Errorf("Expected 60 evaluations, got %d", updated.Evaluations)
	}
	if updated.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", updated.Seed)
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}

	front := updated.Front()
	if len(front) == 0 || len(front) > 10 {
		t.Fatalf("Front size should be in [1, 10], got %d", len(front))
	}
	if updated.ArchiveSize != len(front) {
		t.Errorf("ArchiveSize %d should match front size %d", updated.ArchiveSize, len(front))
	}
	if updated.Hypervolume < 0 {
		t.Errorf("Hypervolume should not be negative, got %f", updated.Hypervolume)
	}

	// Run persisted with its trace
	saved, err := runStore.LoadRun(job.ID)
	if err != nil {
		t.Fatalf("Run should be saved: %v", err)
	}
	if len(saved.Front) != len(front) || saved.Hypervolume != updated.Hypervolume {
		t.Error("Saved run should match the job")
	}

	reader, err := store.NewTraceReader(runStore.BaseDir(), job.ID)
	if err != nil {
		t.Fatalf("Trace should exist: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(entries) != 6 { // initialization + 5 generations
		t.Errorf("Expected 6 trace entries, got %d", len(entries))
	}
}

func TestRunJob_NilStore(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 2))

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed without a store: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
}

func TestRunJob_InvalidProblem(t *testing.T) {
	jm := NewJobManager()
	config := testConfig(t, 5)
	config.Problem = "nonexistent"
	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Error("runJob should fail with unknown problem")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_InvalidConfig(t *testing.T) {
	jm := NewJobManager()
	config := testConfig(t, 5)
	config.SwarmSize = 0
	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Error("runJob should fail with invalid swarm size")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), nil, "nonexistent"); err == nil {
		t.Error("runJob should fail for unknown job")
	}
}

func TestRunJob_CancelledBeforeStart(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, nil, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cancellation test in short mode")
	}

	runStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 1000000))

	ctx, cancel := context.WithCancel(context.Background())
	jm.setCancel(job.ID, cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runJob(ctx, jm, runStore, job.ID)
	}()

	// Wait until the swarm is initialized
	deadline := time.Now().Add(5 * time.Second)
	for {
		current, _ := jm.GetJob(job.ID)
		if current.Evaluations > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Job did not start in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Job did not stop after cancellation")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
	if len(updated.Front()) == 0 {
		t.Error("Cancelled job should keep its partial front")
	}

	saved, err := runStore.LoadRun(job.ID)
	if err != nil {
		t.Fatalf("Cancelled run should be saved: %v", err)
	}
	if !saved.Canceled {
		t.Error("Saved run should be marked canceled")
	}
}

func TestRunJob_BroadcastsFinalEvent(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 3))

	ch := jm.broadcaster.Subscribe(job.ID)
	defer jm.broadcaster.Unsubscribe(job.ID, ch)

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				t.Fatal("Stream closed before the completion event")
			}
			if event.State != StateCompleted {
				continue
			}
			if event.RunID != job.ID || event.Generation != 3 || event.Evaluations != 40 {
				t.Errorf("Unexpected final event: %+v", event)
			}
			return
		case <-timeout:
			t.Fatal("Timeout waiting for completion event")
		}
	}
}

func TestRunJob_ReleasesStreamState(t *testing.T) {
	original := releaseDelay
	releaseDelay = 10 * time.Millisecond
	defer func() { releaseDelay = original }()

	jm := NewJobManager()
	job := jm.CreateJob(testConfig(t, 2))
	ch := jm.broadcaster.Subscribe(job.ID)

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	// Buffered events are still delivered, then the channel closes
	var last ProgressEvent
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case event, ok := <-ch:
			if !ok {
				done = true
				break
			}
			last = event
		case <-timeout:
			t.Fatal("Subscriber channel was not released")
		}
	}
	if last.State != StateCompleted {
		t.Errorf("Expected the final event before release, got %+v", last)
	}

	jm.broadcaster.mu.Lock()
	_, cached := jm.broadcaster.lastEvent[job.ID]
	_, subscribed := jm.broadcaster.clients[job.ID]
	jm.broadcaster.mu.Unlock()
	if cached || subscribed {
		t.Errorf("Broadcaster still holds state for %s (cached=%v, subscribed=%v)", job.ID, cached, subscribed)
	}
}

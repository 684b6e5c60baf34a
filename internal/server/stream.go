package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProgressEvent represents a progress update event for one run
type ProgressEvent struct {
	RunID       string   `json:"runId"`
	State       JobState `json:"state"`
	Generation  int      `json:"generation"`
	Evaluations int      `json:"evaluations"`
	ArchiveSize int      `json:"archiveSize"`

	// Hypervolume is set on the final event of a completed or cancelled run
	Hypervolume float64   `json:"hypervolume,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func eventFromJob(job Job) ProgressEvent {
	return ProgressEvent{
		RunID:       job.ID,
		State:       job.State,
		Generation:  job.Generation,
		Evaluations: job.Evaluations,
		ArchiveSize: job.ArchiveSize,
		Hypervolume: job.Hypervolume,
		Timestamp:   time.Now(),
	}
}

// EventBroadcaster fans progress events out to the SSE clients of each run and
// remembers the last event per run for clients that subscribe late.
type EventBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]map[chan ProgressEvent]struct{}
	lastEvent map[string]ProgressEvent
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan ProgressEvent]struct{}),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe registers a client for runID. The returned channel first carries the
// last event of the run, if any.
func (eb *EventBroadcaster) Subscribe(runID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 10)
	if eb.clients[runID] == nil {
		eb.clients[runID] = make(map[chan ProgressEvent]struct{})
	}
	eb.clients[runID][ch] = struct{}{}

	if last, ok := eb.lastEvent[runID]; ok {
		ch <- last
	}

	slog.Debug("SSE client subscribed", "run_id", runID, "total_clients", len(eb.clients[runID]))
	return ch
}

// Unsubscribe removes and closes ch. It is a no-op if ch was already released.
func (eb *EventBroadcaster) Unsubscribe(runID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients := eb.clients[runID]
	if _, ok := clients[ch]; !ok {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, runID)
	}
	slog.Debug("SSE client unsubscribed", "run_id", runID)
}

// Broadcast records event as the run's last event and offers it to every
// subscriber. Clients whose buffer is full miss the event.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.RunID] = event
	for ch := range eb.clients[event.RunID] {
		select {
		case ch <- event:
		default:
			slog.Warn("SSE channel full, skipping event", "run_id", event.RunID, "generation", event.Generation)
		}
	}
}

// Release closes every client of runID and forgets its last event.
func (eb *EventBroadcaster) Release(runID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.release(runID)
}

// CloseAll releases every run. Open streams end when their channel closes.
func (eb *EventBroadcaster) CloseAll() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for runID := range eb.clients {
		eb.release(runID)
	}
	clear(eb.lastEvent)
}

func (eb *EventBroadcaster) release(runID string) {
	for ch := range eb.clients[runID] {
		close(ch)
	}
	delete(eb.clients, runID)
	delete(eb.lastEvent, runID)
}

// handleJobStream handles SSE connections for run progress.
// The stream ends after the event announcing a terminal state.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, runID string) {
	// Check if job exists
	job, exists := s.jobManager.GetJob(runID)
	if !exists {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Get flusher
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe to events
	eventChan := s.jobManager.broadcaster.Subscribe(runID)
	defer s.jobManager.broadcaster.Unsubscribe(runID, eventChan)

	// Send initial event with current job state
	if err := writeSSEEvent(w, eventFromJob(job)); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()
	if job.State.Finished() {
		return
	}

	// Set up ping ticker to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	// Listen for events and client disconnect
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			slog.Debug("SSE client disconnected", "run_id", runID)
			return

		case event, ok := <-eventChan:
			if !ok {
				// Channel closed
				return
			}

			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()
			if event.State.Finished() {
				return
			}

		case <-pingTicker.C:
			// Send ping to keep connection alive
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes event as a named "progress" event whose id is the generation
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: progress\nid: %d\ndata: %s\n\n", event.Generation, data)
	return err
}

package store

// Store defines the interface for run persistence operations.
// Implementations must be thread-safe and handle concurrent access gracefully.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Return descriptive errors for I/O, serialization, or validation failures
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun saves a run result under result.ID.
	// If a run with this ID already exists, it is overwritten.
	// The result is validated first; invalid results return a *ValidationError.
	SaveRun(result *RunResult) error

	// LoadRun retrieves the run with the given ID.
	// Returns ErrNotFound if no run exists for this ID.
	LoadRun(id string) (*RunResult, error)

	// ListRuns returns metadata for all stored runs, newest first.
	// The returned slice may be empty if no runs exist.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the run and all associated artifacts
	// (result, front files and trace).
	//
	// Returns ErrNotFound if no run exists for this ID.
	DeleteRun(id string) error

	// Close releases the resources held by the store.
	Close() error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "run not found: " + e.ID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Open returns the store backend named by kind ("fs" or "badger") rooted at dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(dir)
	case "badger":
		return NewBadgerStore(dir)
	default:
		return nil, &ValidationError{Field: "store", Reason: "must be fs or badger, got " + kind}
	}
}

package store

import (
	"fmt"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/cwbudde/paretoswarm/internal/indicator"
	"github.com/cwbudde/paretoswarm/internal/moo"
	"github.com/cwbudde/paretoswarm/internal/problem"
	"github.com/cwbudde/paretoswarm/internal/smpso"
)

// DefaultProblem is used when a run configuration names no problem.
const DefaultProblem = "zdt4"

// ReferenceOffset shifts the benchmark nadir to get the reported hypervolume reference.
const ReferenceOffset = 0.1

// RunConfig describes one optimization run: the benchmark plus the optimizer
// settings. The smpso.Config fields are inlined in JSON and YAML.
type RunConfig struct {
	Problem    string `json:"problem"`
	Variables  int    `json:"variables,omitempty"`
	Objectives int    `json:"objectives,omitempty"`

	smpso.Config
}

// LoadProblem resolves the benchmark this configuration names.
func (c RunConfig) LoadProblem() (problem.Benchmark, error) {
	return problem.Load(c.Problem, c.Variables, c.Objectives)
}

// Validate checks the problem reference and the optimizer settings.
func (c RunConfig) Validate() error {
	if c.Problem == "" {
		return &ValidationError{Field: "Problem", Reason: "cannot be empty"}
	}
	if _, err := c.LoadProblem(); err != nil {
		return err
	}
	return c.Config.Validate()
}

// DefaultRunConfig returns the standard settings for the named problem.
func DefaultRunConfig(problemName string) (*RunConfig, error) {
	return ParseRunConfig([]byte(fmt.Sprintf("problem: %q", problemName)))
}

// ParseRunConfig decodes a YAML or JSON run description. Fields absent from data
// take the defaults for the named problem, including mutation probability 1/n.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	var head RunConfig
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	if head.Problem == "" {
		head.Problem = DefaultProblem
	}
	p, err := head.LoadProblem()
	if err != nil {
		return nil, err
	}

	cfg := &RunConfig{
		Problem: head.Problem,
		Config:  smpso.DefaultConfig(p.NumberOfVariables()),
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	if cfg.Problem == "" {
		cfg.Problem = DefaultProblem
	}
	cfg.Variables = p.NumberOfVariables()
	cfg.Objectives = p.NumberOfObjectives()
	return cfg, nil
}

// FrontPoint is one member of a stored front.
type FrontPoint struct {
	Variables  []float64 `json:"variables"`
	Objectives []float64 `json:"objectives"`
}

// FrontFromSolutions copies solutions into their stored form.
func FrontFromSolutions(solutions []*moo.Solution) []FrontPoint {
	front := make([]FrontPoint, len(solutions))
	for i, s := range solutions {
		front[i] = FrontPoint{
			Variables:  append([]float64(nil), s.Variables...),
			Objectives: append([]float64(nil), s.Objectives...),
		}
	}
	return front
}

// Objectives returns the objective vectors of the front in order.
func Objectives(front []FrontPoint) [][]float64 {
	out := make([][]float64, len(front))
	for i, p := range front {
		out[i] = p.Objectives
	}
	return out
}

// RunResult is a finished (or canceled) run as persisted by a Store.
type RunResult struct {
	// ID is the unique identifier of the run
	ID string `json:"id"`

	Config RunConfig `json:"config"`

	// Seed is the generator seed actually used, also when Config.Seed was 0
	Seed uint64 `json:"seed"`

	Generations int `json:"generations"`
	Evaluations int `json:"evaluations"`

	// Hypervolume of the front against Reference
	Hypervolume float64   `json:"hypervolume"`
	Reference   []float64 `json:"reference,omitempty"`

	Canceled bool `json:"canceled,omitempty"`

	// Elapsed is the wall time of the run
	Elapsed time.Duration `json:"elapsed"`

	Timestamp time.Time `json:"timestamp"`

	Front []FrontPoint `json:"front"`
}

// NewRunResult snapshots an engine result. The hypervolume reference point is the
// benchmark's nadir shifted by ReferenceOffset.
func NewRunResult(id string, config RunConfig, res *smpso.Result, elapsed time.Duration) *RunResult {
	front := FrontFromSolutions(res.Front)
	r := &RunResult{
		ID:          id,
		Config:      config,
		Seed:        res.Seed,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Canceled:    res.Canceled,
		Elapsed:     elapsed,
		Timestamp:   time.Now(),
		Front:       front,
	}
	if p, err := config.LoadProblem(); err == nil {
		r.Reference = problem.ReferencePoint(p, ReferenceOffset)
		r.Hypervolume = indicator.Hypervolume(Objectives(front), r.Reference)
	}
	return r
}

// RunInfo contains metadata about a stored run without the front itself.
type RunInfo struct {
	ID          string    `json:"id"`
	Problem     string    `json:"problem"`
	Generations int       `json:"generations"`
	Evaluations int       `json:"evaluations"`
	FrontSize   int       `json:"frontSize"`
	Hypervolume float64   `json:"hypervolume"`
	Canceled    bool      `json:"canceled,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	// Size is the number of bytes the run occupies in the store
	Size int64 `json:"size"`
}

// ToInfo converts a full RunResult to RunInfo (metadata only).
func (r *RunResult) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		Problem:     r.Config.Problem,
		Generations: r.Generations,
		Evaluations: r.Evaluations,
		FrontSize:   len(r.Front),
		Hypervolume: r.Hypervolume,
		Canceled:    r.Canceled,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the result has valid data.
// Returns an error if any required field is missing or invalid.
func (r *RunResult) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Evaluations < 0 {
		return &ValidationError{Field: "Evaluations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	for i, p := range r.Front {
		if r.Config.Variables > 0 && len(p.Variables) != r.Config.Variables {
			return &ValidationError{
				Field:  fmt.Sprintf("Front[%d].Variables", i),
				Reason: fmt.Sprintf("length mismatch: expected %d, got %d", r.Config.Variables, len(p.Variables)),
			}
		}
		if r.Config.Objectives > 0 && len(p.Objectives) != r.Config.Objectives {
			return &ValidationError{
				Field:  fmt.Sprintf("Front[%d].Objectives", i),
				Reason: fmt.Sprintf("length mismatch: expected %d, got %d", r.Config.Objectives, len(p.Objectives)),
			}
		}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

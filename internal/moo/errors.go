package moo

import "fmt"

// ErrConfiguration matches any *ConfigurationError.
// Use errors.Is(err, ErrConfiguration) to check for this error.
var ErrConfiguration = &ConfigurationError{}

// ErrEvaluation matches any *EvaluationError.
var ErrEvaluation = &EvaluationError{}

// ErrDimensionMismatch matches any *DimensionMismatchError.
var ErrDimensionMismatch = &DimensionMismatchError{}

// ConfigurationError reports an invalid parameter detected at construction time.
// It is never recovered from: the run does not start.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error"
	}
	return "configuration error: " + e.Field + " " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// EvaluationError wraps a failure reported by Problem.Evaluate.
// Evaluators are deterministic, so these are never retried.
type EvaluationError struct {
	Problem string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Err == nil {
		return "evaluation error"
	}
	if e.Problem == "" {
		return "evaluation error: " + e.Err.Error()
	}
	return "evaluation error in " + e.Problem + ": " + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Is(target error) bool {
	_, ok := target.(*EvaluationError)
	return ok
}

// DimensionMismatchError reports vectors whose length disagrees with the declared
// dimensionality. It indicates an integration bug.
type DimensionMismatchError struct {
	What     string // "variables" or "objectives"
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	if e.What == "" {
		return "dimension mismatch"
	}
	return fmt.Sprintf("dimension mismatch: %s expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)
	return ok
}

package model

import (
	"errors"
	"fmt"
)

// Error kinds exposed to callers alongside the human-readable message.
const (
	KindInsufficientHistory = "insufficient_history"
	KindTraining            = "training_error"
	KindNoViableCandidate   = "no_viable_candidate"
	KindInvalidConfig       = "invalid_config"
	KindSolverInfeasible    = "solver_infeasible"
	KindInternal            = "internal"
)

// InsufficientHistoryError means the historical window is too short to build
// calendar and lag features. Fatal; no partial result is produced.
type InsufficientHistoryError struct {
	Days     int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %d days available, %d required", e.Days, e.Required)
}

// Kind returns the machine-readable error kind.
func (e *InsufficientHistoryError) Kind() string { return KindInsufficientHistory }

// TrainingError means a single candidate failed to train. It is absorbed by
// the selector unless it eliminates the whole pool.
type TrainingError struct {
	Candidate string
	Reason    string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s: %s", e.Candidate, e.Reason)
}

func (e *TrainingError) Kind() string { return KindTraining }

// NoViableCandidateError means every candidate in the pool failed to train.
type NoViableCandidateError struct {
	Failures map[string]string
}

func (e *NoViableCandidateError) Error() string {
	return fmt.Sprintf("no viable forecast candidate: %d candidates failed", len(e.Failures))
}

func (e *NoViableCandidateError) Kind() string { return KindNoViableCandidate }

// InvalidConfigError rejects malformed battery or price configuration before
// any expensive work starts.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Kind() string { return KindInvalidConfig }

// SolverInfeasibleError is defensive: the zero-action schedule is always
// feasible, so infeasibility indicates a modeling or configuration bug and is
// surfaced rather than silently defaulted.
type SolverInfeasibleError struct {
	Reason string
}

func (e *SolverInfeasibleError) Error() string {
	return fmt.Sprintf("solver infeasible: %s", e.Reason)
}

func (e *SolverInfeasibleError) Kind() string { return KindSolverInfeasible }

// kinder is implemented by all domain errors.
type kinder interface{ Kind() string }

// ErrorKind extracts the machine-readable kind from an error chain, falling
// back to "internal" for unclassified errors.
func ErrorKind(err error) string {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return errors.Is(err, ErrNoSolution)
}

var (
	// ErrInfeasible is returned when a constraint system has no solution.
	// Expected outcome, never fatal: the loop consumes an attempt, the swap
	// chain falls through to the next strategy.
	ErrInfeasible = errors.New("model infeasible")

	// ErrNoSolution is returned when a solve timed out or came back unknown.
	// Treated exactly like "no solution found", always safe to retry.
	ErrNoSolution = errors.New("no solution within budget")

	// ErrEmptyPool is returned when a build starts from a pool with no
	// eligible players.
	ErrEmptyPool = errors.New("player pool is empty")
)

// IsInfeasible reports whether err means the constraint system had no
// solution.
func IsInfeasible(err error) bool {
	return errors.Is(err, ErrInfeasible)
}

// IsNoSolution reports whether err means the solver gave up within budget.
func IsNoSolution(err error) bool {
	return errors.Is(err, ErrNoSolution)
}

// ModelError represents a malformed or contradictory constraint registration.
// Fatal to the attempt that built it, never to the run.
type ModelError struct {
	Stage string // build stage that failed (e.g. "stacking", "uniqueness")
	Err   error
}

func (e *ModelError) Error() string {
	return "model error [" + e.Stage + "]: " + e.Err.Error()
}

func (e *ModelError) IsRetriable() bool {
	return false
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError for the given build stage.
func NewModelError(stage string, err error) *ModelError {
	return &ModelError{Stage: stage, Err: err}
}

// DataError represents an unusable player record. The domain model cannot be
// trusted after one of these, so it aborts the run immediately.
type DataError struct {
	Row   int    // 1-based source row, 0 when unknown
	Field string // offending column
	Err   error
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("data error [row %d, %s]: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %v", e.Field, e.Err)
}

func (e *DataError) IsRetriable() bool {
	return false
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a DataError with row and field context.
func NewDataError(row int, field string, err error) *DataError {
	return &DataError{Row: row, Field: field, Err: err}
}

// ValidationError carries the violation list of a rejected lineup. Inside
// loops these are discarded silently; services may surface them for
// diagnostics.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "lineup validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) IsRetriable() bool {
	return false
}

package logic

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors, matched with errors.Is against the typed errors below.
var (
	ErrInvalidHour         = errors.New("invalid hour")
	ErrInvalidState        = errors.New("invalid state")
	ErrMissingField        = errors.New("missing field")
	ErrInvalidDate         = errors.New("invalid date")
	ErrOutOfOrder          = errors.New("event out of order")
	ErrBeforeTimelineStart = errors.New("query before timeline start")
	ErrNoUpcomingChange    = errors.New("no upcoming change")
	ErrInsufficientData    = errors.New("insufficient data")
)

// ParseError reports a single malformed record.
type ParseError struct {
	// Line is the 1-based position of the record in its source.
	Line  int
	Kind  error
	Field string
	Value string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d: %v: %s=%q", e.Line, e.Kind, e.Field, e.Value)
	}
	return fmt.Sprintf("record %d: %v", e.Line, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// ResolutionError reports why a timeline could not be resolved at an instant.
type ResolutionError struct {
	Kind error
	At   time.Time
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve at %s: %v", e.At.Format(time.RFC3339), e.Kind)
}

func (e *ResolutionError) Unwrap() error {
	return e.Kind
}

// AnalysisError reports why a cycle pattern could not be inferred.
type AnalysisError struct {
	Kind        error
	Transitions int
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze cycle: %v (%d transitions)", e.Kind, e.Transitions)
}

func (e *AnalysisError) Unwrap() error {
	return e.Kind
}

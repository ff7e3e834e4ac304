package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed session errors through errors.Is.
var (
	ErrInvalidState      = errors.New("invalid session state")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrProfilingFailure  = errors.New("profiling failure")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrSessionReset      = errors.New("session was reset while diagnostics were running")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// InvalidStateError is returned when an operation is attempted outside the
// states that allow it. The session is left unchanged.
type InvalidStateError struct {
	Op       Operation
	Current  State
	Required []State
}

func (e *InvalidStateError) Error() string {
	required := make([]string, len(e.Required))
	for i, s := range e.Required {
		required[i] = s.String()
	}
	return fmt.Sprintf("cannot %s in state %s: requires %s", e.Op, e.Current, strings.Join(required, " or "))
}

// Is matches ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// UnknownColumnError is returned when a target column is not in the dataset schema.
type UnknownColumnError struct {
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q not found in dataset (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// Is matches ErrUnknownColumn.
func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// ProfilingError is returned when the diagnostic pipeline could not complete.
// Stage names the pipeline stage that failed (profile, classify, synthesize).
type ProfilingError struct {
	Stage string
	Err   error
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("diagnostics failed during %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProfilingError) Unwrap() error { return e.Err }

// Is matches ErrProfilingFailure.
func (e *ProfilingError) Is(target error) bool { return target == ErrProfilingFailure }

// PermissionDeniedError is returned when modeling is requested for a BLOCKED dataset.
type PermissionDeniedError struct {
	Verdict Verdict
	// Reasons lists the check names of the critical findings.
	Reasons []string
}

func (e *PermissionDeniedError) Error() string {
	msg := fmt.Sprintf("modeling not permitted: verdict is %s", e.Verdict)
	if len(e.Reasons) > 0 {
		msg += " (critical: " + strings.Join(e.Reasons, ", ") + ")"
	}
	return msg
}

// Is matches ErrPermissionDenied.
func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

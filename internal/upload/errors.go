package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFiles indicates an upload was attempted with nothing selected.
	ErrNoFiles = errors.New("no files selected")

	// ErrBusy indicates a selection change or reset was attempted while
	// a conflict check or submission is in flight.
	ErrBusy = errors.New("batch is busy; wait for the current operation to finish")

	// ErrInvalidState indicates an operation that is not legal in the
	// batch's current state, such as submitting before the conflict check.
	ErrInvalidState = errors.New("operation not allowed in current batch state")

	// ErrUnresolvedConflicts indicates a submission attempt while one or
	// more detected conflicts still lack a resolution.
	ErrUnresolvedConflicts = errors.New("unresolved conflicts remain")
)

// ConflictCheckError wraps a failed conflict pre-check. The batch is
// blocked and retryable; a failed check is never treated as "no
// conflicts".
type ConflictCheckError struct {
	Err error
}

func (e *ConflictCheckError) Error() string {
	return fmt.Sprintf("conflict check failed: %v", e.Err)
}

func (e *ConflictCheckError) Unwrap() error { return e.Err }

// SubmissionError wraps a transport-level failure of the batched
// upload: no response, or a non-2xx status with no partial data. Every
// task is failed with a generic reason and the batch stays
// resubmittable.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("upload submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

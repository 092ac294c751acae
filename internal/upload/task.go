// Package upload implements the batched upload workflow: file
// selection, the conflict pre-check, per-file resolution choices, and
// the orchestrated submission that applies every resolution in one
// request.
package upload

import (
	"sync"

	"github.com/google/uuid"

	"github.com/printstash/printstash/internal/models"
)

// TaskStatus represents the current status of an upload task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"   // Created at selection time
	TaskUploading TaskStatus = "uploading" // Batch request in flight
	TaskCompleted TaskStatus = "completed" // Stored by the server (possibly renamed)
	TaskSkipped   TaskStatus = "skipped"   // Discarded per skip resolution
	TaskFailed    TaskStatus = "failed"    // Errored server-side or transport failure
)

// IsTerminal reports whether the status is a terminal one.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskSkipped || s == TaskFailed
}

// Task tracks one locally selected file through the upload workflow.
// Created at selection time, mutated only by the orchestrator as the
// batch progresses, discarded when the batch is reset.
// Thread-safe: use the provided methods to read and update state.
type Task struct {
	ID       string // Unique within a batch, generated at selection time
	Filename string // Original name of the selected file (not yet resolved)
	Path     string // Local path the bytes are read from
	Size     int64  // Byte length, informational only

	status   TaskStatus
	progress int // 0-100, advisory
	conflict *models.FileConflict
	err      error

	mu sync.RWMutex
}

// NewTask creates a pending task for one selected file.
func NewTask(file LocalFile) *Task {
	return &Task{
		ID:       uuid.NewString(),
		Filename: file.Name,
		Path:     file.Path,
		Size:     file.Size,
		status:   TaskPending,
	}
}

// Status returns the current status (thread-safe).
func (t *Task) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetStatus updates the task status.
func (t *Task) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if status == TaskCompleted {
		t.progress = 100
	}
}

// Progress returns the advisory progress value (0-100).
func (t *Task) Progress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

// SetProgress updates the advisory progress value.
func (t *Task) SetProgress(progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	t.progress = progress
}

// Conflict returns the detected conflict for this filename, if any.
func (t *Task) Conflict() *models.FileConflict {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conflict
}

// SetConflict annotates the task with a detected conflict.
// A nil conflict clears the annotation.
func (t *Task) SetConflict(c *models.FileConflict) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conflict = c
}

// Err returns the failure reason, if any.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Fail marks the task failed with the given reason.
func (t *Task) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskFailed
	t.err = err
}

// ResetOutcome returns the task to pending, clearing any failure and
// progress from a previous attempt. The conflict annotation is cleared
// separately because conflicts have their own invalidation rules.
func (t *Task) ResetOutcome() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskPending
	t.progress = 0
	t.err = nil
}

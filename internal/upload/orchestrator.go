package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/printstash/printstash/internal/api"
	"github.com/printstash/printstash/internal/events"
	"github.com/printstash/printstash/internal/logging"
	"github.com/printstash/printstash/internal/models"
)

// State identifies the batch's position in the upload workflow.
type State string

const (
	StateIdle       State = "idle"       // Nothing selected
	StateSelected   State = "selected"   // Files chosen, not yet checked
	StateChecking   State = "checking"   // Conflict pre-check in flight
	StateChecked    State = "checked"    // Pre-check returned zero conflicts
	StateResolving  State = "resolving"  // Conflicts found, awaiting resolutions
	StateSubmitting State = "submitting" // Batched upload in flight
	StateSucceeded  State = "succeeded"  // Response received (mixed outcomes allowed)
	StateFailed     State = "failed"     // Transport-level failure, resubmittable
)

// Service is the collaborator surface the orchestrator drives.
// Implemented by the api client; faked in tests.
type Service interface {
	ConflictService
	UploadFiles(ctx context.Context, projectID string, files []api.FilePart, resolutions map[string]string, progress api.ProgressFunc) (*models.UploadResult, error)
	ListFiles(ctx context.Context, projectID string) (*models.FileListResponse, error)
}

// Orchestrator owns one upload batch end to end: the selection store,
// conflict results, resolution registry and task list form a single
// aggregate whose only mutation surface is the guarded transitions
// below.
//
// Workflow: AddFiles → Check → (Resolve…) → Submit. Check is mandatory;
// Submit refuses to run without either a clean check or a complete
// resolution map. The two network calls are the only suspension points,
// and the Checking/Submitting states act as a mutex: selection changes,
// reset and a second submission are rejected while one is in flight.
// Every transition re-checks the current state under the lock, so a
// double invocation cannot double-submit.
type Orchestrator struct {
	projectID string
	svc       Service
	bus       *events.Bus
	log       *logging.Logger

	mu        sync.Mutex
	state     State
	store     *SelectionStore
	registry  *ResolutionRegistry
	conflicts []models.FileConflict
	outcome   *Outcome
}

// NewOrchestrator creates an idle orchestrator for one target project.
// The bus may be nil when no display wants events.
func NewOrchestrator(projectID string, svc Service, bus *events.Bus, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		projectID: projectID,
		svc:       svc,
		bus:       bus,
		log:       log,
		state:     StateIdle,
		store:     NewSelectionStore(),
		registry:  NewResolutionRegistry(),
	}
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Tasks returns the current task list in selection order.
func (o *Orchestrator) Tasks() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Tasks()
}

// Conflicts returns the conflicts from the last completed check.
func (o *Orchestrator) Conflicts() []models.FileConflict {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.FileConflict(nil), o.conflicts...)
}

// Outcome returns the last terminal outcome, or nil.
func (o *Orchestrator) Outcome() *Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// AddFiles adds files to the selection. Rejected while a check or
// submission is in flight. Selecting files after a completed check
// invalidates all prior conflicts and resolutions: conflicts are only
// valid against the last-checked filename set.
func (o *Orchestrator) AddFiles(files ...LocalFile) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateChecking || o.state == StateSubmitting {
		return ErrBusy
	}

	o.store.Add(files...)
	o.invalidateCheckLocked()
	o.state = StateSelected

	o.publish(events.BatchEvent{
		BaseEvent: events.NewBase(events.EventBatchSelected),
		ProjectID: o.projectID,
		FileCount: o.store.Len(),
	})
	return nil
}

// RemoveFile removes one selected file (and its task) by task id.
// Like AddFiles, it invalidates any prior check.
func (o *Orchestrator) RemoveFile(taskID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateChecking || o.state == StateSubmitting {
		return ErrBusy
	}
	if !o.store.Remove(taskID) {
		return fmt.Errorf("no task with id %s", taskID)
	}

	o.invalidateCheckLocked()
	if o.store.Len() == 0 {
		o.state = StateIdle
	} else {
		o.state = StateSelected
	}
	return nil
}

// Check runs the mandatory conflict pre-check. Legal from Selected (the
// first upload action) and from Failed (retrying the same batch, which
// re-checks against current project state). Returns the conflicts
// found; zero conflicts moves the batch straight to Checked so
// submission can proceed without a resolution step.
func (o *Orchestrator) Check(ctx context.Context) ([]models.FileConflict, error) {
	o.mu.Lock()
	if o.state != StateSelected && o.state != StateFailed {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: check requires a fresh selection (state %s)", ErrInvalidState, o.state)
	}
	if o.store.Len() == 0 {
		o.mu.Unlock()
		return nil, ErrNoFiles
	}
	retrying := o.state == StateFailed
	o.state = StateChecking
	// Annotations always reflect the latest check; the checker re-adds
	// them from the fresh result.
	for _, t := range o.store.Tasks() {
		t.SetConflict(nil)
		t.ResetOutcome()
	}
	o.outcome = nil
	store := o.store
	o.mu.Unlock()

	checker := NewConflictChecker(o.svc)
	conflicts, err := checker.Check(ctx, o.projectID, store)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		// Blocked, not "no conflicts": back to Selected for a retry.
		o.state = StateSelected
		o.log.Error().Err(err).Str("project", o.projectID).Msg("conflict check failed")
		return nil, err
	}

	o.conflicts = conflicts
	if !retrying {
		// A fresh batch starts with an empty resolution map so the
		// explicit-choice invariant is enforced, not defaulted. On a
		// retry the registry survives; resolutions for conflicts that
		// no longer exist become inert.
		o.registry.Reset()
	}

	if len(conflicts) == 0 {
		o.state = StateChecked
		o.log.Debug().Str("project", o.projectID).Msg("no conflicts; batch ready to submit")
	} else {
		o.state = StateResolving
		o.log.Info().Int("conflicts", len(conflicts)).Str("project", o.projectID).
			Msg("conflicts detected; resolutions required")
		o.publish(events.BatchEvent{
			BaseEvent: events.NewBase(events.EventConflictsFound),
			ProjectID: o.projectID,
			FileCount: o.store.Len(),
			Conflicts: len(conflicts),
		})
	}
	return append([]models.FileConflict(nil), conflicts...), nil
}

// Resolve records the resolution for one conflicting filename.
// Last write wins. Only legal while the batch is resolving.
func (o *Orchestrator) Resolve(filename string, resolution Resolution) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateResolving {
		return fmt.Errorf("%w: no conflicts awaiting resolution (state %s)", ErrInvalidState, o.state)
	}
	o.registry.Set(filename, resolution)
	return nil
}

// ResolutionsComplete reports whether every detected conflict has a
// resolution. Submission is enabled exactly when this turns true.
func (o *Orchestrator) ResolutionsComplete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.IsComplete(o.conflicts)
}

// Unresolved returns the conflict filenames still lacking a resolution.
func (o *Orchestrator) Unresolved() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.registry.Missing(o.conflicts)
}

// Submit issues the single batched upload request. Legal from Checked,
// or from Resolving once every conflict has a resolution. The request
// carries all selected files plus the serialized resolution map; the
// server applies policies per file and may return a mixed outcome,
// which is projected onto the tasks. Partial failure is an expected
// outcome; only a transport-level failure moves the batch to Failed.
func (o *Orchestrator) Submit(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	switch o.state {
	case StateChecked:
	case StateResolving:
		if !o.registry.IsComplete(o.conflicts) {
			missing := o.registry.Missing(o.conflicts)
			o.mu.Unlock()
			return nil, fmt.Errorf("%w: %d conflict(s) unresolved", ErrUnresolvedConflicts, len(missing))
		}
	default:
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: submit requires a completed conflict check (state %s)", ErrInvalidState, o.state)
	}

	o.state = StateSubmitting
	files := make([]api.FilePart, 0, o.store.Len())
	for _, f := range o.store.Files() {
		files = append(files, api.FilePart{Name: f.Name, Path: f.Path, Size: f.Size})
	}
	wire := o.registry.WireFormat(o.conflicts)
	tasks := o.store.Tasks()
	for _, t := range tasks {
		t.SetStatus(TaskUploading)
	}
	o.mu.Unlock()

	o.publish(events.BatchEvent{
		BaseEvent: events.NewBase(events.EventBatchSubmitting),
		ProjectID: o.projectID,
		FileCount: len(files),
		Conflicts: len(o.conflicts),
	})

	result, err := o.svc.UploadFiles(ctx, o.projectID, files, wire, o.reportProgress)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		subErr := &SubmissionError{Err: err}
		for _, t := range tasks {
			t.Fail(fmt.Errorf("upload failed: %w", err))
			o.publishTask(t)
		}
		o.state = StateFailed
		o.log.Error().Err(err).Str("project", o.projectID).Msg("batch submission failed")
		o.publish(events.BatchEvent{
			BaseEvent: events.NewBase(events.EventBatchFailed),
			ProjectID: o.projectID,
			FileCount: len(files),
			Err:       subErr,
		})
		return nil, subErr
	}

	outcome, defects := ApplyResult(tasks, wire, result)
	for _, d := range defects {
		o.log.Error().Str("project", o.projectID).Msg(d)
	}
	for _, t := range tasks {
		o.publishTask(t)
	}

	o.outcome = &outcome
	o.state = StateSucceeded
	o.log.Info().Int("uploaded", outcome.Uploaded).Int("skipped", outcome.Skipped).
		Int("failed", outcome.Failed).Str("project", o.projectID).Msg("batch completed")
	o.publish(events.OutcomeEvent{
		BaseEvent: events.NewBase(events.EventBatchCompleted),
		Uploaded:  outcome.Uploaded,
		Skipped:   outcome.Skipped,
		Failed:    outcome.Failed,
	})

	o.refreshFileList()
	return &outcome, nil
}

// Reset clears selection, tasks, conflicts and resolutions. Not
// permitted while a check or submission is in flight: an in-flight
// batch must reach a terminal state before being abandoned.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateChecking || o.state == StateSubmitting {
		return ErrBusy
	}

	o.store.Reset()
	o.registry.Reset()
	o.conflicts = nil
	o.outcome = nil
	o.state = StateIdle
	return nil
}

// invalidateCheckLocked drops conflicts and resolutions after a
// selection change. A stale resolution must never apply to a file that
// was not re-checked against current project state.
func (o *Orchestrator) invalidateCheckLocked() {
	o.conflicts = nil
	o.registry.Reset()
	o.outcome = nil
	for _, t := range o.store.Tasks() {
		t.SetConflict(nil)
		t.ResetOutcome()
	}
}

// reportProgress fans byte progress out to the event bus and tasks.
// Per-file progress is not observable inside a single multipart
// request, so every in-flight task carries the batch percentage.
func (o *Orchestrator) reportProgress(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 100 / total)
	for _, t := range o.store.Tasks() {
		if t.Status() == TaskUploading {
			t.SetProgress(pct)
		}
	}
	o.publish(events.ProgressEvent{
		BaseEvent:  events.NewBase(events.EventBatchProgress),
		BytesSent:  sent,
		BytesTotal: total,
	})
}

// refreshFileList re-reads the project's stored files after a batch so
// listeners see server truth, renamed files included. Failures are
// logged, not surfaced: the refresh is an opaque trigger.
func (o *Orchestrator) refreshFileList() {
	if _, err := o.svc.ListFiles(context.Background(), o.projectID); err != nil {
		o.log.Warn().Err(err).Str("project", o.projectID).Msg("post-upload file list refresh failed")
	}
}

func (o *Orchestrator) publish(ev events.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func (o *Orchestrator) publishTask(t *Task) {
	if o.bus == nil {
		return
	}
	reason := ""
	if err := t.Err(); err != nil {
		reason = err.Error()
	}
	o.bus.Publish(events.TaskEvent{
		BaseEvent: events.NewBase(events.EventTaskUpdated),
		TaskID:    t.ID,
		Filename:  t.Filename,
		Status:    string(t.Status()),
		Reason:    reason,
	})
}

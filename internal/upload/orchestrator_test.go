package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/printstash/printstash/internal/api"
	"github.com/printstash/printstash/internal/events"
	"github.com/printstash/printstash/internal/logging"
	"github.com/printstash/printstash/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("cannot write %s: %v", path, err)
	}
}

// fakeService implements Service for orchestrator tests.
type fakeService struct {
	mu sync.Mutex

	conflicts []models.FileConflict
	checkErr  error
	result    *models.UploadResult
	uploadErr error

	checkCalls      int
	uploadCalls     int
	listCalls       int
	lastChecked     []string
	lastFiles       []api.FilePart
	lastResolutions map[string]string

	uploadGate chan struct{} // when non-nil, UploadFiles blocks until closed
}

func (f *fakeService) CheckConflicts(ctx context.Context, projectID string, filenames []string) ([]models.FileConflict, error) {
	f.mu.Lock()
	f.checkCalls++
	f.lastChecked = append([]string(nil), filenames...)
	f.mu.Unlock()
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.conflicts, nil
}

func (f *fakeService) UploadFiles(ctx context.Context, projectID string, files []api.FilePart, resolutions map[string]string, progress api.ProgressFunc) (*models.UploadResult, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.lastFiles = append([]api.FilePart(nil), files...)
	f.lastResolutions = resolutions
	gate := f.uploadGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if progress != nil {
		var total int64
		for _, p := range files {
			total += p.Size
		}
		progress(total, total)
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.result, nil
}

func (f *fakeService) ListFiles(ctx context.Context, projectID string) (*models.FileListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return &models.FileListResponse{}, nil
}

func newTestOrchestrator(t *testing.T, svc Service) *Orchestrator {
	t.Helper()
	return NewOrchestrator("proj-1", svc, nil, logging.NewDefaultLogger())
}

func selectFiles(t *testing.T, o *Orchestrator, names ...string) {
	t.Helper()
	dir := t.TempDir()
	files := make([]LocalFile, 0, len(names))
	for _, n := range names {
		path := filepath.Join(dir, n)
		writeFile(t, path, "content of "+n)
		f, err := NewLocalFile(path)
		if err != nil {
			t.Fatalf("NewLocalFile(%s): %v", n, err)
		}
		files = append(files, f)
	}
	if err := o.AddFiles(files...); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
}

func TestZeroConflictsGoesStraightToSubmit(t *testing.T) {
	svc := &fakeService{
		result: &models.UploadResult{
			UploadedCount: 1,
			UploadedFiles: []models.UploadedFile{{Filename: "a.stl"}},
		},
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	conflicts, err := o.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none", conflicts)
	}
	if o.State() != StateChecked {
		t.Fatalf("state = %s, want checked (never resolving)", o.State())
	}

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Uploaded != 1 || outcome.Skipped != 0 || outcome.Failed != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if o.State() != StateSucceeded {
		t.Errorf("state = %s, want succeeded", o.State())
	}
	if o.Tasks()[0].Status() != TaskCompleted {
		t.Errorf("task status = %s", o.Tasks()[0].Status())
	}
	if svc.checkCalls != 1 || svc.uploadCalls != 1 {
		t.Errorf("calls: check=%d upload=%d, want 1/1", svc.checkCalls, svc.uploadCalls)
	}
	if svc.listCalls != 1 {
		t.Errorf("file list refresh calls = %d, want 1", svc.listCalls)
	}
	if len(svc.lastResolutions) != 0 {
		t.Errorf("resolutions sent for clean batch: %v", svc.lastResolutions)
	}
}

func TestConflictBlocksSubmissionUntilResolved(t *testing.T) {
	svc := &fakeService{
		conflicts: conflictsFor("a.stl"),
		result: &models.UploadResult{
			SkippedFiles: []string{"a.stl"},
		},
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	conflicts, err := o.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v", conflicts)
	}
	if o.State() != StateResolving {
		t.Fatalf("state = %s, want resolving", o.State())
	}
	if task := o.Tasks()[0]; task.Conflict() == nil {
		t.Error("task not annotated with its conflict")
	}

	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrUnresolvedConflicts) {
		t.Fatalf("Submit before resolution: err = %v, want ErrUnresolvedConflicts", err)
	}
	if svc.uploadCalls != 0 {
		t.Fatal("upload issued despite unresolved conflicts")
	}

	if err := o.Resolve("a.stl", ResolutionSkip); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !o.ResolutionsComplete() {
		t.Fatal("ResolutionsComplete = false after resolving the only conflict")
	}

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Skipped != 1 || outcome.Uploaded != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if o.Tasks()[0].Status() != TaskSkipped {
		t.Errorf("task status = %s, want skipped", o.Tasks()[0].Status())
	}
	if svc.lastResolutions["a.stl"] != "skip" {
		t.Errorf("wire resolutions = %v", svc.lastResolutions)
	}
}

func TestMixedBatchWithOverwriteAndRename(t *testing.T) {
	svc := &fakeService{
		conflicts: conflictsFor("a.stl", "c.step"),
		result: &models.UploadResult{
			UploadedCount: 3,
			UploadedFiles: []models.UploadedFile{
				{Filename: "a.stl"},
				{Filename: "c_20260901T093000.step"},
				{Filename: "b.gcode"},
			},
		},
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl", "b.gcode", "c.step")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := o.Resolve("a.stl", ResolutionOverwrite); err != nil {
		t.Fatalf("Resolve a.stl: %v", err)
	}
	if err := o.Resolve("c.step", ResolutionRename); err != nil {
		t.Fatalf("Resolve c.step: %v", err)
	}

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Uploaded != 3 || outcome.Skipped != 0 || outcome.Failed != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	for _, task := range o.Tasks() {
		if task.Status() != TaskCompleted {
			t.Errorf("task %s status = %s, want completed", task.Filename, task.Status())
		}
	}
	if len(svc.lastFiles) != 3 {
		t.Errorf("submitted %d file parts, want 3", len(svc.lastFiles))
	}
	want := map[string]string{"a.stl": "overwrite", "c.step": "rename"}
	for name, res := range want {
		if svc.lastResolutions[name] != res {
			t.Errorf("resolution[%s] = %q, want %q", name, svc.lastResolutions[name], res)
		}
	}
	if len(outcome.Renamed) != 1 {
		t.Errorf("Renamed = %v, want the server-chosen variant", outcome.Renamed)
	}
}

func TestTransportFailureKeepsBatchForRetry(t *testing.T) {
	svc := &fakeService{
		conflicts: conflictsFor("a.stl"),
		uploadErr: errors.New("connection reset by peer"),
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := o.Resolve("a.stl", ResolutionOverwrite); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	_, err := o.Submit(context.Background())
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("Submit err = %v, want SubmissionError", err)
	}
	if o.State() != StateFailed {
		t.Fatalf("state = %s, want failed", o.State())
	}
	for _, task := range o.Tasks() {
		if task.Status() != TaskFailed {
			t.Errorf("task %s status = %s, want failed", task.Filename, task.Status())
		}
	}

	// Selection and resolutions survive for a retry of the same batch.
	if len(o.Tasks()) != 1 {
		t.Fatal("selection was discarded on transport failure")
	}
	svc.uploadErr = nil
	svc.result = &models.UploadResult{
		UploadedCount: 1,
		UploadedFiles: []models.UploadedFile{{Filename: "a.stl"}},
	}

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("retry Check: %v", err)
	}
	if !o.ResolutionsComplete() {
		t.Fatal("resolutions should survive a transport failure retry")
	}
	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if outcome.Uploaded != 1 {
		t.Errorf("retry outcome = %+v", outcome)
	}
}

func TestRetryCheckClearsStaleConflictAnnotations(t *testing.T) {
	svc := &fakeService{
		conflicts: conflictsFor("a.stl"),
		uploadErr: errors.New("connection reset by peer"),
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := o.Resolve("a.stl", ResolutionOverwrite); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := o.Submit(context.Background()); err == nil {
		t.Fatal("Submit should have failed at transport level")
	}

	// The stored file disappeared between attempts; the retry's check
	// reports no conflicts and the old annotation must not linger.
	svc.conflicts = nil
	conflicts, err := o.Check(context.Background())
	if err != nil {
		t.Fatalf("retry Check: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("retry conflicts = %v, want none", conflicts)
	}
	if o.State() != StateChecked {
		t.Errorf("state = %s, want checked", o.State())
	}
	if c := o.Tasks()[0].Conflict(); c != nil {
		t.Errorf("task kept stale conflict annotation %+v", c)
	}
}

func TestConflictCheckFailureBlocksBatch(t *testing.T) {
	svc := &fakeService{checkErr: errors.New("upstream timeout")}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	_, err := o.Check(context.Background())
	var checkErr *ConflictCheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("Check err = %v, want ConflictCheckError", err)
	}
	if o.State() != StateSelected {
		t.Errorf("state = %s, want selected (retryable)", o.State())
	}
	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit after failed check: err = %v, want ErrInvalidState", err)
	}
	if svc.uploadCalls != 0 {
		t.Error("a failed check must never be treated as no conflicts")
	}
}

func TestReselectionInvalidatesConflictsAndResolutions(t *testing.T) {
	svc := &fakeService{conflicts: conflictsFor("a.stl")}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := o.Resolve("a.stl", ResolutionOverwrite); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	selectFiles(t, o, "d.3mf")

	if o.State() != StateSelected {
		t.Errorf("state = %s, want selected after re-selection", o.State())
	}
	if len(o.Conflicts()) != 0 {
		t.Error("conflicts survived a selection change")
	}
	for _, task := range o.Tasks() {
		if task.Conflict() != nil {
			t.Errorf("task %s kept a stale conflict annotation", task.Filename)
		}
	}
	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit without re-check: err = %v, want ErrInvalidState", err)
	}
}

func TestResetAndSelectionBlockedWhileSubmitting(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{
		uploadGate: gate,
		result: &models.UploadResult{
			UploadedCount: 1,
			UploadedFiles: []models.UploadedFile{{Filename: "a.stl"}},
		},
	}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Submit(context.Background())
	}()

	waitForState(t, o, StateSubmitting)

	if err := o.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while submitting: err = %v, want ErrBusy", err)
	}
	if err := o.AddFiles(LocalFile{Name: "x.stl", Path: "/tmp/x.stl"}); !errors.Is(err, ErrBusy) {
		t.Errorf("AddFiles while submitting: err = %v, want ErrBusy", err)
	}

	close(gate)
	<-done

	if err := o.Reset(); err != nil {
		t.Errorf("Reset after terminal state: %v", err)
	}
	if o.State() != StateIdle || len(o.Tasks()) != 0 {
		t.Error("Reset did not clear the batch")
	}
}

func TestDoubleCheckIsRejected(t *testing.T) {
	svc := &fakeService{}
	o := newTestOrchestrator(t, svc)
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, err := o.Check(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Check: err = %v, want ErrInvalidState", err)
	}
	if svc.checkCalls != 1 {
		t.Errorf("check calls = %d, want 1", svc.checkCalls)
	}
}

func TestOrchestratorPublishesEvents(t *testing.T) {
	svc := &fakeService{conflicts: conflictsFor("a.stl")}
	bus := events.NewBus(16)
	defer bus.Close()
	conflictCh := bus.Subscribe(events.EventConflictsFound)

	o := NewOrchestrator("proj-1", svc, bus, logging.NewDefaultLogger())
	selectFiles(t, o, "a.stl")

	if _, err := o.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	select {
	case ev := <-conflictCh:
		batch, ok := ev.(events.BatchEvent)
		if !ok || batch.Conflicts != 1 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("conflicts_found event not published")
	}
}

func waitForState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state never reached %s (currently %s)", want, o.State())
}

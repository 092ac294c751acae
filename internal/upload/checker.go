package upload

import (
	"context"

	"github.com/samber/lo"

	"github.com/printstash/printstash/internal/models"
)

// ConflictService is the collaborator call the checker depends on.
// Implemented by the api client.
type ConflictService interface {
	CheckConflicts(ctx context.Context, projectID string, filenames []string) ([]models.FileConflict, error)
}

// ConflictChecker sends the candidate filename set to the server and
// annotates matching tasks with the conflicts it reports.
type ConflictChecker struct {
	svc ConflictService
}

// NewConflictChecker creates a checker backed by the given service.
func NewConflictChecker(svc ConflictService) *ConflictChecker {
	return &ConflictChecker{svc: svc}
}

// Check runs the conflict pre-check for the current selection.
//
// An empty selection short-circuits to "no conflicts" without a network
// call. On success, conflicts outside the candidate set are discarded
// (the server guarantees a subset; the client does not trust it) and
// each matching task is annotated with its conflict. No resolutions are
// seeded: the caller must collect an explicit choice per conflict.
func (c *ConflictChecker) Check(ctx context.Context, projectID string, store *SelectionStore) ([]models.FileConflict, error) {
	filenames := store.Filenames()
	if len(filenames) == 0 {
		return nil, nil
	}

	conflicts, err := c.svc.CheckConflicts(ctx, projectID, filenames)
	if err != nil {
		return nil, &ConflictCheckError{Err: err}
	}

	candidates := lo.SliceToMap(filenames, func(name string) (string, struct{}) {
		return name, struct{}{}
	})
	conflicts = lo.Filter(conflicts, func(c models.FileConflict, _ int) bool {
		_, ok := candidates[c.Filename]
		return ok
	})

	for i := range conflicts {
		if task := store.TaskByName(conflicts[i].Filename); task != nil {
			task.SetConflict(&conflicts[i])
		}
	}
	return conflicts, nil
}

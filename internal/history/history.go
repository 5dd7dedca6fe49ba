// Package history resolves the full version history of a record's task and
// finds the state a rejected correction must restore.
package history

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type Resolver struct {
	tasks domain.TaskRepository
}

func NewResolver(tasks domain.TaskRepository) *Resolver {
	return &Resolver{tasks: tasks}
}

// History returns every stored task version of the record, newest first.
// Versions superseded by corrections are included.
func (r *Resolver) History(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := r.tasks.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("history.Resolver.History: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("history.Resolver.History: record %s: %w", recordID, domain.ErrNotFound)
	}

	SortNewestFirst(tasks)
	return tasks, nil
}

// SortNewestFirst orders tasks by version, then modification time, descending.
func SortNewestFirst(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Version != tasks[j].Version {
			return tasks[i].Version > tasks[j].Version
		}
		return tasks[i].LastModified.After(tasks[j].LastModified)
	})
}

// PriorFinalizedTask scans the history backwards for the newest task whose
// business status is not correction related. Stacked correction cycles are
// skipped no matter how many there are.
func PriorFinalizedTask(history []*domain.Task) (*domain.Task, error) {
	ordered := make([]*domain.Task, len(history))
	copy(ordered, history)
	SortNewestFirst(ordered)

	for _, t := range ordered {
		if !t.Status.IsCorrection() {
			return t, nil
		}
	}
	return nil, fmt.Errorf("history.PriorFinalizedTask: scanned %d tasks: %w", len(ordered), domain.ErrHistoryIntegrity)
}

// PriorFinalizedStatus is PriorFinalizedTask reduced to the status code.
func PriorFinalizedStatus(history []*domain.Task) (domain.RegStatus, error) {
	t, err := PriorFinalizedTask(history)
	if err != nil {
		return "", err
	}
	return t.Status, nil
}

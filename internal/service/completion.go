package service

import (
	"context"
	"fmt"

	"opschecklist/internal/domain"
	"opschecklist/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskCounter is the slice of the task repository the completion engine needs.
type TaskCounter interface {
	CountByChecklist(ctx context.Context, checklistID int64) (int, error)
}

// CompletionStore is the slice of the completion repository the engine needs.
type CompletionStore interface {
	Insert(ctx context.Context, taskID, userID, checklistID int64) (bool, error)
	Delete(ctx context.Context, taskID, userID int64) (bool, error)
	CountByChecklistUser(ctx context.Context, checklistID, userID int64) (int, error)
}

// CompletionService flips completion records and derives checklist fullness.
// It never decides whether to notify; the caller evaluates fullness after a
// toggle and drives the notifier.
type CompletionService struct {
	tasks       TaskCounter
	completions CompletionStore
}

func NewCompletionService(db *pgxpool.Pool) *CompletionService {
	return &CompletionService{
		tasks:       repository.NewTaskRepository(db),
		completions: repository.NewCompletionRepository(db),
	}
}

// NewCompletionServiceWith wires explicit stores; used by tests.
func NewCompletionServiceWith(tasks TaskCounter, completions CompletionStore) *CompletionService {
	return &CompletionService{tasks: tasks, completions: completions}
}

// Toggle flips the completion record for (task, user) and returns the new
// completed state. A record exists: delete it, return false. No record:
// insert one, return true. The uniqueness constraint on the triple absorbs
// concurrent duplicate toggles, and deleting zero rows is a no-op, so the
// operation is idempotent in both directions.
func (s *CompletionService) Toggle(ctx context.Context, task *domain.ChecklistTask, userID int64) (bool, error) {
	deleted, err := s.completions.Delete(ctx, task.ID, userID)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	if deleted {
		return false, nil
	}

	// Not completed yet; insert. A conflict means a concurrent toggle won
	// the race, which still leaves exactly one record, so the task ends up
	// completed either way.
	if _, err := s.completions.Insert(ctx, task.ID, userID, task.ChecklistID); err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}
	return true, nil
}

// Fullness reports whether the user has completed every task currently on
// the checklist. Always recomputed from the live task set: adding a task
// after completion reverts the checklist to incomplete with no record
// change. A checklist with zero tasks is never complete.
func (s *CompletionService) Fullness(ctx context.Context, checklistID, userID int64) (bool, error) {
	p, err := s.Progress(ctx, checklistID, userID)
	if err != nil {
		return false, err
	}
	return p.Complete, nil
}

func (s *CompletionService) Progress(ctx context.Context, checklistID, userID int64) (*domain.Progress, error) {
	total, err := s.tasks.CountByChecklist(ctx, checklistID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	done, err := s.completions.CountByChecklistUser(ctx, checklistID, userID)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	p := &domain.Progress{
		TotalTasks:     total,
		CompletedTasks: done,
	}
	if total > 0 {
		p.Percent = done * 100 / total
		p.Complete = done == total
	}
	return p, nil
}

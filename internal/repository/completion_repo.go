package repository

import (
	"context"

	"opschecklist/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CompletionRepository struct {
	db *pgxpool.Pool
}

func NewCompletionRepository(db *pgxpool.Pool) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Insert records a completion. Returns false when a record for the triple
// already exists; the ON CONFLICT clause makes a concurrent duplicate
// toggle a no-op instead of an error.
func (r *CompletionRepository) Insert(ctx context.Context, taskID, userID, checklistID int64) (bool, error) {
	result, err := r.db.Exec(ctx,
		`INSERT INTO completion_records (task_id, user_id, checklist_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (task_id, user_id, checklist_id) DO NOTHING`,
		taskID, userID, checklistID,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes the completion record if present. Deleting zero rows is
// not an error; the bool reports whether a row was removed.
func (r *CompletionRepository) Delete(ctx context.Context, taskID, userID int64) (bool, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM completion_records WHERE task_id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *CompletionRepository) CountByChecklistUser(ctx context.Context, checklistID, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM completion_records WHERE checklist_id = $1 AND user_id = $2`,
		checklistID, userID,
	).Scan(&n)
	return n, err
}

func (r *CompletionRepository) ListByChecklistUser(ctx context.Context, checklistID, userID int64) ([]*domain.CompletionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, task_id, user_id, checklist_id, completed_at
		 FROM completion_records
		 WHERE checklist_id = $1 AND user_id = $2`,
		checklistID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.CompletionRecord
	for rows.Next() {
		var cr domain.CompletionRecord
		if err := rows.Scan(&cr.ID, &cr.TaskID, &cr.UserID, &cr.ChecklistID, &cr.CompletedAt); err != nil {
			return nil, err
		}
		res = append(res, &cr)
	}
	return res, rows.Err()
}

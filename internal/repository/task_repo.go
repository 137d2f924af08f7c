package repository

import (
	"context"
	"errors"

	"opschecklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.ChecklistTask) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO checklist_tasks (checklist_id, title, description, sort_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.ChecklistID, t.Title, t.Description, t.SortOrder,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.ChecklistTask, error) {
	var t domain.ChecklistTask
	err := r.db.QueryRow(ctx,
		`SELECT id, checklist_id, title, description, sort_order, created_at
		 FROM checklist_tasks
		 WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ChecklistID, &t.Title, &t.Description, &t.SortOrder, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByChecklist returns tasks in display order: sort_order, then id.
func (r *TaskRepository) ListByChecklist(ctx context.Context, checklistID int64) ([]*domain.ChecklistTask, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, checklist_id, title, description, sort_order, created_at
		 FROM checklist_tasks
		 WHERE checklist_id = $1
		 ORDER BY sort_order, id`,
		checklistID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.ChecklistTask
	for rows.Next() {
		var t domain.ChecklistTask
		if err := rows.Scan(&t.ID, &t.ChecklistID, &t.Title, &t.Description, &t.SortOrder, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) CountByChecklist(ctx context.Context, checklistID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM checklist_tasks WHERE checklist_id = $1`,
		checklistID,
	).Scan(&n)
	return n, err
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.ChecklistTask) error {
	result, err := r.db.Exec(ctx,
		`UPDATE checklist_tasks SET title = $1, description = $2, sort_order = $3 WHERE id = $4`,
		t.Title, t.Description, t.SortOrder, t.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM checklist_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

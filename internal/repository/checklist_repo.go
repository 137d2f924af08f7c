package repository

import (
	"context"
	"errors"

	"opschecklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChecklistRepository struct {
	db *pgxpool.Pool
}

func NewChecklistRepository(db *pgxpool.Pool) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) Create(ctx context.Context, cl *domain.Checklist) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO checklists (title, description, department_id, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		cl.Title, cl.Description, cl.DepartmentID, cl.CreatedBy,
	).Scan(&cl.ID, &cl.CreatedAt)
}

func (r *ChecklistRepository) GetByID(ctx context.Context, id int64) (*domain.Checklist, error) {
	var cl domain.Checklist
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, department_id, created_by, created_at
		 FROM checklists
		 WHERE id = $1`,
		id,
	).Scan(&cl.ID, &cl.Title, &cl.Description, &cl.DepartmentID, &cl.CreatedBy, &cl.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cl, nil
}

func (r *ChecklistRepository) List(ctx context.Context) ([]*domain.Checklist, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, department_id, created_by, created_at
		 FROM checklists
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChecklists(rows)
}

func (r *ChecklistRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]*domain.Checklist, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, department_id, created_by, created_at
		 FROM checklists
		 WHERE department_id = $1
		 ORDER BY created_at DESC, id DESC`,
		departmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChecklists(rows)
}

func (r *ChecklistRepository) Update(ctx context.Context, cl *domain.Checklist) error {
	result, err := r.db.Exec(ctx,
		`UPDATE checklists SET title = $1, description = $2, department_id = $3 WHERE id = $4`,
		cl.Title, cl.Description, cl.DepartmentID, cl.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChecklistRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanChecklists(rows pgx.Rows) ([]*domain.Checklist, error) {
	var res []*domain.Checklist
	for rows.Next() {
		var cl domain.Checklist
		if err := rows.Scan(&cl.ID, &cl.Title, &cl.Description, &cl.DepartmentID, &cl.CreatedBy, &cl.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &cl)
	}
	return res, rows.Err()
}

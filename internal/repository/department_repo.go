package repository

import (
	"context"
	"errors"

	"opschecklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DepartmentRepository struct {
	db *pgxpool.Pool
}

func NewDepartmentRepository(db *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, d *domain.Department) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id, created_at`,
		d.Name,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	var d domain.Department
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM departments WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*domain.Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &d)
	}
	return res, rows.Err()
}

func (r *DepartmentRepository) Update(ctx context.Context, d *domain.Department) error {
	result, err := r.db.Exec(ctx, `UPDATE departments SET name = $1 WHERE id = $2`, d.Name, d.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign adds the user to the department. Re-assigning is a no-op.
func (r *DepartmentRepository) Assign(ctx context.Context, userID, departmentID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO department_assignments (user_id, department_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		userID, departmentID,
	)
	return err
}

func (r *DepartmentRepository) Unassign(ctx context.Context, userID, departmentID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM department_assignments WHERE user_id = $1 AND department_id = $2`,
		userID, departmentID,
	)
	return err
}

// ListAssignedUsers returns the users currently assigned to the department,
// the audience for assignment notifications.
func (r *DepartmentRepository) ListAssignedUsers(ctx context.Context, departmentID int64) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.email, u.full_name, COALESCE(u.phone, ''), u.role, u.created_at
		 FROM users u
		 JOIN department_assignments da ON da.user_id = u.id
		 WHERE da.department_id = $1
		 ORDER BY u.id`,
		departmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (r *DepartmentRepository) ListUserDepartments(ctx context.Context, userID int64) ([]*domain.Department, error) {
	rows, err := r.db.Query(ctx,
		`SELECT d.id, d.name, d.created_at
		 FROM departments d
		 JOIN department_assignments da ON da.department_id = d.id
		 WHERE da.user_id = $1
		 ORDER BY d.name, d.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &d)
	}
	return res, rows.Err()
}

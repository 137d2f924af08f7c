package domain

import "time"

type Department struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DepartmentAssignment links an employee to a department. The set of
// assignments for a department is the audience for assignment notifications.
type DepartmentAssignment struct {
	UserID       int64 `db:"user_id" json:"user_id"`
	DepartmentID int64 `db:"department_id" json:"department_id"`
}

package domain

import "time"

type Checklist struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description,omitempty"`
	DepartmentID int64     `db:"department_id" json:"department_id"`
	CreatedBy    int64     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChecklistTask is a single line item of a checklist. Display order is
// (sort_order, id): ties on sort_order fall back to creation order.
type ChecklistTask struct {
	ID          int64     `db:"id" json:"id"`
	ChecklistID int64     `db:"checklist_id" json:"checklist_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

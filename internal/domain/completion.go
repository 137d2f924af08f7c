package domain

import "time"

// CompletionRecord marks a task as done by one user within one checklist.
// At most one record exists per (task_id, user_id, checklist_id); the
// database uniqueness constraint is what makes toggling idempotent.
type CompletionRecord struct {
	ID          int64     `db:"id" json:"id"`
	TaskID      int64     `db:"task_id" json:"task_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	ChecklistID int64     `db:"checklist_id" json:"checklist_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// Progress is the derived completion state of a checklist for one user.
// Complete is false whenever TotalTasks is zero.
type Progress struct {
	TotalTasks     int  `json:"total_tasks"`
	CompletedTasks int  `json:"completed_tasks"`
	Percent        int  `json:"percent"`
	Complete       bool `json:"complete"`
}

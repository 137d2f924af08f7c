package domain

import "time"

// Notification types
const (
	NotificationAllTasksComplete  = "all_tasks_complete"
	NotificationChecklistAssigned = "checklist_assigned"
)

// Notification is one in-app notification for one recipient. Fan-out
// creates a record per recipient rather than a shared broadcast row.
type Notification struct {
	ID                 int64     `db:"id" json:"id"`
	RecipientUserID    int64     `db:"recipient_user_id" json:"recipient_user_id"`
	Title              string    `db:"title" json:"title"`
	Message            string    `db:"message" json:"message"`
	Type               string    `db:"type" json:"type"`
	IsRead             bool      `db:"is_read" json:"is_read"`
	RelatedChecklistID *int64    `db:"related_checklist_id" json:"related_checklist_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

package repository

import (
	"context"

	"opschecklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts one notification per recipient in a single
// transaction. Either every in-app record lands or none do; external
// dispatch is a separate, later step.
func (r *NotificationRepository) CreateBatch(ctx context.Context, ns []*domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(
			`INSERT INTO notifications (recipient_user_id, title, message, type, related_checklist_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			n.RecipientUserID, n.Title, n.Message, n.Type, n.RelatedChecklistID,
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range ns {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, recipient_user_id, title, message, type, is_read, related_checklist_id, created_at
		 FROM notifications
		 WHERE recipient_user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Title, &n.Message, &n.Type,
			&n.IsRead, &n.RelatedChecklistID, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &n)
	}
	return res, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_user_id = $1 AND is_read = false`,
		userID,
	).Scan(&n)
	return n, err
}

// MarkRead flips is_read for a notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND recipient_user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a notification owned by userID.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

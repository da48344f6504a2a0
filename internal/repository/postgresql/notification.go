package postgresql

import (
	"context"

	"github.com/google/uuid"

	"github.com/fashionbreeze/lifecycle/internal/db"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/notifications"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

type NotificationRepo struct {
	db db.DB
}

func NewNotificationRepo(db db.DB) notifications.Repository {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO notifications (
            id, user_id, type, title, message, order_ref, is_read, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, n.ID, n.UserID, n.Type, n.Title, n.Message, n.OrderRef, n.IsRead, n.CreatedAt)
	return err
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	query := `
        SELECT * FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var items []*repository.Notification
	err := r.db.Select(ctx, &items, query, args...)
	return items, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE notifications SET is_read = TRUE WHERE id = $1
    `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

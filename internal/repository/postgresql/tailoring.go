package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/fashionbreeze/lifecycle/internal/db"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
	"github.com/fashionbreeze/lifecycle/internal/storage"
)

type TailoringRepo struct {
	db db.DB
}

func NewTailoringRepo(db db.DB) storage.TailoringRepository {
	return &TailoringRepo{db: db}
}

func (r *TailoringRepo) Create(ctx context.Context, order *repository.TailoringOrder) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tailoring_orders (
            id, order_number, customer_name, customer_phone, customer_email,
            specification, tailor_id, status, comments, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, order.ID, order.OrderNumber, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.Specification, order.TailorID, order.Status, order.Comments, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tailoring order number %s already taken", lifecycle.ErrConflict, order.OrderNumber)
		}
		return err
	}
	return nil
}

func (r *TailoringRepo) GetByID(ctx context.Context, id string) (*repository.TailoringOrder, error) {
	var order repository.TailoringOrder
	err := r.db.Get(ctx, &order, "SELECT * FROM tailoring_orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus is the conditional transition write. A non-empty comment is
// appended to the trail in the same row update, never replacing prior
// comments.
func (r *TailoringRepo) UpdateStatus(ctx context.Context, id, from, to, comment string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE tailoring_orders
        SET status = $1,
            comments = CASE WHEN $2 <> '' THEN comments || to_jsonb($2::text) ELSE comments END,
            updated_at = $3
        WHERE id = $4 AND status = $5
    `, to, comment, now, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

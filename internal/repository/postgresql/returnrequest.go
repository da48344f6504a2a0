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

type ReturnRepo struct {
	db db.DB
}

func NewReturnRepo(db db.DB) storage.ReturnRepository {
	return &ReturnRepo{db: db}
}

func (r *ReturnRepo) Create(ctx context.Context, req *repository.ReturnRequest) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO return_requests (
            id, return_id, order_id, product_id, type, reason, description,
            customer_name, customer_email, customer_phone, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, req.ID, req.ReturnID, req.OrderID, req.ProductID, req.Type, req.Reason, req.Description,
		req.CustomerName, req.CustomerEmail, req.CustomerPhone, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: return id %s already taken", lifecycle.ErrConflict, req.ReturnID)
		}
		return err
	}
	return nil
}

// GetByReturnID looks a request up by its human-readable RET identifier,
// which is the key boundary callers hold.
func (r *ReturnRepo) GetByReturnID(ctx context.Context, returnID string) (*repository.ReturnRequest, error) {
	var req repository.ReturnRequest
	err := r.db.Get(ctx, &req, "SELECT * FROM return_requests WHERE return_id = $1", returnID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *ReturnRepo) GetPaginated(ctx context.Context, page, limit int) ([]*repository.ReturnRequest, error) {
	offset := (page - 1) * limit

	var requests []*repository.ReturnRequest
	err := r.db.Select(ctx, &requests, `
        SELECT * FROM return_requests
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `, limit, offset)
	return requests, err
}

func (r *ReturnRepo) UpdateStatus(ctx context.Context, returnID, from, to string, adminNotes *string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE return_requests
        SET status = $1,
            admin_notes = COALESCE($2, admin_notes),
            updated_at = $3
        WHERE return_id = $4 AND status = $5
    `, to, adminNotes, now, returnID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

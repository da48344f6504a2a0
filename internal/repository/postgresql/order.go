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

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, order *repository.Order) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO orders (
            id, order_number, customer_id, customer_name, customer_email,
            items, total_amount, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, order.ID, order.OrderNumber, order.CustomerID, order.CustomerName, order.CustomerEmail,
		order.Items, order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order number %s already taken", lifecycle.ErrConflict, order.OrderNumber)
		}
		return err
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByCustomerID(ctx context.Context, customerID string, limit int, activeOnly bool) ([]*repository.Order, error) {
	query := "SELECT * FROM orders WHERE customer_id = $1"
	args := []interface{}{customerID}

	if activeOnly {
		query += " AND status NOT IN ('delivered', 'cancelled')"
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query, args...)
	return orders, err
}

// NextOrderNumber draws the next value of the monotonic order sequence.
func (r *OrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.ExecQueryRow(ctx, "SELECT nextval('order_number_seq')").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to draw order number: %w", err)
	}
	return n, nil
}

// UpdateStatus performs the conditional transition write. The filter includes
// the status the caller last observed; zero matched rows means another
// transition intervened.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, from, to string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $1, updated_at = $2
        WHERE id = $3 AND status = $4
    `, to, now, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AttachSlip sets or overwrites the embedded slip with status pending.
// Replace semantics: re-uploading is not an error. The filter keeps terminal
// orders untouchable.
func (r *OrderRepo) AttachSlip(ctx context.Context, id, image string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET slip_image = $1,
            slip_status = 'pending',
            slip_uploaded_at = $2,
            slip_verified_at = NULL,
            updated_at = $2
        WHERE id = $3 AND status NOT IN ('delivered', 'cancelled')
    `, image, now, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetSlipStatus updates the embedded slip and, when orderStatus is non-nil,
// advances the order status inside the same row write. Both fields commit
// atomically or not at all. The filter keys on the slip status the caller
// last observed, so a concurrently decided slip matches nothing.
func (r *OrderRepo) SetSlipStatus(ctx context.Context, id, from, to string, verifiedAt *time.Time, orderStatus *string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET slip_status = $1,
            slip_verified_at = COALESCE($2, slip_verified_at),
            status = COALESCE($3, status),
            updated_at = $4
        WHERE id = $5 AND slip_status = $6
    `, to, verifiedAt, orderStatus, now, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepo) GetAllActiveOrders(ctx context.Context) ([]*repository.Order, error) {
	query := `
        SELECT * FROM orders
        WHERE status NOT IN ('delivered', 'cancelled')
        ORDER BY created_at ASC
    `
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all active orders: %w", err)
	}
	return orders, nil
}

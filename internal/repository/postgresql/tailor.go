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

type TailorRepo struct {
	db db.DB
}

func NewTailorRepo(db db.DB) storage.TailorRepository {
	return &TailorRepo{db: db}
}

// Create inserts a new application. The unique index on email makes a
// duplicate contact identity a conflict regardless of the prior
// application's status.
func (r *TailorRepo) Create(ctx context.Context, tailor *repository.Tailor) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tailors (
            id, name, email, phone, shop_name, shop_address,
            password_hash, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, tailor.ID, tailor.Name, tailor.Email, tailor.Phone, tailor.ShopName, tailor.ShopAddress,
		tailor.PasswordHash, tailor.Status, tailor.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tailor with email %s already registered", lifecycle.ErrConflict, tailor.Email)
		}
		return err
	}
	return nil
}

func (r *TailorRepo) GetByID(ctx context.Context, id string) (*repository.Tailor, error) {
	var tailor repository.Tailor
	err := r.db.Get(ctx, &tailor, "SELECT * FROM tailors WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &tailor, nil
}

// Review decides a pending application. The filter requires status pending,
// so a second reviewer racing on the same application matches zero rows.
func (r *TailorRepo) Review(ctx context.Context, id, decision string, approvedAt *time.Time, approvedBy *string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE tailors
        SET status = $1,
            approved_at = $2,
            approved_by = $3
        WHERE id = $4 AND status = 'pending'
    `, decision, approvedAt, approvedBy, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

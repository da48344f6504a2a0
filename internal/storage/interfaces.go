package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// Repository contracts the lifecycle managers depend on. Every UpdateStatus
// variant is a conditional write: the filter includes the status the caller
// last observed, and the bool result reports whether any row matched.

type OrderRepository interface {
	Create(ctx context.Context, order *repository.Order) error
	GetByID(ctx context.Context, id string) (*repository.Order, error)
	GetByCustomerID(ctx context.Context, customerID string, limit int, activeOnly bool) ([]*repository.Order, error)
	GetAllActiveOrders(ctx context.Context) ([]*repository.Order, error)
	NextOrderNumber(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id, from, to string, now time.Time) (bool, error)
	AttachSlip(ctx context.Context, id, image string, now time.Time) (bool, error)
	SetSlipStatus(ctx context.Context, id, from, to string, verifiedAt *time.Time, orderStatus *string, now time.Time) (bool, error)
}

type TailoringRepository interface {
	Create(ctx context.Context, order *repository.TailoringOrder) error
	GetByID(ctx context.Context, id string) (*repository.TailoringOrder, error)
	UpdateStatus(ctx context.Context, id, from, to, comment string, now time.Time) (bool, error)
}

type ReturnRepository interface {
	Create(ctx context.Context, req *repository.ReturnRequest) error
	GetByReturnID(ctx context.Context, returnID string) (*repository.ReturnRequest, error)
	GetPaginated(ctx context.Context, page, limit int) ([]*repository.ReturnRequest, error)
	UpdateStatus(ctx context.Context, returnID, from, to string, adminNotes *string, now time.Time) (bool, error)
}

type TailorRepository interface {
	Create(ctx context.Context, tailor *repository.Tailor) error
	GetByID(ctx context.Context, id string) (*repository.Tailor, error)
	Review(ctx context.Context, id, decision string, approvedAt *time.Time, approvedBy *string) (bool, error)
}

type OutboxTaskRepository interface {
	Create(ctx context.Context, task *repository.OutboxTask) error
	GetProcessableTasks(ctx context.Context, limit, maxAttempts int) ([]*repository.OutboxTask, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}

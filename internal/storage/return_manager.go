package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// ReturnManager owns return and damage claims, a short triage state machine.
type ReturnManager struct {
	repo   ReturnRepository
	tx     *transitioner
	logger *zap.Logger
}

func NewReturnManager(repo ReturnRepository, bus *lifecycle.Bus, logger *zap.Logger) *ReturnManager {
	return &ReturnManager{
		repo:   repo,
		tx:     newTransitioner(bus, logger),
		logger: logger,
	}
}

const (
	ReturnTypeReturn = "return"
	ReturnTypeDamage = "damage"
)

type CreateReturnInput struct {
	OrderID       string
	ProductID     string
	Type          string
	Reason        string
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

func (m *ReturnManager) CreateRequest(ctx context.Context, in CreateReturnInput) (*repository.ReturnRequest, error) {
	if in.OrderID == "" || in.ProductID == "" || in.Reason == "" {
		return nil, fmt.Errorf("%w: order id, product id and reason are required", lifecycle.ErrValidation)
	}
	if in.Type != ReturnTypeReturn && in.Type != ReturnTypeDamage {
		return nil, fmt.Errorf("%w: unknown request type %q", lifecycle.ErrValidation, in.Type)
	}

	now := time.Now().UTC()
	req := &repository.ReturnRequest{
		ID:            uuid.NewString(),
		ReturnID:      fmt.Sprintf("RET%d", now.UnixMilli()),
		OrderID:       in.OrderID,
		ProductID:     in.ProductID,
		Type:          in.Type,
		Reason:        in.Reason,
		Description:   in.Description,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		Status:        string(lifecycle.ReturnPending),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	m.logger.Info("return request created",
		zap.String("return_id", req.ReturnID),
		zap.String("order_id", req.OrderID),
		zap.String("type", req.Type))
	return req, nil
}

func (m *ReturnManager) GetRequest(ctx context.Context, returnID string) (*repository.ReturnRequest, error) {
	return m.repo.GetByReturnID(ctx, returnID)
}

func (m *ReturnManager) ListRequests(ctx context.Context, page, limit int) ([]*repository.ReturnRequest, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be positive", lifecycle.ErrValidation)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", lifecycle.ErrValidation)
	}
	return m.repo.GetPaginated(ctx, page, limit)
}

// UpdateStatus triages a request, keyed by its RET identifier. Moves out of
// a terminal state never match the conditional filter's graph check.
func (m *ReturnManager) UpdateStatus(ctx context.Context, returnID, newStatus string, adminNotes *string) (*repository.ReturnRequest, error) {
	if returnID == "" {
		return nil, fmt.Errorf("%w: return id is required", lifecycle.ErrValidation)
	}

	req, err := m.repo.GetByReturnID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	next, err := m.tx.execute(ctx, transition{
		kind:      lifecycle.KindReturn,
		event:     lifecycle.EventReturnStatusChanged,
		graph:     lifecycle.ReturnGraph,
		entityID:  req.ID,
		display:   req.ReturnID,
		recipient: req.CustomerEmail,
		current:   lifecycle.Status(req.Status),
		requested: newStatus,
		write: func(ctx context.Context, from, to lifecycle.Status, now time.Time) (bool, error) {
			return m.repo.UpdateStatus(ctx, req.ReturnID, string(from), string(to), adminNotes, now)
		},
	})
	if err != nil {
		return nil, err
	}

	req.Status = string(next)
	if adminNotes != nil {
		req.AdminNotes = adminNotes
	}
	return req, nil
}

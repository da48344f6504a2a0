package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// TailoringManager owns custom-garment orders. The state machine mirrors the
// customer order one structurally but stays a separate entity: who may
// transition and what delivered means differ.
type TailoringManager struct {
	repo   TailoringRepository
	tx     *transitioner
	logger *zap.Logger
}

func NewTailoringManager(repo TailoringRepository, bus *lifecycle.Bus, logger *zap.Logger) *TailoringManager {
	return &TailoringManager{
		repo:   repo,
		tx:     newTransitioner(bus, logger),
		logger: logger,
	}
}

type CreateTailoringOrderInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Specification json.RawMessage
	TailorID      *string
}

// CreateOrder registers a tailoring request, always starting pending. The
// order number is TO plus a millisecond timestamp token; the unique index
// turns a token clash under concurrency into a conflict.
func (m *TailoringManager) CreateOrder(ctx context.Context, in CreateTailoringOrderInput) (*repository.TailoringOrder, error) {
	if in.CustomerName == "" || in.CustomerEmail == "" {
		return nil, fmt.Errorf("%w: customer name and email are required", lifecycle.ErrValidation)
	}
	if len(in.Specification) == 0 {
		return nil, fmt.Errorf("%w: garment specification is required", lifecycle.ErrValidation)
	}

	now := time.Now().UTC()
	order := &repository.TailoringOrder{
		ID:            uuid.NewString(),
		OrderNumber:   fmt.Sprintf("TO%d", now.UnixMilli()),
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		Specification: in.Specification,
		TailorID:      in.TailorID,
		Status:        string(lifecycle.TailoringPending),
		Comments:      json.RawMessage(`[]`),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	m.logger.Info("tailoring order created",
		zap.String("id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return order, nil
}

func (m *TailoringManager) GetOrder(ctx context.Context, id string) (*repository.TailoringOrder, error) {
	return m.repo.GetByID(ctx, id)
}

// UpdateStatus moves a tailoring order one step along its graph. An optional
// comment is appended to the trail inside the same conditional write.
func (m *TailoringManager) UpdateStatus(ctx context.Context, orderID, newStatus, comment string) (*repository.TailoringOrder, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: tailoring order id is required", lifecycle.ErrValidation)
	}

	order, err := m.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := m.tx.execute(ctx, transition{
		kind:      lifecycle.KindTailoring,
		event:     lifecycle.EventTailoringStatusChanged,
		graph:     lifecycle.TailoringGraph,
		entityID:  order.ID,
		display:   order.OrderNumber,
		recipient: order.CustomerEmail,
		current:   lifecycle.Status(order.Status),
		requested: newStatus,
		write: func(ctx context.Context, from, to lifecycle.Status, now time.Time) (bool, error) {
			return m.repo.UpdateStatus(ctx, order.ID, string(from), string(to), comment, now)
		},
	})
	if err != nil {
		return nil, err
	}

	order.Status = string(next)
	order.Comments = appendComment(order.Comments, comment)
	return order, nil
}

// appendComment mirrors in memory what the row update appended to the trail.
func appendComment(trail json.RawMessage, comment string) json.RawMessage {
	if comment == "" {
		return trail
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trail, &entries); err != nil {
		return trail
	}
	entry, err := json.Marshal(comment)
	if err != nil {
		return trail
	}
	entries = append(entries, entry)
	encoded, err := json.Marshal(entries)
	if err != nil {
		return trail
	}
	return encoded
}

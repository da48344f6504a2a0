package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/cache"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// OrderManager owns customer orders and the embedded payment slip sub-flow.
// It is the only component that mutates the orders table.
type OrderManager struct {
	repo   OrderRepository
	cache  *cache.OrderCache
	bus    *lifecycle.Bus
	tx     *transitioner
	logger *zap.Logger
}

func NewOrderManager(repo OrderRepository, orderCache *cache.OrderCache, bus *lifecycle.Bus, logger *zap.Logger) *OrderManager {
	return &OrderManager{
		repo:   repo,
		cache:  orderCache,
		bus:    bus,
		tx:     newTransitioner(bus, logger),
		logger: logger,
	}
}

type CreateOrderInput struct {
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Items         json.RawMessage
	TotalAmount   int64
}

// CreateOrder registers a checked-out order. The order number is drawn from
// a monotonic sequence and rendered as FB + 6 zero-padded digits.
func (m *OrderManager) CreateOrder(ctx context.Context, in CreateOrderInput) (*repository.Order, error) {
	if in.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", lifecycle.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order items are required", lifecycle.ErrValidation)
	}
	if in.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount must not be negative", lifecycle.ErrValidation)
	}

	seq, err := m.repo.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &repository.Order{
		ID:            uuid.NewString(),
		OrderNumber:   fmt.Sprintf("FB%06d", seq),
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		Items:         in.Items,
		TotalAmount:   in.TotalAmount,
		Status:        string(lifecycle.OrderPending),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	m.cache.Set(order)
	m.logger.Info("order created",
		zap.String("id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return order, nil
}

func (m *OrderManager) GetOrder(ctx context.Context, id string) (*repository.Order, error) {
	if order, found := m.cache.Get(id); found {
		return order, nil
	}

	order, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(order)
	return order, nil
}

func (m *OrderManager) ListCustomerOrders(ctx context.Context, customerID string, limit int, activeOnly bool) ([]*repository.Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", lifecycle.ErrValidation)
	}
	return m.repo.GetByCustomerID(ctx, customerID, limit, activeOnly)
}

// UploadPaymentSlip sets or overwrites the embedded slip with status pending.
// Replace semantics make re-uploads idempotent; the order status never moves
// here.
func (m *OrderManager) UploadPaymentSlip(ctx context.Context, orderID, imageData string) (*repository.Order, error) {
	if orderID == "" || imageData == "" {
		return nil, fmt.Errorf("%w: order id and image data are required", lifecycle.ErrValidation)
	}

	order, err := m.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := lifecycle.Status(order.Status)
	if current == lifecycle.OrderDelivered || current == lifecycle.OrderCancelled {
		return nil, fmt.Errorf("%w: order %s is %s and no longer accepts payment slips",
			lifecycle.ErrConflict, order.OrderNumber, order.Status)
	}

	now := time.Now().UTC()
	matched, err := m.repo.AttachSlip(ctx, orderID, imageData, now)
	if err != nil {
		return nil, err
	}
	if !matched {
		// The order reached a terminal state between the read and the write.
		return nil, fmt.Errorf("%w: order %s no longer accepts payment slips",
			lifecycle.ErrConflict, order.OrderNumber)
	}

	previous := lifecycle.Status("")
	if order.SlipStatus != nil {
		previous = lifecycle.Status(*order.SlipStatus)
	}

	pending := string(lifecycle.SlipPending)
	order.SlipImage = &imageData
	order.SlipStatus = &pending
	order.SlipUploadedAt = &now
	order.SlipVerifiedAt = nil
	order.UpdatedAt = now
	m.cache.Set(order)

	m.bus.Publish(ctx, lifecycle.StatusChangeEvent{
		Name:        lifecycle.EventSlipUploaded,
		Kind:        lifecycle.KindOrder,
		EntityID:    order.ID,
		Display:     order.OrderNumber,
		RecipientID: order.CustomerID,
		Previous:    previous,
		Next:        lifecycle.SlipPending,
		OccurredAt:  now,
	})

	return order, nil
}

// SetSlipStatus decides a pending slip. Verification is the sole trigger
// that advances the order to shipped, and both fields are written in the
// same atomic row update.
func (m *OrderManager) SetSlipStatus(ctx context.Context, orderID, rawStatus string) (*repository.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", lifecycle.ErrValidation)
	}

	next, err := lifecycle.SlipGraph.Validate(rawStatus)
	if err != nil {
		return nil, err
	}

	order, err := m.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SlipStatus == nil {
		return nil, fmt.Errorf("%w: order %s has no payment slip", lifecycle.ErrNotFound, order.OrderNumber)
	}

	current := lifecycle.Status(*order.SlipStatus)
	if !lifecycle.SlipGraph.CanStep(current, next) {
		return nil, fmt.Errorf("%w: slip of order %s cannot move from %s to %s",
			lifecycle.ErrConflict, order.OrderNumber, current, next)
	}

	now := time.Now().UTC()
	var verifiedAt *time.Time
	var orderStatus *string
	if next == lifecycle.SlipVerified {
		verifiedAt = &now
		shipped := string(lifecycle.OrderShipped)
		orderStatus = &shipped
	}

	matched, err := m.repo.SetSlipStatus(ctx, orderID, string(current), string(next), verifiedAt, orderStatus, now)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("%w: payment slip of order %s was changed concurrently",
			lifecycle.ErrConflict, order.OrderNumber)
	}

	slip := string(next)
	order.SlipStatus = &slip
	order.SlipVerifiedAt = verifiedAt
	if orderStatus != nil {
		order.Status = *orderStatus
	}
	order.UpdatedAt = now
	m.cache.Set(order)

	m.bus.Publish(ctx, lifecycle.StatusChangeEvent{
		Name:        lifecycle.EventSlipStatusChanged,
		Kind:        lifecycle.KindOrder,
		EntityID:    order.ID,
		Display:     order.OrderNumber,
		RecipientID: order.CustomerID,
		Previous:    current,
		Next:        next,
		OccurredAt:  now,
	})

	return order, nil
}

// UpdateStatus advances or cancels an order along the status graph. Two
// callers racing on the same observed status get at most one winner; the
// loser receives a conflict.
func (m *OrderManager) UpdateStatus(ctx context.Context, orderID, newStatus, actor string) (*repository.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", lifecycle.ErrValidation)
	}

	order, err := m.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := m.tx.execute(ctx, transition{
		kind:      lifecycle.KindOrder,
		event:     lifecycle.EventStatusChanged,
		graph:     lifecycle.OrderGraph,
		entityID:  order.ID,
		display:   order.OrderNumber,
		recipient: order.CustomerID,
		actor:     actor,
		current:   lifecycle.Status(order.Status),
		requested: newStatus,
		write: func(ctx context.Context, from, to lifecycle.Status, now time.Time) (bool, error) {
			return m.repo.UpdateStatus(ctx, order.ID, string(from), string(to), now)
		},
	})
	if err != nil {
		return nil, err
	}

	order.Status = string(next)
	order.UpdatedAt = time.Now().UTC()
	m.cache.Set(order)
	return order, nil
}

// WarmCache loads all active orders at boot.
func (m *OrderManager) WarmCache(ctx context.Context) error {
	return m.cache.LoadInitialData(ctx)
}

package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/metrics"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, n *repository.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*repository.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// Store persists one durable notification per status-change event so an
// offline client can still retrieve history. It is the durability side of
// the fan-out; the realtime channel is allowed to lose events, this is not.
type Store struct {
	repo   Repository
	logger *zap.Logger
}

func NewStore(repo Repository, logger *zap.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

// HandleEvent is the event bus subscriber. The error return is a delivery
// failure for the bus to log; it never unwinds the committed transition.
func (s *Store) HandleEvent(ctx context.Context, ev lifecycle.StatusChangeEvent) error {
	if ev.RecipientID == "" {
		s.logger.Debug("event without recipient, skipping notification",
			zap.String("event", ev.Name),
			zap.String("entity_id", ev.EntityID))
		return nil
	}

	orderRef := ev.Display
	n := &repository.Notification{
		ID:        uuid.New(),
		UserID:    ev.RecipientID,
		Type:      ev.Name,
		Title:     title(ev),
		Message:   message(ev),
		OrderRef:  &orderRef,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification for %s %s: %w", ev.Kind, ev.EntityID, err)
	}

	metrics.NotificationsCreatedTotal.Inc()
	return nil
}

func (s *Store) List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", lifecycle.ErrValidation)
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func title(ev lifecycle.StatusChangeEvent) string {
	switch ev.Name {
	case lifecycle.EventSlipUploaded:
		return "Payment slip received"
	case lifecycle.EventSlipStatusChanged:
		if ev.Next == lifecycle.SlipVerified {
			return "Payment verified"
		}
		return "Payment slip rejected"
	case lifecycle.EventTailoringStatusChanged:
		return "Tailoring order update"
	case lifecycle.EventReturnStatusChanged:
		return "Return request update"
	case lifecycle.EventTailorStatusChanged:
		return "Application update"
	default:
		return "Order update"
	}
}

func message(ev lifecycle.StatusChangeEvent) string {
	switch ev.Name {
	case lifecycle.EventSlipUploaded:
		return fmt.Sprintf("We received the payment slip for %s and will verify it shortly.", ev.Display)
	case lifecycle.EventSlipStatusChanged:
		if ev.Next == lifecycle.SlipVerified {
			return fmt.Sprintf("Payment for %s is verified. Your order has been shipped.", ev.Display)
		}
		return fmt.Sprintf("The payment slip for %s was rejected. Please upload a new one.", ev.Display)
	case lifecycle.EventTailorStatusChanged:
		return fmt.Sprintf("Your tailor application was %s.", ev.Next)
	default:
		return fmt.Sprintf("%s moved from %s to %s.", ev.Display, ev.Previous, ev.Next)
	}
}

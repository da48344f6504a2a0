package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler consumes a committed status change. A handler error is a delivery
// failure, not a transition failure: the bus logs it and moves on.
type Handler func(ctx context.Context, ev StatusChangeEvent) error

// Bus is an in-process publish/subscribe fan-out. Dispatch is synchronous and
// best-effort: Publish blocks only long enough to invoke each subscriber, and
// one subscriber's failure or panic never reaches the publisher or the other
// subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

type subscription struct {
	name    string
	handler Handler
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h})
}

func (b *Bus) Publish(ctx context.Context, ev StatusChangeEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(ctx, sub, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, ev StatusChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				zap.String("subscriber", sub.name),
				zap.String("event", ev.Name),
				zap.Any("panic", r))
		}
	}()

	if err := sub.handler(ctx, ev); err != nil {
		b.logger.Warn("event delivery failed",
			zap.String("subscriber", sub.name),
			zap.String("event", ev.Name),
			zap.String("entity_id", ev.EntityID),
			zap.Error(err))
	}
}

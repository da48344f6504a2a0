package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testEvent() StatusChangeEvent {
	return StatusChangeEvent{
		Name:        EventStatusChanged,
		Kind:        KindOrder,
		EntityID:    "order-1",
		Display:     "FB000001",
		RecipientID: "customer-1",
		Previous:    OrderPending,
		Next:        OrderConfirmed,
	}
}

func TestBusDeliversToEverySubscriberOnce(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())

	var first, second int
	bus.Subscribe("first", func(ctx context.Context, ev StatusChangeEvent) error {
		first++
		return nil
	})
	bus.Subscribe("second", func(ctx context.Context, ev StatusChangeEvent) error {
		second++
		return nil
	})

	bus.Publish(context.Background(), testEvent())

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestBusSubscriberErrorDoesNotStopFanout(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())

	var delivered []string
	bus.Subscribe("failing", func(ctx context.Context, ev StatusChangeEvent) error {
		delivered = append(delivered, "failing")
		return errors.New("smtp connection refused")
	})
	bus.Subscribe("healthy", func(ctx context.Context, ev StatusChangeEvent) error {
		delivered = append(delivered, "healthy")
		return nil
	})

	bus.Publish(context.Background(), testEvent())

	assert.Equal(t, []string{"failing", "healthy"}, delivered)
}

func TestBusSubscriberPanicIsContained(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())

	var healthyCalls int
	bus.Subscribe("panicking", func(ctx context.Context, ev StatusChangeEvent) error {
		panic("nil map write")
	})
	bus.Subscribe("healthy", func(ctx context.Context, ev StatusChangeEvent) error {
		healthyCalls++
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent())
	})
	assert.Equal(t, 1, healthyCalls)
}

func TestBusPublishWithNoSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent())
	})
}

func TestBusConcurrentPublish(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())

	var mu sync.Mutex
	count := 0
	bus.Subscribe("counter", func(ctx context.Context, ev StatusChangeEvent) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	const publishers = 16
	var wg sync.WaitGroup
	wg.Add(publishers)
	for i := 0; i < publishers; i++ {
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), testEvent())
		}()
	}
	wg.Wait()

	assert.Equal(t, publishers, count)
}

func TestBusEventPayloadIsPassedThrough(t *testing.T) {
	t.Parallel()

	bus := NewBus(zap.NewNop())

	var got StatusChangeEvent
	bus.Subscribe("capture", func(ctx context.Context, ev StatusChangeEvent) error {
		got = ev
		return nil
	})

	want := testEvent()
	bus.Publish(context.Background(), want)

	assert.Equal(t, want, got)
}

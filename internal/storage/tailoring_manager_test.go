package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

func newTailoringFixture(t *testing.T) (*TailoringManager, *fakeTailoringRepo, *eventRecorder) {
	t.Helper()

	repo := newFakeTailoringRepo()
	bus := lifecycle.NewBus(zap.NewNop())
	rec := &eventRecorder{}
	bus.Subscribe("recorder", rec.handle)
	return NewTailoringManager(repo, bus, zap.NewNop()), repo, rec
}

func createTestTailoringOrder(t *testing.T, m *TailoringManager) *repository.TailoringOrder {
	t.Helper()

	order, err := m.CreateOrder(context.Background(), CreateTailoringOrderInput{
		CustomerName:  "Boris",
		CustomerPhone: "+66811111111",
		CustomerEmail: "boris@example.com",
		Specification: json.RawMessage(`{"garment":"suit","measurements":{"chest":102}}`),
	})
	require.NoError(t, err)
	return order
}

func TestCreateTailoringOrder(t *testing.T) {
	t.Parallel()

	m, _, _ := newTailoringFixture(t)
	order := createTestTailoringOrder(t, m)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "TO"))
	assert.Equal(t, string(lifecycle.TailoringPending), order.Status)
	assert.JSONEq(t, `[]`, string(order.Comments))
	assert.Nil(t, order.TailorID)
}

func TestCreateTailoringOrderValidation(t *testing.T) {
	t.Parallel()

	m, _, _ := newTailoringFixture(t)
	ctx := context.Background()

	_, err := m.CreateOrder(ctx, CreateTailoringOrderInput{
		CustomerEmail: "no-name@example.com",
		Specification: json.RawMessage(`{}`),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))

	_, err = m.CreateOrder(ctx, CreateTailoringOrderInput{
		CustomerName:  "Boris",
		CustomerEmail: "boris@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))
}

func TestTailoringFullWorkflow(t *testing.T) {
	t.Parallel()

	m, _, rec := newTailoringFixture(t)
	ctx := context.Background()
	order := createTestTailoringOrder(t, m)

	for _, next := range []string{"approved", "in_progress", "completed", "delivered"} {
		updated, err := m.UpdateStatus(ctx, order.ID, next, "")
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	events := rec.all()
	require.Len(t, events, 4)
	for _, ev := range events {
		assert.Equal(t, lifecycle.EventTailoringStatusChanged, ev.Name)
		assert.Equal(t, lifecycle.KindTailoring, ev.Kind)
		assert.Equal(t, "boris@example.com", ev.RecipientID)
	}
	assert.Equal(t, lifecycle.TailoringDelivered, events[3].Next)
}

func TestTailoringUpdateStatusReturnsAppendedComment(t *testing.T) {
	t.Parallel()

	m, repo, _ := newTailoringFixture(t)
	ctx := context.Background()
	order := createTestTailoringOrder(t, m)

	updated, err := m.UpdateStatus(ctx, order.ID, "approved", "fabric confirmed with customer")
	require.NoError(t, err)
	assert.JSONEq(t, `["fabric confirmed with customer"]`, string(updated.Comments))

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `["fabric confirmed with customer"]`, string(stored.Comments))

	// An empty comment leaves the trail untouched.
	updated, err = m.UpdateStatus(ctx, order.ID, "in_progress", "")
	require.NoError(t, err)
	assert.JSONEq(t, `["fabric confirmed with customer"]`, string(updated.Comments))
}

func TestTailoringCannotSkipSteps(t *testing.T) {
	t.Parallel()

	m, repo, _ := newTailoringFixture(t)
	ctx := context.Background()
	order := createTestTailoringOrder(t, m)

	_, err := m.UpdateStatus(ctx, order.ID, "completed", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", stored.Status)
}

func TestTailoringCancelAfterCompletionRejected(t *testing.T) {
	t.Parallel()

	m, _, _ := newTailoringFixture(t)
	ctx := context.Background()
	order := createTestTailoringOrder(t, m)

	for _, next := range []string{"approved", "in_progress", "completed"} {
		_, err := m.UpdateStatus(ctx, order.ID, next, "")
		require.NoError(t, err)
	}

	_, err := m.UpdateStatus(ctx, order.ID, "cancelled", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))
}

func TestTailoringUnknownStatus(t *testing.T) {
	t.Parallel()

	m, _, rec := newTailoringFixture(t)
	order := createTestTailoringOrder(t, m)

	_, err := m.UpdateStatus(context.Background(), order.ID, "sewn", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))
	assert.Empty(t, rec.all())
}

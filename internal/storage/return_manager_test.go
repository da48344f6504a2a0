package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

func newReturnFixture(t *testing.T) (*ReturnManager, *fakeReturnRepo, *eventRecorder) {
	t.Helper()

	repo := newFakeReturnRepo()
	bus := lifecycle.NewBus(zap.NewNop())
	rec := &eventRecorder{}
	bus.Subscribe("recorder", rec.handle)
	return NewReturnManager(repo, bus, zap.NewNop()), repo, rec
}

func createTestReturn(t *testing.T, m *ReturnManager, reqType string) *repository.ReturnRequest {
	t.Helper()

	req, err := m.CreateRequest(context.Background(), CreateReturnInput{
		OrderID:       "order-1",
		ProductID:     "product-1",
		Type:          reqType,
		Reason:        "wrong size",
		CustomerName:  "Chai",
		CustomerEmail: "chai@example.com",
	})
	require.NoError(t, err)
	return req
}

func TestListRequestsRejectsBadPagination(t *testing.T) {
	t.Parallel()

	m, _, _ := newReturnFixture(t)
	ctx := context.Background()

	_, err := m.ListRequests(ctx, 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))

	_, err = m.ListRequests(ctx, 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))

	_, err = m.ListRequests(ctx, 1, 10)
	require.NoError(t, err)
}

func TestCreateReturnRequest(t *testing.T) {
	t.Parallel()

	m, _, _ := newReturnFixture(t)
	req := createTestReturn(t, m, ReturnTypeReturn)

	assert.True(t, strings.HasPrefix(req.ReturnID, "RET"))
	assert.Equal(t, string(lifecycle.ReturnPending), req.Status)
	assert.Nil(t, req.AdminNotes)
}

func TestCreateReturnRequestValidation(t *testing.T) {
	t.Parallel()

	m, _, _ := newReturnFixture(t)
	ctx := context.Background()

	_, err := m.CreateRequest(ctx, CreateReturnInput{ProductID: "p1", Type: ReturnTypeReturn, Reason: "r"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))

	_, err = m.CreateRequest(ctx, CreateReturnInput{OrderID: "o1", ProductID: "p1", Type: "exchange", Reason: "r"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))
}

func TestReturnTriageApproveThenResolve(t *testing.T) {
	t.Parallel()

	m, _, rec := newReturnFixture(t)
	ctx := context.Background()
	req := createTestReturn(t, m, ReturnTypeDamage)

	notes := "photos confirm the damage"
	approved, err := m.UpdateStatus(ctx, req.ReturnID, "approved", &notes)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.AdminNotes)
	assert.Equal(t, notes, *approved.AdminNotes)

	resolved, err := m.UpdateStatus(ctx, req.ReturnID, "resolved", nil)
	require.NoError(t, err)
	assert.Equal(t, "resolved", resolved.Status)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, lifecycle.EventReturnStatusChanged, events[0].Name)
	assert.Equal(t, req.ReturnID, events[0].Display)
}

func TestReturnTerminalStateRejectsFurtherMoves(t *testing.T) {
	t.Parallel()

	m, repo, _ := newReturnFixture(t)
	ctx := context.Background()
	req := createTestReturn(t, m, ReturnTypeReturn)

	_, err := m.UpdateStatus(ctx, req.ReturnID, "rejected", nil)
	require.NoError(t, err)

	_, err = m.UpdateStatus(ctx, req.ReturnID, "approved", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	_, err = m.UpdateStatus(ctx, req.ReturnID, "resolved", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	stored, err := repo.GetByReturnID(ctx, req.ReturnID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", stored.Status)
}

func TestReturnResolveRequiresApprovalFirst(t *testing.T) {
	t.Parallel()

	m, _, _ := newReturnFixture(t)
	req := createTestReturn(t, m, ReturnTypeReturn)

	_, err := m.UpdateStatus(context.Background(), req.ReturnID, "resolved", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))
}

func TestReturnUnknownRequest(t *testing.T) {
	t.Parallel()

	m, _, _ := newReturnFixture(t)

	_, err := m.GetRequest(context.Background(), "RET0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	mock_database "github.com/fashionbreeze/lifecycle/internal/db/mocks"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
	"github.com/fashionbreeze/lifecycle/internal/repository/postgresql"
)

func TestNotificationRepo_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	repo := postgresql.NewNotificationRepo(mockDB)

	orderRef := "FB000042"
	n := &repository.Notification{
		ID:        uuid.New(),
		UserID:    "customer-456",
		Type:      "status-changed",
		Title:     "Order update",
		Message:   "FB000042 moved from pending to confirmed.",
		OrderRef:  &orderRef,
		CreatedAt: now,
	}

	mockDB.EXPECT().Exec(
		gomock.Any(),
		gomock.Any(),
		gomock.Eq(n.ID),
		gomock.Eq(n.UserID),
		gomock.Eq(n.Type),
		gomock.Eq(n.Title),
		gomock.Eq(n.Message),
		gomock.Eq(n.OrderRef),
		gomock.Eq(n.IsRead),
		gomock.Eq(n.CreatedAt),
	).Return(pgconn.CommandTag("INSERT 0 1"), nil)

	err := repo.Create(ctx, n)
	assert.NoError(t, err)
}

func TestNotificationRepo_ListByUser(t *testing.T) {
	ctx := context.Background()

	t.Run("with limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewNotificationRepo(mockDB)

		want := []*repository.Notification{{ID: uuid.New(), UserID: "customer-456"}}

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("customer-456"), gomock.Eq(50)).
			DoAndReturn(func(_ context.Context, dest *[]*repository.Notification, _ string, _ ...interface{}) error {
				*dest = want
				return nil
			})

		got, err := repo.ListByUser(ctx, "customer-456", 50)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("no limit arg when zero", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewNotificationRepo(mockDB)

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("customer-456")).
			Return(nil)

		_, err := repo.ListByUser(ctx, "customer-456", 0)
		assert.NoError(t, err)
	})
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("marked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewNotificationRepo(mockDB)

		id := uuid.New()
		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(id)).
			Return(pgconn.CommandTag("UPDATE 1"), nil)

		err := repo.MarkRead(ctx, id)
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewNotificationRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(pgconn.CommandTag("UPDATE 0"), nil)

		err := repo.MarkRead(ctx, uuid.New())
		assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	})
}

package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/platform/database/dbtest"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	return NewGORMRepository(dbtest.Open(t, &Notification{}))
}

func seedNotifications(t *testing.T, repo Repository, userID uuid.UUID, n int) []Notification {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Notification, 0, n)
	for i := 0; i < n; i++ {
		item := Notification{UserID: userID, Type: DonationAccepted, Message: "accepted"}
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), &item))
		out = append(out, item)
	}
	return out
}

func TestRepository_GetByUserID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	seeded := seedNotifications(t, repo, owner, 3)
	seedNotifications(t, repo, other, 2)

	page, total, err := repo.GetByUserID(ctx, owner, common.PaginationQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, seeded[2].ID, page[0].ID, "newest first")
	assert.Equal(t, seeded[1].ID, page[1].ID)

	page, _, err = repo.GetByUserID(ctx, owner, common.PaginationQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, seeded[0].ID, page[0].ID)
}

func TestRepository_MarkAsRead(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := uuid.New()
	item := seedNotifications(t, repo, owner, 1)[0]

	assert.ErrorIs(t, repo.MarkAsRead(ctx, item.ID, uuid.New()), common.ErrNotFound, "other users cannot mark it")
	assert.ErrorIs(t, repo.MarkAsRead(ctx, uuid.New(), owner), common.ErrNotFound)

	require.NoError(t, repo.MarkAsRead(ctx, item.ID, owner))
	require.NoError(t, repo.MarkAsRead(ctx, item.ID, owner), "marking twice is not an error")

	unread, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestRepository_MarkAllAsRead(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	items := seedNotifications(t, repo, owner, 3)
	seedNotifications(t, repo, other, 1)
	require.NoError(t, repo.MarkAsRead(ctx, items[0].ID, owner))

	count, err := repo.MarkAllAsRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := repo.CountUnread(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "other users are untouched")
}

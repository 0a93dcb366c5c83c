package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/events"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, pq common.PaginationQuery) ([]Notification, int64, error) {
	args := m.Called(ctx, userID, pq)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	return notifications, args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func setupService(t *testing.T) (*ServiceImplementation, *MockNotificationRepository) {
	t.Helper()
	repo := new(MockNotificationRepository)
	t.Cleanup(func() { repo.AssertExpectations(t) })
	return NewService(repo, zap.NewNop()), repo
}

func TestHandle_AcceptedNotifiesDonor(t *testing.T) {
	svc, repo := setupService(t)
	donor, receiver, donationID := uuid.New(), uuid.New(), uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.UserID == donor &&
			n.Type == DonationAccepted &&
			n.RelatedDonationID != nil && *n.RelatedDonationID == donationID &&
			n.Message == `Your donation "Winter coats" has been accepted.`
	})).Return(nil).Once()

	err := svc.Handle(context.Background(), events.New(events.DonationAccepted, donationID, donor, &receiver, "Winter coats"))
	require.NoError(t, err)
}

func TestHandle_CompletedNotifiesReceiver(t *testing.T) {
	svc, repo := setupService(t)
	donor, receiver := uuid.New(), uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.UserID == receiver && n.Type == DonationCompleted
	})).Return(nil).Once()

	require.NoError(t, svc.Handle(context.Background(), events.New(events.DonationCompleted, uuid.New(), donor, &receiver, "Books")))
}

func TestHandle_IgnoredEvents(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, events.New(events.DonationCreated, uuid.New(), uuid.New(), nil, "x")))
	require.NoError(t, svc.Handle(ctx, events.New(events.DonationDeleted, uuid.New(), uuid.New(), nil, "x")))
	require.NoError(t, svc.Handle(ctx, events.New(events.DonationCompleted, uuid.New(), uuid.New(), nil, "x")),
		"a completed event without a receiver has nobody to notify")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandle_RepositoryFailure(t *testing.T) {
	svc, repo := setupService(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	err := svc.Handle(context.Background(), events.New(events.DonationAccepted, uuid.New(), uuid.New(), nil, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetNotificationsForUser(t *testing.T) {
	svc, repo := setupService(t)
	userID := uuid.New()
	pq := common.PaginationQuery{Page: 2, PageSize: 5}
	repo.On("GetByUserID", mock.Anything, userID, pq).Return([]Notification{{Message: "hi"}}, int64(6), nil).Once()

	items, pagination, err := svc.GetNotificationsForUser(context.Background(), userID, pq)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(6), pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.Equal(t, 2, pagination.CurrentPage)
}

func TestGetNotificationsForUser_RepositoryFailure(t *testing.T) {
	svc, repo := setupService(t)
	repo.On("GetByUserID", mock.Anything, mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("boom")).Once()

	_, _, err := svc.GetNotificationsForUser(context.Background(), uuid.New(), common.PaginationQuery{})
	assert.ErrorIs(t, err, common.ErrInternalServer)
}

func TestMarkNotificationAsRead(t *testing.T) {
	svc, repo := setupService(t)
	userID, missing, broken := uuid.New(), uuid.New(), uuid.New()
	repo.On("MarkAsRead", mock.Anything, missing, userID).Return(common.ErrNotFound.WithDetails("Notification not found.")).Once()
	repo.On("MarkAsRead", mock.Anything, broken, userID).Return(errors.New("db down")).Once()

	assert.ErrorIs(t, svc.MarkNotificationAsRead(context.Background(), missing, userID), common.ErrNotFound)
	assert.ErrorIs(t, svc.MarkNotificationAsRead(context.Background(), broken, userID), common.ErrInternalServer)
}

func TestMarkAllAndUnreadCount(t *testing.T) {
	svc, repo := setupService(t)
	userID := uuid.New()
	repo.On("MarkAllAsRead", mock.Anything, userID).Return(int64(3), nil).Once()
	repo.On("CountUnread", mock.Anything, userID).Return(int64(0), nil).Once()

	count, err := svc.MarkAllUserNotificationsAsRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	unread, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

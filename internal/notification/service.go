// File: internal/notification/service.go
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/events"
)

// Service defines the interface for notification business logic.
type Service interface {
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, pq common.PaginationQuery) ([]Notification, *common.Pagination, error)
	MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	events.Handler
}

// ServiceImplementation implements the notification Service interface.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		logger: logger.Named("notification_service"),
	}
}

func (s *ServiceImplementation) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, pq common.PaginationQuery) ([]Notification, *common.Pagination, error) {
	notifications, total, err := s.repo.GetByUserID(ctx, userID, pq)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.String("userID", userID.String()), zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithCause(err)
	}
	return notifications, common.NewPagination(total, pq.Page, pq.Limit()), nil
}

func (s *ServiceImplementation) MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, userID); err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return err
		}
		return common.ErrInternalServer.WithCause(err)
	}
	return nil
}

func (s *ServiceImplementation) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, common.ErrInternalServer.WithCause(err)
	}
	s.logger.Debug("Marked notifications read", zap.String("userID", userID.String()), zap.Int64("count", count))
	return count, nil
}

func (s *ServiceImplementation) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, common.ErrInternalServer.WithCause(err)
	}
	return count, nil
}

// Handle writes the inbox entry for a lifecycle event. Accepting notifies the
// donor; completing notifies the receiver. Other events are ignored.
func (s *ServiceImplementation) Handle(ctx context.Context, event events.Event) error {
	var n *Notification
	switch event.Type {
	case events.DonationAccepted:
		n = &Notification{
			UserID:  event.DonorID,
			Type:    DonationAccepted,
			Message: fmt.Sprintf("Your donation %q has been accepted.", event.Title),
		}
	case events.DonationCompleted:
		if event.ReceiverID == nil {
			return nil
		}
		n = &Notification{
			UserID:  *event.ReceiverID,
			Type:    DonationCompleted,
			Message: fmt.Sprintf("The donation %q has been marked as completed.", event.Title),
		}
	default:
		return nil
	}

	donationID := event.DonationID
	n.RelatedDonationID = &donationID
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("write %s notification: %w", n.Type, err)
	}
	return nil
}

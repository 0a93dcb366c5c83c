// File: internal/admin/service.go
package admin

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/events"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalDonations     int64 `json:"total_donations"`
	TotalUsers         int64 `json:"total_users"`
	PendingDonations   int64 `json:"pending_donations"`
	AcceptedDonations  int64 `json:"accepted_donations"`
	CompletedDonations int64 `json:"completed_donations"`
}

// Service defines the admin console use cases. Callers are expected to have
// passed the admin role check already.
type Service interface {
	ListDonations(ctx context.Context, pq common.PaginationQuery) ([]donation.Donation, *common.Pagination, error)
	ListUsers(ctx context.Context, pq common.PaginationQuery) ([]user.User, *common.Pagination, error)
	Stats(ctx context.Context) (*Stats, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	FileURL(path string) string
}

type ServiceImplementation struct {
	repo      Repository
	users     user.Repository
	donations donation.Service
	store     filestorage.Store
	publisher events.Publisher
	logger    *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(
	repo Repository,
	users user.Repository,
	donations donation.Service,
	store filestorage.Store,
	publisher events.Publisher,
	logger *zap.Logger,
) *ServiceImplementation {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ServiceImplementation{
		repo:      repo,
		users:     users,
		donations: donations,
		store:     store,
		publisher: publisher,
		logger:    logger.Named("admin"),
	}
}

func (s *ServiceImplementation) ListDonations(ctx context.Context, pq common.PaginationQuery) ([]donation.Donation, *common.Pagination, error) {
	return s.donations.ListAll(ctx, pq)
}

func (s *ServiceImplementation) ListUsers(ctx context.Context, pq common.PaginationQuery) ([]user.User, *common.Pagination, error) {
	users, total, err := s.users.List(ctx, pq)
	if err != nil {
		return nil, nil, err
	}
	return users, common.NewPagination(total, pq.Page, pq.Limit()), nil
}

func (s *ServiceImplementation) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.donations.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.users.CountByRoles(ctx, shared.RoleDonor, shared.RoleReceiver)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalUsers:         totalUsers,
		PendingDonations:   counts[donation.StatusPending],
		AcceptedDonations:  counts[donation.StatusAccepted],
		CompletedDonations: counts[donation.StatusCompleted],
	}
	stats.TotalDonations = stats.PendingDonations + stats.AcceptedDonations + stats.CompletedDonations
	return stats, nil
}

// DeleteUser removes a user and everything they donated. Stored files are
// cleaned up and a deleted event is published per donation after the commit.
func (s *ServiceImplementation) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.repo.DeleteUserCascade(ctx, userID)
	if err != nil {
		return err
	}

	paths := deleted.ImagePaths
	if deleted.User.Avatar != nil {
		paths = append(paths, *deleted.User.Avatar)
	}
	cleanupCtx := context.WithoutCancel(ctx)
	for _, path := range paths {
		if err := s.store.Delete(cleanupCtx, path); err != nil {
			s.logger.Warn("Failed to remove stored file", zap.String("path", path), zap.Error(err))
		}
	}
	for _, d := range deleted.Donations {
		event := events.New(events.DonationDeleted, d.ID, d.UserID, d.ReceiverID, d.Title)
		if err := s.publisher.Publish(cleanupCtx, event); err != nil {
			s.logger.Warn("Failed to publish donation event", zap.String("donationID", d.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("User deleted by admin",
		zap.String("userID", userID.String()),
		zap.Int("donations", len(deleted.Donations)))
	return nil
}

func (s *ServiceImplementation) FileURL(path string) string {
	return s.store.URL(path)
}

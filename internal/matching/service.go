// File: internal/matching/service.go
package matching

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// UserLookup is the part of the user service matching needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// DonationSource is the part of the donation service matching needs.
type DonationSource interface {
	PendingCandidates(ctx context.Context) ([]donation.Donation, error)
	FileURL(path string) string
}

// Service answers match requests for receivers.
type Service struct {
	users        UserLookup
	donations    DonationSource
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewService creates a new matching service.
func NewService(users UserLookup, donations DonationSource, orchestrator *Orchestrator, logger *zap.Logger) *Service {
	return &Service{
		users:        users,
		donations:    donations,
		orchestrator: orchestrator,
		logger:       logger.Named("matching"),
	}
}

// MatchForUser recommends pending donations for userID. Admins may ask for
// anyone; receivers only for themselves. origin overrides the user's stored
// location when set.
func (s *Service) MatchForUser(ctx context.Context, principal shared.Principal, userID uuid.UUID, origin *Point) ([]Result, error) {
	switch principal.Role {
	case shared.RoleAdmin:
	case shared.RoleReceiver:
		if principal.UserID != userID {
			return nil, common.ErrForbidden.WithDetails("Receivers can only request matches for themselves.")
		}
	case shared.RoleDonor:
		return nil, common.ErrForbidden.WithDetails("Only receivers can request matches.")
	default:
		return nil, common.ErrForbidden.WithDetails("Only receivers can request matches.")
	}

	target, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if origin == nil {
		if !target.HasLocation() {
			return nil, common.FieldError("location", "Set a location on the profile or pass lat and lon.")
		}
		origin = &Point{Latitude: *target.Latitude, Longitude: *target.Longitude}
	}

	pending, err := s.donations.PendingCandidates(ctx)
	if err != nil {
		return nil, err
	}
	candidates := Nearest(*origin, pending)

	profile := Profile{Name: target.Name}
	if target.Bio != nil {
		profile.Bio = *target.Bio
	}
	results, err := s.orchestrator.Match(ctx, profile, candidates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Match request served",
		zap.String("userID", userID.String()),
		zap.Int("pending", len(pending)),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(results)))
	return results, nil
}

// FileURL resolves stored image paths for match payloads.
func (s *Service) FileURL(path string) string {
	return s.donations.FileURL(path)
}

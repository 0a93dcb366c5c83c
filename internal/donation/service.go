// File: internal/donation/service.go
package donation

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/events"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/platform/metrics"
	"wecare_donations_backend/internal/shared"
)

// Searcher finds pending donations in the search index. It returns donation
// ids in relevance order and the total number of hits.
type Searcher interface {
	SearchPending(ctx context.Context, text string, categoryID *uuid.UUID, from, size int) ([]uuid.UUID, int64, error)
}

// Service defines the donation use cases.
type Service interface {
	CreateDonation(ctx context.Context, principal shared.Principal, req CreateDonationRequest, images []*multipart.FileHeader) (*Donation, error)
	AcceptDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) (*Donation, error)
	CompleteDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) (*Donation, error)
	DeleteDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) error

	GetDonation(ctx context.Context, id uuid.UUID) (*Donation, error)
	ListPending(ctx context.Context, pq common.PaginationQuery) ([]Donation, *common.Pagination, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, pq common.PaginationQuery) ([]Donation, *common.Pagination, error)
	ListByUser(ctx context.Context, principal shared.Principal, userID uuid.UUID, pq common.PaginationQuery) ([]Donation, *common.Pagination, error)
	ListAll(ctx context.Context, pq common.PaginationQuery) ([]Donation, *common.Pagination, error)
	Search(ctx context.Context, query SearchQuery, pq common.PaginationQuery) ([]Donation, *common.Pagination, error)

	PendingCandidates(ctx context.Context) ([]Donation, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	FileURL(path string) string
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo         Repository
	categoryRepo category.Repository
	store        filestorage.Store
	imageRules   filestorage.ImageRules
	publisher    events.Publisher
	searcher     Searcher
	logger       *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new donation service. searcher may be nil when search
// is not configured.
func NewService(
	repo Repository,
	categoryRepo category.Repository,
	store filestorage.Store,
	imageRules filestorage.ImageRules,
	publisher events.Publisher,
	searcher Searcher,
	logger *zap.Logger,
) *ServiceImplementation {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ServiceImplementation{
		repo:         repo,
		categoryRepo: categoryRepo,
		store:        store,
		imageRules:   imageRules,
		publisher:    publisher,
		searcher:     searcher,
		logger:       logger.Named("donation"),
	}
}

// CreateDonation stores the images, then inserts the donation and its image
// rows together. Stored files are removed again if the insert fails.
func (s *ServiceImplementation) CreateDonation(ctx context.Context, principal shared.Principal, req CreateDonationRequest, images []*multipart.FileHeader) (*Donation, error) {
	switch principal.Role {
	case shared.RoleDonor:
	case shared.RoleReceiver, shared.RoleAdmin:
		return nil, common.ErrForbidden.WithDetails("Only donors can create donations.")
	default:
		return nil, common.ErrForbidden.WithDetails("Only donors can create donations.")
	}

	title := common.SanitizeText(req.Title)
	if title == "" {
		return nil, common.FieldError("Title", "The title field is required.")
	}
	description := common.SanitizeText(req.Description)
	if description == "" {
		return nil, common.FieldError("Description", "The description field is required.")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, common.FieldError("Latitude", "Latitude and longitude are required.")
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, common.FieldError("CategoryID", "Category ID must be a valid UUID.")
	}
	if err := s.imageRules.ValidateImages("images", images, true); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.FieldError("CategoryID", "Category does not exist.")
		}
		return nil, err
	}

	stored := make([]string, 0, len(images))
	for _, fh := range images {
		path, err := s.store.Save(ctx, fh, filestorage.DirDonations)
		if err != nil {
			s.removeFiles(ctx, stored)
			return nil, common.StorageFailure("save donation image", err)
		}
		stored = append(stored, path)
	}

	donation := &Donation{
		Title:       title,
		Description: description,
		CategoryID:  categoryID,
		UserID:      principal.UserID,
		Status:      StatusPending,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	for _, path := range stored {
		donation.Images = append(donation.Images, DonationImage{ImagePath: path})
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		s.removeFiles(ctx, stored)
		return nil, err
	}

	metrics.DonationTransition(string(StatusPending))
	s.publish(ctx, events.New(events.DonationCreated, donation.ID, donation.UserID, nil, donation.Title))
	s.logger.Info("Donation created",
		zap.String("donationID", donation.ID.String()),
		zap.String("userID", principal.UserID.String()),
		zap.Int("images", len(stored)))
	return donation, nil
}

// AcceptDonation claims a pending donation for the calling receiver.
func (s *ServiceImplementation) AcceptDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) (*Donation, error) {
	switch principal.Role {
	case shared.RoleReceiver:
	case shared.RoleDonor, shared.RoleAdmin:
		return nil, common.ErrForbidden.WithDetails("Only receivers can accept donations.")
	default:
		return nil, common.ErrForbidden.WithDetails("Only receivers can accept donations.")
	}

	donation, err := s.repo.Accept(ctx, id, principal.UserID)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransition(string(StatusAccepted))
	s.publish(ctx, events.New(events.DonationAccepted, donation.ID, donation.UserID, donation.ReceiverID, donation.Title))
	s.logger.Info("Donation accepted",
		zap.String("donationID", id.String()), zap.String("receiverID", principal.UserID.String()))
	return donation, nil
}

// CompleteDonation closes an accepted donation. Only its donor or an admin may do so.
func (s *ServiceImplementation) CompleteDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) (*Donation, error) {
	current, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !principal.IsSelfOrAdmin(current.UserID) {
		return nil, common.ErrForbidden.WithDetails("Only the donor or an admin can complete this donation.")
	}

	donation, err := s.repo.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransition(string(StatusCompleted))
	s.publish(ctx, events.New(events.DonationCompleted, donation.ID, donation.UserID, donation.ReceiverID, donation.Title))
	s.logger.Info("Donation completed",
		zap.String("donationID", id.String()), zap.String("by", principal.UserID.String()))
	return donation, nil
}

// DeleteDonation removes a donation in any state. Stored images are removed
// after the rows are gone; failures there are only logged.
func (s *ServiceImplementation) DeleteDonation(ctx context.Context, principal shared.Principal, id uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return err
	}
	if !principal.IsSelfOrAdmin(current.UserID) {
		return common.ErrForbidden.WithDetails("Only the donor or an admin can delete this donation.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFiles(ctx, current.ImagePaths())

	metrics.DonationTransition("deleted")
	s.publish(ctx, events.New(events.DonationDeleted, current.ID, current.UserID, current.ReceiverID, current.Title))
	s.logger.Info("Donation deleted",
		zap.String("donationID", id.String()), zap.String("by", principal.UserID.String()))
	return nil
}

func (s *ServiceImplementation) GetDonation(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return s.repo.FindByID(ctx, id, true)
}

func (s *ServiceImplementation) list(ctx context.Context, filter ListFilter, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	donations, total, err := s.repo.List(ctx, filter, pq)
	if err != nil {
		return nil, nil, err
	}
	return donations, common.NewPagination(total, pq.Page, pq.Limit()), nil
}

// ListPending returns the public feed of pending donations, newest first.
func (s *ServiceImplementation) ListPending(ctx context.Context, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	status := StatusPending
	return s.list(ctx, ListFilter{Status: &status}, pq)
}

func (s *ServiceImplementation) ListByCategory(ctx context.Context, categoryID uuid.UUID, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	status := StatusPending
	return s.list(ctx, ListFilter{Status: &status, CategoryID: &categoryID}, pq)
}

// ListByUser returns every donation of userID in any state, to the user themself or an admin.
func (s *ServiceImplementation) ListByUser(ctx context.Context, principal shared.Principal, userID uuid.UUID, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	if !principal.IsSelfOrAdmin(userID) {
		return nil, nil, common.ErrForbidden.WithDetails("You can only list your own donations.")
	}
	return s.list(ctx, ListFilter{UserID: &userID}, pq)
}

// ListAll returns donations in every state. Callers enforce admin access.
func (s *ServiceImplementation) ListAll(ctx context.Context, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	return s.list(ctx, ListFilter{}, pq)
}

// Search runs a full-text query against the index and loads the hits from the database.
func (s *ServiceImplementation) Search(ctx context.Context, query SearchQuery, pq common.PaginationQuery) ([]Donation, *common.Pagination, error) {
	if s.searcher == nil {
		return nil, nil, common.ErrServiceUnavailable.WithDetails("Search is not configured.")
	}
	var categoryID *uuid.UUID
	if query.CategoryID != "" {
		id, err := uuid.Parse(query.CategoryID)
		if err != nil {
			return nil, nil, common.FieldError("CategoryID", "Category ID must be a valid UUID.")
		}
		categoryID = &id
	}

	ids, total, err := s.searcher.SearchPending(ctx, common.SanitizeText(query.Text), categoryID, pq.Offset(), pq.Limit())
	if err != nil {
		return nil, nil, common.ErrServiceUnavailable.WithCause(err)
	}
	donations, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return donations, common.NewPagination(total, pq.Page, pq.Limit()), nil
}

// PendingCandidates returns all pending donations with their donor and category loaded.
func (s *ServiceImplementation) PendingCandidates(ctx context.Context) ([]Donation, error) {
	return s.repo.FindAllPending(ctx)
}

func (s *ServiceImplementation) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	return s.repo.CountByStatus(ctx)
}

// FileURL resolves a stored image or avatar path to its public URL.
func (s *ServiceImplementation) FileURL(path string) string {
	return s.store.URL(path)
}

// publish sends event after a commit. The mutation has already happened, so
// a failure is logged and not returned.
func (s *ServiceImplementation) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish donation event",
			zap.String("type", string(event.Type)),
			zap.String("donationID", event.DonationID.String()),
			zap.Error(err))
	}
}

func (s *ServiceImplementation) removeFiles(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.store.Delete(context.WithoutCancel(ctx), path); err != nil {
			s.logger.Warn("Failed to remove stored file", zap.String("path", path), zap.Error(err))
		}
	}
}

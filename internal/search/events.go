// File: internal/search/events.go
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/events"
)

// DonationLoader is the read side of the donation repository the index needs.
type DonationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*donation.Donation, error)
	FindAllPending(ctx context.Context) ([]donation.Donation, error)
}

type eventHandler struct {
	index     *Index
	donations DonationLoader
	logger    *zap.Logger
}

// NewEventHandler keeps the index in step with donation lifecycle events.
// It returns nil when idx is nil so the dispatcher skips it.
func NewEventHandler(idx *Index, donations DonationLoader, logger *zap.Logger) events.Handler {
	if idx == nil {
		return nil
	}
	return &eventHandler{index: idx, donations: donations, logger: logger.Named("search_events")}
}

func (h *eventHandler) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.DonationCreated:
		d, err := h.donations.FindByID(ctx, event.DonationID, true)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// Deleted before the event was consumed.
				h.logger.Debug("Donation gone before indexing", zap.String("donationID", event.DonationID.String()))
				return nil
			}
			return fmt.Errorf("load donation for indexing: %w", err)
		}
		if d.Status != donation.StatusPending {
			return h.index.Remove(ctx, d.ID)
		}
		return h.index.Put(ctx, d)
	case events.DonationAccepted, events.DonationCompleted, events.DonationDeleted:
		return h.index.Remove(ctx, event.DonationID)
	default:
		return nil
	}
}

// Reindex rebuilds the index from every pending donation in the database.
func Reindex(ctx context.Context, idx *Index, donations DonationLoader, logger *zap.Logger) error {
	if idx == nil {
		return errors.New("search is not configured")
	}
	pending, err := donations.FindAllPending(ctx)
	if err != nil {
		return fmt.Errorf("load pending donations: %w", err)
	}
	indexed, removed, err := idx.Sync(ctx, pending)
	if err != nil {
		return err
	}
	logger.Info("Search index synchronised",
		zap.Int("pending", len(pending)),
		zap.Int("indexed", indexed),
		zap.Int64("removed", removed))
	return nil
}

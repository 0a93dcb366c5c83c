// File: internal/donation/repository.go
package donation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wecare_donations_backend/internal/common"
)

// ListFilter narrows a donation listing. Zero values mean "any".
type ListFilter struct {
	Status     *Status
	CategoryID *uuid.UUID
	UserID     *uuid.UUID
}

// Repository defines the interface for donation data operations.
type Repository interface {
	Create(ctx context.Context, donation *Donation) error
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Donation, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Donation, error)
	List(ctx context.Context, filter ListFilter, pq common.PaginationQuery) ([]Donation, int64, error)
	FindAllPending(ctx context.Context) ([]Donation, error)
	Accept(ctx context.Context, id, receiverID uuid.UUID) (*Donation, error)
	Complete(ctx context.Context, id uuid.UUID) (*Donation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM donation repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// preloader applies the associations shown in listings.
func preloader(query *gorm.DB) *gorm.DB {
	return query.Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") })
}

// Create inserts the donation row and its image rows in one transaction.
func (r *gormRepository) Create(ctx context.Context, donation *Donation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		images := donation.Images
		if err := tx.Omit(clause.Associations).Create(donation).Error; err != nil {
			return common.StorageFailure("create donation", err)
		}
		for i := range images {
			images[i].DonationID = donation.ID
			images[i].SortOrder = i
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return common.StorageFailure("create donation images", err)
			}
		}
		donation.Images = images
		return nil
	})
}

// FindByID retrieves a donation by its ID, optionally with category, images and donor.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Donation, error) {
	var donation Donation
	query := r.db.WithContext(ctx)
	if preloadAssociations {
		query = preloader(query).Preload("Donor")
	}
	if err := query.First(&donation, "donations.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Donation not found.")
		}
		return nil, common.StorageFailure("find donation", err)
	}
	return &donation, nil
}

// FindByIDs loads donations in the order of ids, skipping ids that no longer exist.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Donation, error) {
	if len(ids) == 0 {
		return []Donation{}, nil
	}
	var found []Donation
	if err := preloader(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, common.StorageFailure("find donations by ids", err)
	}
	byID := make(map[uuid.UUID]Donation, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	ordered := make([]Donation, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return ordered, nil
}

// List returns donations matching filter, newest first.
func (r *gormRepository) List(ctx context.Context, filter ListFilter, pq common.PaginationQuery) ([]Donation, int64, error) {
	var (
		donations []Donation
		total     int64
	)
	query := r.db.WithContext(ctx).Model(&Donation{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, common.StorageFailure("count donations", err)
	}
	err := preloader(query).Order("created_at DESC").Order("id ASC").
		Offset(pq.Offset()).Limit(pq.Limit()).Find(&donations).Error
	if err != nil {
		return nil, 0, common.StorageFailure("list donations", err)
	}
	return donations, total, nil
}

// FindAllPending returns every pending donation with category, images and donor.
func (r *gormRepository) FindAllPending(ctx context.Context) ([]Donation, error) {
	var donations []Donation
	err := preloader(r.db.WithContext(ctx)).Preload("Donor").
		Where("status = ?", StatusPending).Order("created_at DESC").Find(&donations).Error
	if err != nil {
		return nil, common.StorageFailure("list pending donations", err)
	}
	return donations, nil
}

// transition moves a donation from one state to the next with a conditional
// update. Zero affected rows means the row is missing or was not in state from.
func (r *gormRepository) transition(ctx context.Context, id uuid.UUID, from Status, changes map[string]interface{}) (*Donation, error) {
	var updated Donation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes["updated_at"] = time.Now()
		result := tx.Model(&Donation{}).Where("id = ? AND status = ?", id, from).Updates(changes)
		if result.Error != nil {
			return common.StorageFailure("update donation status", result.Error)
		}
		if result.RowsAffected == 0 {
			var current Donation
			if err := tx.Select("id", "status").First(&current, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return common.ErrNotFound.WithDetails("Donation not found.")
				}
				return common.StorageFailure("reload donation", err)
			}
			return common.ErrInvalidState.WithDetails(
				fmt.Sprintf("Donation is %s; this action requires it to be %s.", current.Status, from))
		}
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return common.StorageFailure("reload donation", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Accept marks a pending donation accepted by receiverID. At most one of
// several concurrent calls succeeds.
func (r *gormRepository) Accept(ctx context.Context, id, receiverID uuid.UUID) (*Donation, error) {
	return r.transition(ctx, id, StatusPending, map[string]interface{}{
		"status":      StatusAccepted,
		"receiver_id": receiverID,
	})
}

// Complete marks an accepted donation completed.
func (r *gormRepository) Complete(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return r.transition(ctx, id, StatusAccepted, map[string]interface{}{
		"status": StatusCompleted,
	})
}

// Delete removes the image rows and then the donation row.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("donation_id = ?", id).Delete(&DonationImage{}).Error; err != nil {
			return common.StorageFailure("delete donation images", err)
		}
		result := tx.Delete(&Donation{}, "id = ?", id)
		if result.Error != nil {
			return common.StorageFailure("delete donation", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Donation not found.")
		}
		return nil
	})
}

// CountByStatus returns the number of donations in each state.
func (r *gormRepository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&Donation{}).
		Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, common.StorageFailure("count donations by status", err)
	}
	counts := map[Status]int64{StatusPending: 0, StatusAccepted: 0, StatusCompleted: 0}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// File: internal/admin/repository.go
package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/notification"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// DeletedUser describes what a cascading user delete removed, so the caller
// can clean up stored files and announce the removed donations.
type DeletedUser struct {
	User       user.User
	Donations  []donation.Donation
	ImagePaths []string
}

// Repository holds the admin operations that span several tables.
type Repository interface {
	DeleteUserCascade(ctx context.Context, userID uuid.UUID) (*DeletedUser, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM admin repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// DeleteUserCascade removes a non-admin user together with their donations,
// donation images and notifications in one transaction. A user who is still
// the receiver of a donation is refused with a conflict.
func (r *gormRepository) DeleteUserCascade(ctx context.Context, userID uuid.UUID) (*DeletedUser, error) {
	var deleted DeletedUser
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted.User, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound.WithDetails("User not found.")
			}
			return common.StorageFailure("find user", err)
		}
		if deleted.User.Role == shared.RoleAdmin {
			return common.ErrBadRequest.WithDetails("Admin accounts cannot be deleted.")
		}

		var received int64
		if err := tx.Model(&donation.Donation{}).Where("receiver_id = ?", userID).Count(&received).Error; err != nil {
			return common.StorageFailure("count received donations", err)
		}
		if received > 0 {
			return common.ErrConflict.WithDetails("User is the receiver of accepted donations and cannot be deleted.")
		}

		if err := tx.Preload("Images").Where("user_id = ?", userID).Find(&deleted.Donations).Error; err != nil {
			return common.StorageFailure("load user donations", err)
		}
		donationIDs := make([]uuid.UUID, 0, len(deleted.Donations))
		for _, d := range deleted.Donations {
			donationIDs = append(donationIDs, d.ID)
			deleted.ImagePaths = append(deleted.ImagePaths, d.ImagePaths()...)
		}

		if len(donationIDs) > 0 {
			if err := tx.Where("donation_id IN ?", donationIDs).Delete(&donation.DonationImage{}).Error; err != nil {
				return common.StorageFailure("delete donation images", err)
			}
			if err := tx.Where("id IN ?", donationIDs).Delete(&donation.Donation{}).Error; err != nil {
				return common.StorageFailure("delete donations", err)
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&notification.Notification{}).Error; err != nil {
			return common.StorageFailure("delete notifications", err)
		}
		if err := tx.Delete(&user.User{}, "id = ?", userID).Error; err != nil {
			return common.StorageFailure("delete user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/shared"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, pq common.PaginationQuery) ([]User, int64, error)
	CountByRoles(ctx context.Context, roles ...shared.Role) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if common.IsDuplicateKey(err) {
			return common.ErrConflict.WithDetails("User with this email already exists.")
		}
		return common.StorageFailure("create user", err)
	}
	return nil
}

// FindByEmail retrieves a user by their email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this email.")
		}
		return nil, common.StorageFailure("find user by email", err)
	}
	return &userModel, nil
}

// FindByID retrieves a user by their ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, common.StorageFailure("find user by id", err)
	}
	return &userModel, nil
}

// Update saves profile fields. The role column is never written.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Model(user).
		Select("name", "email", "phone", "avatar", "bio", "latitude", "longitude", "updated_at").
		Updates(user).Error
	if err != nil {
		if common.IsDuplicateKey(err) {
			return common.ErrConflict.WithDetails("Update failed: email already taken.")
		}
		return common.StorageFailure("update user", err)
	}
	return nil
}

// List returns users newest first.
func (r *gormRepository) List(ctx context.Context, pq common.PaginationQuery) ([]User, int64, error) {
	var (
		users []User
		total int64
	)
	query := r.db.WithContext(ctx).Model(&User{}).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, common.StorageFailure("count users", err)
	}
	if err := query.Order("created_at DESC").Offset(pq.Offset()).Limit(pq.Limit()).Find(&users).Error; err != nil {
		return nil, 0, common.StorageFailure("list users", err)
	}
	return users, total, nil
}

// CountByRoles counts users holding any of the given roles.
func (r *gormRepository) CountByRoles(ctx context.Context, roles ...shared.Role) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("role IN ?", roles).Count(&total).Error; err != nil {
		return 0, common.StorageFailure("count users by role", err)
	}
	return total, nil
}

// File: internal/category/repository.go
package category

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/common"
)

// Repository defines the interface for category data operations.
type Repository interface {
	CreateCategory(ctx context.Context, category *Category) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	FindAllCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM category repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateCategory(ctx context.Context, category *Category) error {
	category.Slug = strings.ToLower(strings.TrimSpace(category.Slug))
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if common.IsDuplicateKey(err) {
			return common.ErrConflict.WithDetails("Category with this name or slug already exists.")
		}
		return common.StorageFailure("create category", err)
	}
	return nil
}

func (r *gormRepository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Category not found.")
		}
		return nil, common.StorageFailure("find category", err)
	}
	return &category, nil
}

func (r *gormRepository) FindCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	normalizedSlug := strings.ToLower(strings.TrimSpace(slug))
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", normalizedSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Category not found.")
		}
		return nil, common.StorageFailure("find category by slug", err)
	}
	return &category, nil
}

func (r *gormRepository) FindAllCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, common.StorageFailure("list categories", err)
	}
	return categories, nil
}

func (r *gormRepository) UpdateCategory(ctx context.Context, category *Category) error {
	category.Slug = strings.ToLower(strings.TrimSpace(category.Slug))
	result := r.db.WithContext(ctx).Model(category).Select("name", "slug", "icon", "updated_at").Updates(category)
	if result.Error != nil {
		if common.IsDuplicateKey(result.Error) {
			return common.ErrConflict.WithDetails("Category with this name or slug already exists.")
		}
		return common.StorageFailure("update category", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Category not found.")
	}
	return nil
}

// DeleteCategory refuses to delete a category that donations still reference.
func (r *gormRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Table("donations").Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return common.StorageFailure("count category donations", err)
		}
		if inUse > 0 {
			return common.ErrConflict.WithDetails("Category is still used by donations.")
		}
		result := tx.Delete(&Category{}, "id = ?", id)
		if result.Error != nil {
			return common.StorageFailure("delete category", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Category not found.")
		}
		return nil
	})
}

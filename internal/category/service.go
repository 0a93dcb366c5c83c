// File: internal/category/service.go
package category

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
)

// Service defines the interface for category-related business logic.
type Service interface {
	AdminCreateCategory(ctx context.Context, req AdminCreateCategoryRequest) (*Category, error)
	AdminUpdateCategory(ctx context.Context, id uuid.UUID, req AdminCreateCategoryRequest) (*Category, error)
	AdminDeleteCategory(ctx context.Context, id uuid.UUID) error

	GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	GetAllCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new category service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.Named("category"),
	}
}

func makeSlug(requested, name string) string {
	if s := strings.TrimSpace(requested); s != "" {
		return slug.Make(s)
	}
	return slug.Make(name)
}

func (s *service) AdminCreateCategory(ctx context.Context, req AdminCreateCategoryRequest) (*Category, error) {
	name := common.SanitizeText(req.Name)
	finalSlug := makeSlug(req.Slug, name)
	if name == "" || finalSlug == "" {
		return nil, common.FieldError("Name", "The name must contain letters or digits.")
	}

	category := &Category{
		Name: name,
		Slug: finalSlug,
		Icon: common.SanitizeOptional(req.Icon),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category created successfully", zap.String("id", category.ID.String()), zap.String("name", category.Name))
	return category, nil
}

func (s *service) AdminUpdateCategory(ctx context.Context, id uuid.UUID, req AdminCreateCategoryRequest) (*Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := common.SanitizeText(req.Name)
	finalSlug := makeSlug(req.Slug, name)
	if name == "" || finalSlug == "" {
		return nil, common.FieldError("Name", "The name must contain letters or digits.")
	}
	category.Name = name
	category.Slug = finalSlug
	category.Icon = common.SanitizeOptional(req.Icon)

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category updated successfully", zap.String("id", id.String()))
	return category, nil
}

func (s *service) AdminDeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted successfully", zap.String("id", id.String()))
	return nil
}

func (s *service) GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.FindCategoryByID(ctx, id)
}

func (s *service) GetCategoryBySlug(ctx context.Context, slugValue string) (*Category, error) {
	return s.repo.FindCategoryBySlug(ctx, slugValue)
}

func (s *service) GetAllCategories(ctx context.Context) ([]Category, error) {
	return s.repo.FindAllCategories(ctx)
}

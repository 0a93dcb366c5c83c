package category

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/platform/database/dbtest"
)

// donationRow is the slice of the donations table that category deletion looks at.
type donationRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid"`
}

func (donationRow) TableName() string { return "donations" }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, &Category{}, &donationRow{})
}

func TestGORMRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewGORMRepository(openDB(t))

	food := &Category{Name: "Food", Slug: " FOOD "}
	require.NoError(t, repo.CreateCategory(ctx, food))
	assert.Equal(t, "food", food.Slug)
	require.NoError(t, repo.CreateCategory(ctx, &Category{Name: "Clothing", Slug: "clothing"}))

	err := repo.CreateCategory(ctx, &Category{Name: "Food", Slug: "food-2"})
	assert.True(t, errors.Is(err, common.ErrConflict))

	bySlug, err := repo.FindCategoryBySlug(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, food.ID, bySlug.ID)

	all, err := repo.FindAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Clothing", all[0].Name, "ordered by name")

	food.Name = "Groceries"
	food.Slug = "groceries"
	require.NoError(t, repo.UpdateCategory(ctx, food))
	byID, err := repo.FindCategoryByID(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", byID.Slug)

	missing := &Category{Name: "Ghost", Slug: "ghost"}
	missing.ID = uuid.New()
	assert.True(t, errors.Is(repo.UpdateCategory(ctx, missing), common.ErrNotFound))

	_, err = repo.FindCategoryByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGORMRepository_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo := NewGORMRepository(db)

	used := &Category{Name: "Furniture", Slug: "furniture"}
	unused := &Category{Name: "Toys", Slug: "toys"}
	require.NoError(t, repo.CreateCategory(ctx, used))
	require.NoError(t, repo.CreateCategory(ctx, unused))
	require.NoError(t, db.Create(&donationRow{ID: uuid.New(), CategoryID: used.ID}).Error)

	assert.True(t, errors.Is(repo.DeleteCategory(ctx, used.ID), common.ErrConflict))
	require.NoError(t, repo.DeleteCategory(ctx, unused.ID))
	assert.True(t, errors.Is(repo.DeleteCategory(ctx, unused.ID), common.ErrNotFound))

	_, err := repo.FindCategoryByID(ctx, used.ID)
	assert.NoError(t, err, "category in use is kept")
}

// File: internal/category/model.go
package category

import (
	"time"

	"github.com/google/uuid"

	"wecare_donations_backend/internal/common"
)

// Category is a donation category such as Clothing or Food.
type Category struct {
	common.BaseModel
	Name string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug string  `gorm:"type:varchar(120);not null;uniqueIndex"`
	Icon *string `gorm:"type:varchar(100)"`
}

// TableName specifies the table name for the Category model.
func (Category) TableName() string {
	return "categories"
}

// --- DTOs ---

// CategoryResponse defines the structure for category data sent in API responses.
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a Category model to a CategoryResponse DTO.
func ToCategoryResponse(category *Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Slug:      category.Slug,
		Icon:      category.Icon,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

// AdminCreateCategoryRequest for admin creating or updating categories.
// Slug defaults to one derived from Name.
type AdminCreateCategoryRequest struct {
	Name string  `json:"name" binding:"required,max=100"`
	Slug string  `json:"slug" binding:"omitempty,max=120"`
	Icon *string `json:"icon,omitempty" binding:"omitempty,max=100"`
}

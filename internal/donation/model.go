// File: internal/donation/model.go
package donation

import (
	"time"

	"github.com/google/uuid"

	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/user"
)

// Status is the lifecycle state of a donation. It only moves forward:
// pending -> accepted -> completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
)

// Donation is an item offered by a donor.
type Donation struct {
	common.BaseModel
	Title       string            `gorm:"type:varchar(255);not null"`
	Description string            `gorm:"type:text;not null"`
	CategoryID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Category    category.Category `gorm:"foreignKey:CategoryID"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Donor       user.User         `gorm:"foreignKey:UserID"`
	ReceiverID  *uuid.UUID        `gorm:"type:uuid"`
	Status      Status            `gorm:"type:varchar(20);not null;default:'pending';index"`
	Latitude    *float64          `gorm:"not null"`
	Longitude   *float64          `gorm:"not null"`
	Images      []DonationImage   `gorm:"foreignKey:DonationID"`
}

// TableName specifies the table name for the Donation model.
func (Donation) TableName() string {
	return "donations"
}

// HasLocation reports whether both coordinates are set.
func (d *Donation) HasLocation() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// ImagePaths returns the stored paths of the donation's images in display order.
func (d *Donation) ImagePaths() []string {
	paths := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		paths = append(paths, img.ImagePath)
	}
	return paths
}

// DonationImage is one stored picture of a donation.
type DonationImage struct {
	common.BaseModel
	DonationID uuid.UUID `gorm:"type:uuid;not null;index"`
	ImagePath  string    `gorm:"type:text;not null"`
	SortOrder  int       `gorm:"not null;default:0"`
}

// TableName specifies the table name for the DonationImage model.
func (DonationImage) TableName() string {
	return "donation_images"
}

// --- DTOs ---

// CreateDonationRequest holds the form fields of POST /donations; images
// arrive as the multipart "images" field.
type CreateDonationRequest struct {
	Title       string   `form:"title" binding:"required,max=255"`
	Description string   `form:"description" binding:"required,max=5000"`
	CategoryID  string   `form:"category_id" binding:"required,uuid"`
	Latitude    *float64 `form:"latitude" binding:"required,latitude"`
	Longitude   *float64 `form:"longitude" binding:"required,longitude"`
}

// SearchQuery holds the query parameters of GET /donations/search.
type SearchQuery struct {
	Text       string `form:"q" binding:"max=200"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
}

// CategorySummary is the category as embedded in a donation response.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Icon *string   `json:"icon,omitempty"`
}

// DonorInfo is the donor contact block shown on a single donation.
type DonorInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  *string   `json:"phone,omitempty"`
	Avatar *string   `json:"avatar,omitempty"`
}

// ImageResponse is a donation image with its public URL.
type ImageResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	SortOrder int       `json:"sort_order"`
}

// DonationResponse defines the structure for donation data sent in API responses.
type DonationResponse struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      Status           `json:"status"`
	CategoryID  uuid.UUID        `json:"category_id"`
	Category    *CategorySummary `json:"category,omitempty"`
	UserID      uuid.UUID        `json:"user_id"`
	Donor       *DonorInfo       `json:"donor,omitempty"`
	ReceiverID  *uuid.UUID       `json:"receiver_id,omitempty"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
	Images      []ImageResponse  `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreatedResponse is returned by POST /donations.
type CreatedResponse struct {
	ID uuid.UUID `json:"id"`
}

// ToDonationResponse converts a Donation to its response form. fileURL
// resolves stored paths; includeDonor adds the donor contact block when the
// Donor association was loaded.
func ToDonationResponse(d *Donation, fileURL func(string) string, includeDonor bool) DonationResponse {
	resp := DonationResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		CategoryID:  d.CategoryID,
		UserID:      d.UserID,
		ReceiverID:  d.ReceiverID,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Images:      make([]ImageResponse, 0, len(d.Images)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Category.ID != uuid.Nil {
		resp.Category = &CategorySummary{ID: d.Category.ID, Name: d.Category.Name, Icon: d.Category.Icon}
	}
	if includeDonor && d.Donor.ID != uuid.Nil {
		info := &DonorInfo{ID: d.Donor.ID, Name: d.Donor.Name, Email: d.Donor.Email, Phone: d.Donor.Phone}
		if d.Donor.Avatar != nil && *d.Donor.Avatar != "" {
			url := fileURL(*d.Donor.Avatar)
			info.Avatar = &url
		}
		resp.Donor = info
	}
	for _, img := range d.Images {
		resp.Images = append(resp.Images, ImageResponse{ID: img.ID, URL: fileURL(img.ImagePath), SortOrder: img.SortOrder})
	}
	return resp
}

// ToDonationResponses converts a slice of donations.
func ToDonationResponses(donations []Donation, fileURL func(string) string) []DonationResponse {
	out := make([]DonationResponse, len(donations))
	for i := range donations {
		out[i] = ToDonationResponse(&donations[i], fileURL, false)
	}
	return out
}

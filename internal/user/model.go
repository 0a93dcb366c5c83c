// File: internal/user/model.go
package user

import (
	"time"

	"github.com/google/uuid"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/shared"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Name         string      `gorm:"type:varchar(255);not null"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone        *string     `gorm:"type:varchar(50)"`
	PasswordHash string      `gorm:"type:text;not null"`
	Role         shared.Role `gorm:"type:varchar(20);not null"`
	Avatar       *string     `gorm:"type:text"`
	Bio          *string     `gorm:"type:text"`
	Latitude     *float64
	Longitude    *float64
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRole() shared.Role {
	return u.Role
}

// HasLocation reports whether both profile coordinates are set.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// CreateUserRequest is the registration payload. Role is limited to the
// self-service roles; admins are only created by the bootstrap.
type CreateUserRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Phone    string  `json:"phone" binding:"required,max=50"`
	Role     string  `json:"role" binding:"required,oneof=donor receiver"`
	Bio      *string `json:"bio,omitempty" binding:"omitempty,max=2000"`
}

// UpdateProfileRequest is bound from the multipart profile form. Role cannot
// be changed through it.
type UpdateProfileRequest struct {
	Name      *string  `form:"name" binding:"omitempty,min=1,max=255"`
	Email     *string  `form:"email" binding:"omitempty,email,max=255"`
	Phone     *string  `form:"phone" binding:"omitempty,max=50"`
	Bio       *string  `form:"bio" binding:"omitempty,max=2000"`
	Latitude  *float64 `form:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `form:"longitude" binding:"omitempty,longitude"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     *string     `json:"phone,omitempty"`
	Role      shared.Role `json:"role"`
	Avatar    *string     `json:"avatar,omitempty"`
	Bio       *string     `json:"bio,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ToUserResponse converts a User model to a UserResponse DTO. avatarURL
// resolves the stored avatar path to a public URL.
func ToUserResponse(u *User, avatarURL func(string) string) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Bio:       u.Bio,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Avatar != nil && *u.Avatar != "" {
		url := *u.Avatar
		if avatarURL != nil {
			url = avatarURL(url)
		}
		resp.Avatar = &url
	}
	return resp
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse          `json:"user"`
	Token *shared.TokenResponse `json:"token"`
}

// File: internal/notification/model.go
package notification

import (
	"time"

	"github.com/google/uuid"

	"wecare_donations_backend/internal/common"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	DonationAccepted  NotificationType = "donation_accepted"
	DonationCompleted NotificationType = "donation_completed"
)

// Notification is a message shown to one user about a donation they take part in.
type Notification struct {
	common.BaseModel
	UserID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type              NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Message           string           `gorm:"type:text;not null" json:"message"`
	RelatedDonationID *uuid.UUID       `gorm:"type:uuid" json:"related_donation_id,omitempty"`
	IsRead            bool             `gorm:"not null;default:false" json:"is_read"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// NotificationResponse is the API shape of a notification.
type NotificationResponse struct {
	ID                uuid.UUID        `json:"id"`
	Type              NotificationType `json:"type"`
	Message           string           `json:"message"`
	RelatedDonationID *uuid.UUID       `json:"related_donation_id,omitempty"`
	IsRead            bool             `json:"is_read"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ToNotificationResponses converts models to API responses.
func ToNotificationResponses(notifications []Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationResponse{
			ID:                n.ID,
			Type:              n.Type,
			Message:           n.Message,
			RelatedDonationID: n.RelatedDonationID,
			IsRead:            n.IsRead,
			CreatedAt:         n.CreatedAt,
		})
	}
	return out
}

// MarkAllResponse reports how many notifications were marked read.
type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}

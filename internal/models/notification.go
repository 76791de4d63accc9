package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	Type         string     `gorm:"type:varchar(50);not null" json:"type"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Message      string     `gorm:"type:text" json:"message"`
	ResourceType string     `gorm:"type:varchar(50)" json:"resourceType,omitempty"`
	ResourceID   *uuid.UUID `gorm:"type:uuid" json:"resourceId,omitempty"`
	IsRead       bool       `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification types
const (
	NotificationQuoteAwaitingServiceApproval = "quote.awaiting_service_approval"
	NotificationQuoteAwaitingDGApproval      = "quote.awaiting_dg_approval"
	NotificationQuoteApproved                = "quote.approved"
	NotificationQuoteRejected                = "quote.rejected"
	NotificationQuoteExpired                 = "quote.expired"
)

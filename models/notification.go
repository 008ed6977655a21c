package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotificationNewMessage       = "new_message"
	NotificationNewInterest      = "new_interest"
	NotificationInterestApproved = "interest_approved"
	NotificationInterestRejected = "interest_rejected"
)

// Notification is an entry in a user's in-app notification feed
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"` // recipient
	Type      string            `gorm:"not null;size:32" json:"type"`
	Title     string            `gorm:"not null;size:255" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Metadata  datatypes.JSONMap `json:"metadata"` // {"listing_id": 1, "sender_id": 2, ...}
	IsRead    bool              `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// AllModels lists every model the service migrates
func AllModels() []interface{} {
	return []interface{}{&User{}, &Listing{}, &Interest{}, &Message{}, &Notification{}}
}

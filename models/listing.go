package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing statuses
const (
	ListingOpen   = "open"
	ListingClosed = "closed"
)

// Listing is a business challenge students can apply to
type Listing struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"` // business user who posted the listing
	Owner     User           `gorm:"foreignKey:OwnerID" json:"-"`
	Title     string         `gorm:"not null" json:"title"`
	Status    string         `gorm:"not null;default:'open'" json:"status"` // open, closed
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "issues"
}

package models

import "time"

// Interest statuses
const (
	InterestPending  = "pending"
	InterestApproved = "approved"
	InterestRejected = "rejected"
)

// Interest is a student's application to work on a listing
type Interest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_interest_listing_student" json:"listing_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_interest_listing_student;index" json:"student_id"`
	Status    string    `gorm:"not null;default:'pending';index" json:"status"` // pending, approved, rejected
	Message   string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Interest model
func (Interest) TableName() string {
	return "issue_interests"
}

// CanTransitionTo reports whether the status change is allowed.
// Only pending interests can be decided; decisions are final.
func (i Interest) CanTransitionTo(status string) bool {
	if i.Status != InterestPending {
		return false
	}
	return status == InterestApproved || status == InterestRejected
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent  = "student"
	RoleBusiness = "business"
)

// User represents a marketplace participant (student or business)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'student'" json:"role"` // "student" or "business"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStudent reports whether the user has the student role
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsBusiness reports whether the user has the business role
func (u User) IsBusiness() bool {
	return u.Role == RoleBusiness
}

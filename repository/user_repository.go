package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/studentbridge-api/models"
	"gorm.io/gorm"
)

// UserRepository reads marketplace users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user store over db
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// FindByAuth0ID loads the user behind a JWT subject
func (r *UserRepository) FindByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by auth0 id: %w", err)
	}
	return &user, nil
}

// Role returns the user's role
func (r *UserRepository) Role(ctx context.Context, userID uint) (string, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// Create inserts a new user. A taken Auth0 ID or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateProfile applies non-empty name and email changes and returns the stored row
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uint, name, email string) (*models.User, error) {
	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicate
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return r.FindByID(ctx, userID)
}

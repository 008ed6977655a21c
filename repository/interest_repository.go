package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/studentbridge-api/models"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique constraint rejects an insert
var ErrDuplicate = errors.New("duplicate record")

// InterestRepository stores student applications to listings
type InterestRepository struct {
	db *gorm.DB
}

// NewInterestRepository creates an interest store over db
func NewInterestRepository(db *gorm.DB) *InterestRepository {
	return &InterestRepository{db: db}
}

// Create inserts a new interest
func (r *InterestRepository) Create(ctx context.Context, interest *models.Interest) error {
	if err := r.db.WithContext(ctx).Create(interest).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert interest: %w", err)
	}
	return nil
}

// FindByID loads an interest
func (r *InterestRepository) FindByID(ctx context.Context, id uint) (*models.Interest, error) {
	var interest models.Interest
	err := r.db.WithContext(ctx).First(&interest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find interest: %w", err)
	}
	return &interest, nil
}

// Status returns the status of studentID's interest on the listing, or ""
// when the student never applied
func (r *InterestRepository) Status(ctx context.Context, listingID, studentID uint) (string, error) {
	var interest models.Interest
	err := r.db.WithContext(ctx).
		Select("status").
		Where("listing_id = ? AND student_id = ?", listingID, studentID).
		First(&interest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("interest status: %w", err)
	}
	return interest.Status, nil
}

// Decide moves a pending interest to status. It returns false when the
// interest is no longer pending.
func (r *InterestRepository) Decide(ctx context.Context, id uint, status string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Interest{}).
		Where("id = ? AND status = ?", id, models.InterestPending).
		Update("status", status)
	if result.Error != nil {
		return false, fmt.Errorf("update interest status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListPending returns pending interests on a listing
func (r *InterestRepository) ListPending(ctx context.Context, listingID uint) ([]models.Interest, error) {
	var interests []models.Interest
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, models.InterestPending).
		Order("id ASC").
		Find(&interests).Error
	if err != nil {
		return nil, fmt.Errorf("list pending interests: %w", err)
	}
	return interests, nil
}

// isUniqueViolation works with both PostgreSQL and SQLite error text
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

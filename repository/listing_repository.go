package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/studentbridge-api/models"
	"gorm.io/gorm"
)

// ListingRepository reads and closes listings
type ListingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a listing store over db
func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// FindByID loads a listing
func (r *ListingRepository) FindByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

// Owner returns the id of the business user who posted the listing
func (r *ListingRepository) Owner(ctx context.Context, listingID uint) (uint, error) {
	listing, err := r.FindByID(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return listing.OwnerID, nil
}

// Close marks the listing closed and rejects every pending interest on it in
// one transaction. It returns the interests that were rejected.
func (r *ListingRepository) Close(ctx context.Context, listingID uint) ([]models.Interest, error) {
	var rejected []models.Interest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Listing{}).
			Where("id = ?", listingID).
			Update("status", models.ListingClosed).Error; err != nil {
			return err
		}

		if err := tx.Where("listing_id = ? AND status = ?", listingID, models.InterestPending).
			Order("id ASC").
			Find(&rejected).Error; err != nil {
			return err
		}
		if len(rejected) == 0 {
			return nil
		}

		ids := make([]uint, len(rejected))
		for i := range rejected {
			ids[i] = rejected[i].ID
			rejected[i].Status = models.InterestRejected
		}
		return tx.Model(&models.Interest{}).
			Where("id IN ? AND status = ?", ids, models.InterestPending).
			Update("status", models.InterestRejected).Error
	})
	if err != nil {
		return nil, fmt.Errorf("close listing: %w", err)
	}
	return rejected, nil
}

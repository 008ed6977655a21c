package repository

import (
	"context"
)

// PolicyStore answers the three lookups conversation access is derived from
type PolicyStore struct {
	Listings  *ListingRepository
	Users     *UserRepository
	Interests *InterestRepository
}

// ListingOwner returns the owning business user of a listing
func (s PolicyStore) ListingOwner(ctx context.Context, listingID uint) (uint, error) {
	return s.Listings.Owner(ctx, listingID)
}

// UserRole returns a user's role
func (s PolicyStore) UserRole(ctx context.Context, userID uint) (string, error) {
	return s.Users.Role(ctx, userID)
}

// InterestStatus returns a student's interest status on a listing, "" if none
func (s PolicyStore) InterestStatus(ctx context.Context, listingID, studentID uint) (string, error) {
	return s.Interests.Status(ctx, listingID, studentID)
}

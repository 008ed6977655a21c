package services

import (
	"context"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/kendall-kelly/studentbridge-api/models"
)

// PolicyStore provides the lookups conversation access is derived from
type PolicyStore interface {
	ListingOwner(ctx context.Context, listingID uint) (uint, error)
	UserRole(ctx context.Context, userID uint) (string, error)
	// InterestStatus returns "" when the student never applied
	InterestStatus(ctx context.Context, listingID, studentID uint) (string, error)
}

// AccessPolicy decides who may message whom about a listing. Every call
// re-derives the answer from live interest state.
type AccessPolicy struct {
	store PolicyStore
	log   logger.Logger
}

// NewAccessPolicy creates the conversation access policy
func NewAccessPolicy(store PolicyStore, log logger.Logger) *AccessPolicy {
	return &AccessPolicy{
		store: store,
		log:   log.WithFields(map[string]interface{}{"component": "access_policy"}),
	}
}

// CanMessage reports whether actingUserID may exchange messages with
// otherUserID about the listing. Lookup failures deny.
func (p *AccessPolicy) CanMessage(ctx context.Context, listingID, actingUserID, otherUserID uint) bool {
	if actingUserID == 0 || otherUserID == 0 || actingUserID == otherUserID {
		return false
	}

	ownerID, err := p.store.ListingOwner(ctx, listingID)
	if err != nil {
		p.deny("listing lookup failed", err, listingID, actingUserID)
		return false
	}

	switch actingUserID {
	case ownerID:
		return p.isApprovedStudent(ctx, listingID, otherUserID)
	default:
		return otherUserID == ownerID && p.isApprovedStudent(ctx, listingID, actingUserID)
	}
}

func (p *AccessPolicy) isApprovedStudent(ctx context.Context, listingID, userID uint) bool {
	role, err := p.store.UserRole(ctx, userID)
	if err != nil {
		p.deny("user lookup failed", err, listingID, userID)
		return false
	}
	if role != models.RoleStudent {
		return false
	}

	status, err := p.store.InterestStatus(ctx, listingID, userID)
	if err != nil {
		p.deny("interest lookup failed", err, listingID, userID)
		return false
	}
	return status == models.InterestApproved
}

func (p *AccessPolicy) deny(msg string, err error, listingID, userID uint) {
	p.log.WithError(err).Warn(msg, map[string]interface{}{
		"listing_id": listingID,
		"user_id":    userID,
	})
}

// authorize runs CanMessage and converts a denial into the uniform error
func (p *AccessPolicy) authorize(ctx context.Context, operation string, listingID, actingUserID, otherUserID uint) error {
	if p.CanMessage(ctx, listingID, actingUserID, otherUserID) {
		return nil
	}
	metrics.AccessDenied.WithLabelValues(operation).Inc()
	return ErrAccessDenied()
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
)

// InterestEvents receives committed interest changes
type InterestEvents interface {
	InterestCreated(ctx context.Context, interest models.Interest, ownerID uint)
	InterestDecided(ctx context.Context, interest models.Interest)
}

// InterestStore persists applications
type InterestStore interface {
	Create(ctx context.Context, interest *models.Interest) error
	FindByID(ctx context.Context, id uint) (*models.Interest, error)
	Decide(ctx context.Context, id uint, status string) (bool, error)
	ListPending(ctx context.Context, listingID uint) ([]models.Interest, error)
}

// ListingStore reads and closes listings
type ListingStore interface {
	FindByID(ctx context.Context, id uint) (*models.Listing, error)
	Close(ctx context.Context, listingID uint) ([]models.Interest, error)
}

// InterestService is the single write path for applications. Approving an
// application is what unlocks messaging between the student and the owner.
type InterestService struct {
	interests InterestStore
	listings  ListingStore
	events    InterestEvents
	log       logger.Logger
}

// NewInterestService creates the interest service. events may be nil.
func NewInterestService(interests InterestStore, listings ListingStore, events InterestEvents, log logger.Logger) *InterestService {
	return &InterestService{
		interests: interests,
		listings:  listings,
		events:    events,
		log:       log.WithFields(map[string]interface{}{"component": "interests"}),
	}
}

func listingForbidden() *ServiceError {
	return &ServiceError{Kind: KindAuthorizationDenied, Code: "FORBIDDEN", Message: "You do not have access to this listing"}
}

// Apply records a pending application by student on an open listing
func (s *InterestService) Apply(ctx context.Context, student *models.User, listingID uint, message string) (*models.Interest, error) {
	if !student.IsStudent() {
		return nil, NewValidationError("NOT_A_STUDENT", "Only students can apply to listings")
	}

	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingOpen {
		return nil, NewValidationError("LISTING_CLOSED", "This listing is no longer accepting applications")
	}

	interest := &models.Interest{
		ListingID: listingID,
		StudentID: student.ID,
		Status:    models.InterestPending,
		Message:   strings.TrimSpace(message),
	}
	if err := s.interests.Create(ctx, interest); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewConflictError("INTEREST_EXISTS", "You have already applied to this listing")
		}
		return nil, NewStorageError("failed to save application", err)
	}

	s.log.Info("interest created", map[string]interface{}{"interest_id": interest.ID, "listing_id": listingID})
	if s.events != nil {
		s.events.InterestCreated(ctx, *interest, listing.OwnerID)
	}
	return interest, nil
}

// Decide approves or rejects a pending application on one of owner's listings
func (s *InterestService) Decide(ctx context.Context, owner *models.User, interestID uint, status string) (*models.Interest, error) {
	if status != models.InterestApproved && status != models.InterestRejected {
		return nil, NewValidationError("INVALID_STATUS", "status must be approved or rejected")
	}

	interest, err := s.interests.FindByID(ctx, interestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewNotFoundError("INTEREST_NOT_FOUND", "Application not found")
	}
	if err != nil {
		return nil, NewStorageError("failed to load application", err)
	}

	listing, err := s.findListing(ctx, interest.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != owner.ID {
		return nil, listingForbidden()
	}

	if !interest.CanTransitionTo(status) {
		return nil, NewValidationError("INVALID_STATUS_TRANSITION", "Only pending applications can be approved or rejected")
	}
	changed, err := s.interests.Decide(ctx, interest.ID, status)
	if err != nil {
		return nil, NewStorageError("failed to update application", err)
	}
	if !changed {
		return nil, NewValidationError("INVALID_STATUS_TRANSITION", "Only pending applications can be approved or rejected")
	}

	interest.Status = status
	s.log.Info("interest decided", map[string]interface{}{"interest_id": interest.ID, "status": status})
	if s.events != nil {
		s.events.InterestDecided(ctx, *interest)
	}
	return interest, nil
}

// CloseListing closes one of owner's listings. Pending applications are
// rejected, which also keeps those students from ever messaging the owner.
func (s *InterestService) CloseListing(ctx context.Context, owner *models.User, listingID uint) ([]models.Interest, error) {
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != owner.ID {
		return nil, listingForbidden()
	}

	rejected, err := s.listings.Close(ctx, listingID)
	if err != nil {
		return nil, NewStorageError("failed to close listing", err)
	}

	s.log.Info("listing closed", map[string]interface{}{"listing_id": listingID, "rejected": len(rejected)})
	if s.events != nil {
		for _, interest := range rejected {
			s.events.InterestDecided(ctx, interest)
		}
	}
	return rejected, nil
}

// Pending lists the undecided applications on one of owner's listings
func (s *InterestService) Pending(ctx context.Context, owner *models.User, listingID uint) ([]models.Interest, error) {
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != owner.ID {
		return nil, listingForbidden()
	}

	var pending []models.Interest
	err = retryRead(ctx, readRetryAttempts, readRetryDelay, func(ctx context.Context) error {
		list, err := s.interests.ListPending(ctx, listingID)
		if err != nil {
			return NewStorageError("failed to load applications", err)
		}
		pending = list
		return nil
	})
	return pending, err
}

func (s *InterestService) findListing(ctx context.Context, listingID uint) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewNotFoundError("LISTING_NOT_FOUND", "Listing not found")
	}
	if err != nil {
		return nil, NewStorageError("failed to load listing", err)
	}
	return listing, nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"github.com/kendall-kelly/studentbridge-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newPolicy(t *testing.T, db *gorm.DB) *AccessPolicy {
	store := repository.PolicyStore{
		Listings:  repository.NewListingRepository(db),
		Users:     repository.NewUserRepository(db),
		Interests: repository.NewInterestRepository(db),
	}
	return NewAccessPolicy(store, logger.NewTestLogger(t))
}

func TestCanMessageByInterestStatus(t *testing.T) {
	tests := []struct {
		status string // "" means the student never applied
		want   bool
	}{
		{models.InterestPending, false},
		{models.InterestApproved, true},
		{models.InterestRejected, false},
		{"", false},
	}

	for _, tt := range tests {
		name := tt.status
		if name == "" {
			name = "none"
		}
		t.Run(name, func(t *testing.T) {
			db := testutil.NewTestDB(t)
			business := testutil.CreateUser(t, db, "acme", models.RoleBusiness)
			student := testutil.CreateUser(t, db, "sam", models.RoleStudent)
			listing := testutil.CreateListing(t, db, business.ID, "Logo refresh")
			if tt.status != "" {
				testutil.CreateInterest(t, db, listing.ID, student.ID, tt.status)
			}
			policy := newPolicy(t, db)
			ctx := context.Background()

			assert.Equal(t, tt.want, policy.CanMessage(ctx, listing.ID, business.ID, student.ID), "owner to student")
			assert.Equal(t, tt.want, policy.CanMessage(ctx, listing.ID, student.ID, business.ID), "student to owner")
		})
	}
}

func TestCanMessageDeniesOtherCombinations(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	otherBiz := testutil.CreateUser(t, db, "globex", models.RoleBusiness)
	otherListing := testutil.CreateListing(t, db, otherBiz.ID, "Unrelated")
	policy := newPolicy(t, db)
	ctx := context.Background()

	l, b, s := market.Listing.ID, market.Business.ID, market.Student.ID

	assert.False(t, policy.CanMessage(ctx, otherListing.ID, s, otherBiz.ID), "approval does not carry over to another listing")
	assert.False(t, policy.CanMessage(ctx, otherListing.ID, b, s), "not the owner of that listing")
	assert.False(t, policy.CanMessage(ctx, l, s, market.Outsider.ID), "students cannot message each other")
	assert.False(t, policy.CanMessage(ctx, l, market.Outsider.ID, b), "outsider never applied")
	assert.False(t, policy.CanMessage(ctx, l, b, otherBiz.ID), "other party must be a student")
	assert.False(t, policy.CanMessage(ctx, l, s, otherBiz.ID), "student may only message the owner")
	assert.False(t, policy.CanMessage(ctx, l, b, b), "no self messaging")
	assert.False(t, policy.CanMessage(ctx, 9999, b, s), "unknown listing")
	assert.False(t, policy.CanMessage(ctx, l, b, 9999), "unknown user")
	assert.False(t, policy.CanMessage(ctx, l, 0, s))
}

func TestCanMessageFollowsLiveStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	business := testutil.CreateUser(t, db, "acme", models.RoleBusiness)
	student := testutil.CreateUser(t, db, "sam", models.RoleStudent)
	listing := testutil.CreateListing(t, db, business.ID, "Logo refresh")
	interest := testutil.CreateInterest(t, db, listing.ID, student.ID, models.InterestPending)
	policy := newPolicy(t, db)
	ctx := context.Background()

	assert.False(t, policy.CanMessage(ctx, listing.ID, business.ID, student.ID))

	_, err := repository.NewInterestRepository(db).Decide(ctx, interest.ID, models.InterestApproved)
	assert.NoError(t, err)

	assert.True(t, policy.CanMessage(ctx, listing.ID, business.ID, student.ID), "no stale cached answer")
}

type failingPolicyStore struct{}

func (failingPolicyStore) ListingOwner(ctx context.Context, listingID uint) (uint, error) {
	return 0, errors.New("connection refused")
}

func (failingPolicyStore) UserRole(ctx context.Context, userID uint) (string, error) {
	return "", errors.New("connection refused")
}

func (failingPolicyStore) InterestStatus(ctx context.Context, listingID, studentID uint) (string, error) {
	return "", errors.New("connection refused")
}

func TestCanMessageDeniesOnLookupFailure(t *testing.T) {
	policy := NewAccessPolicy(failingPolicyStore{}, logger.NewTestLogger(t))

	assert.False(t, policy.CanMessage(context.Background(), 1, 2, 3))

	err := policy.authorize(context.Background(), "send", 1, 2, 3)
	assert.True(t, IsKind(err, KindAuthorizationDenied))
	assert.Equal(t, "You do not have access to this conversation", err.Error())
}

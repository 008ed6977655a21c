package repository

import (
	"context"
	"testing"

	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	repo := NewInterestRepository(db)
	ctx := context.Background()

	status, err := repo.Status(ctx, market.Listing.ID, market.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestApproved, status)

	status, err = repo.Status(ctx, market.Listing.ID, market.Outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, "", status, "never applied")
}

func TestInterestCreateDuplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	repo := NewInterestRepository(db)

	err := repo.Create(context.Background(), &models.Interest{ListingID: market.Listing.ID, StudentID: market.Student.ID, Status: models.InterestPending})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestInterestDecideOnlyFromPending(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	repo := NewInterestRepository(db)
	ctx := context.Background()

	pending := testutil.CreateInterest(t, db, market.Listing.ID, market.Outsider.ID, models.InterestPending)

	ok, err := repo.Decide(ctx, pending.ID, models.InterestRejected)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Decide(ctx, pending.ID, models.InterestApproved)
	require.NoError(t, err)
	assert.False(t, ok, "decisions are final")

	reloaded, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestRejected, reloaded.Status)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingCloseRejectsPending(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	listings := NewListingRepository(db)
	interests := NewInterestRepository(db)
	ctx := context.Background()

	late := testutil.CreateUser(t, db, "lee", models.RoleStudent)
	p1 := testutil.CreateInterest(t, db, market.Listing.ID, market.Outsider.ID, models.InterestPending)
	p2 := testutil.CreateInterest(t, db, market.Listing.ID, late.ID, models.InterestPending)

	rejected, err := listings.Close(ctx, market.Listing.ID)
	require.NoError(t, err)
	require.Len(t, rejected, 2)
	assert.Equal(t, p1.ID, rejected[0].ID)
	assert.Equal(t, p2.ID, rejected[1].ID)
	assert.Equal(t, models.InterestRejected, rejected[0].Status)

	pending, err := interests.ListPending(ctx, market.Listing.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	status, err := interests.Status(ctx, market.Listing.ID, market.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestApproved, status, "approved interests survive closing")

	listing, err := listings.FindByID(ctx, market.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingClosed, listing.Status)
}

func TestPolicyStoreLookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	market := testutil.SeedMarketplace(t, db)
	store := PolicyStore{
		Listings:  NewListingRepository(db),
		Users:     NewUserRepository(db),
		Interests: NewInterestRepository(db),
	}
	ctx := context.Background()

	owner, err := store.ListingOwner(ctx, market.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, market.Business.ID, owner)

	_, err = store.ListingOwner(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	role, err := store.UserRole(ctx, market.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, role)

	_, err = store.UserRole(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := store.Users.FindByAuth0ID(ctx, market.Business.Auth0ID)
	require.NoError(t, err)
	assert.Equal(t, market.Business.ID, user.ID)
}

func TestUserRepositoryCreateAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Auth0ID: "auth0|new", Name: "New", Email: "new@example.com", Role: models.RoleStudent}
	require.NoError(t, users.Create(ctx, user))
	assert.NotZero(t, user.ID)

	dup := &models.User{Auth0ID: "auth0|new", Name: "Dup", Email: "dup@example.com", Role: models.RoleStudent}
	assert.ErrorIs(t, users.Create(ctx, dup), ErrDuplicate)

	updated, err := users.UpdateProfile(ctx, user.ID, "Renamed", "")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "new@example.com", updated.Email)

	other := &models.User{Auth0ID: "auth0|other", Name: "Other", Email: "other@example.com", Role: models.RoleBusiness}
	require.NoError(t, users.Create(ctx, other))
	_, err = users.UpdateProfile(ctx, user.ID, "", "other@example.com")
	assert.ErrorIs(t, err, ErrDuplicate)

	role, err := users.Role(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBusiness, role)
}

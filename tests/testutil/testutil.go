package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/kendall-kelly/studentbridge-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// NewTestDB opens an in-memory SQLite database with every model migrated.
// A single connection keeps the in-memory database shared by all queries.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t testing.TB, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   fmt.Sprintf("%s@example.com", name),
		Role:    role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

// CreateListing inserts an open listing owned by ownerID
func CreateListing(t testing.TB, db *gorm.DB, ownerID uint, title string) *models.Listing {
	t.Helper()

	listing := &models.Listing{OwnerID: ownerID, Title: title, Status: models.ListingOpen}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("Failed to create listing %s: %v", title, err)
	}
	return listing
}

// CreateInterest inserts an interest with the given status
func CreateInterest(t testing.TB, db *gorm.DB, listingID, studentID uint, status string) *models.Interest {
	t.Helper()

	interest := &models.Interest{ListingID: listingID, StudentID: studentID, Status: status}
	if err := db.Create(interest).Error; err != nil {
		t.Fatalf("Failed to create interest: %v", err)
	}
	return interest
}

// Marketplace is the usual fixture: a business owning one listing, one
// approved student and one outsider student
type Marketplace struct {
	Business *models.User
	Student  *models.User
	Outsider *models.User
	Listing  *models.Listing
}

// SeedMarketplace creates the usual fixture with the student approved
func SeedMarketplace(t testing.TB, db *gorm.DB) *Marketplace {
	t.Helper()

	m := &Marketplace{
		Business: CreateUser(t, db, "acme", models.RoleBusiness),
		Student:  CreateUser(t, db, "sam", models.RoleStudent),
		Outsider: CreateUser(t, db, "olive", models.RoleStudent),
	}
	m.Listing = CreateListing(t, db, m.Business.ID, "Redesign our landing page")
	CreateInterest(t, db, m.Listing.ID, m.Student.ID, models.InterestApproved)
	return m
}

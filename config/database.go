package config

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/studentbridge-api/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDatabase opens the PostgreSQL database at databaseURL and keeps it
// as the package instance
func ConnectDatabase(databaseURL string, log logger.Logger) error {
	if databaseURL == "" {
		return errors.New("database url is empty")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = db

	log.Info("Database connection established successfully", nil)
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing with SQLite)
func SetDB(db *gorm.DB) {
	DB = db
}

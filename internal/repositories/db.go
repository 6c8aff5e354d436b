package repositories

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cvforge/internal/models"
)

// Connect opens the database. The returned handle is passed to the
// repositories; no package-level connection is kept.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates/updates the users and cvs tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Cv{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

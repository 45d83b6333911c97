package db

import (
	"fmt"

	"github.com/influenta/switchboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.SocialAccount{},
		&models.Listing{},
		&models.Offer{},
		&models.Ticket{},
		&models.FAQEntry{},
		&models.KnowledgeChunk{},
	}
}

// AutoMigrate creates or updates all Switchboard tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

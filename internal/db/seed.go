package db

import (
	"fmt"

	"github.com/influenta/switchboard/internal/models"
	"github.com/influenta/switchboard/internal/store"
	"gorm.io/gorm"
)

// SeedDefaults inserts the built-in FAQ entries and knowledge base chunks
// into an empty database. Existing rows are left untouched so operators can
// curate content without re-seeding over it.
func SeedDefaults(db *gorm.DB) error {
	var faqCount int64
	if err := db.Model(&models.FAQEntry{}).Count(&faqCount).Error; err != nil {
		return fmt.Errorf("db: count faq: %w", err)
	}
	if faqCount == 0 {
		for i, item := range store.DefaultFAQ() {
			entry := models.FAQEntry{
				Question: item.Question,
				Answer:   item.Answer,
				Priority: (i + 1) * 10,
				Active:   true,
			}
			if err := db.Create(&entry).Error; err != nil {
				return fmt.Errorf("db: seed faq %q: %w", item.Question, err)
			}
		}
	}

	var kbCount int64
	if err := db.Model(&models.KnowledgeChunk{}).Count(&kbCount).Error; err != nil {
		return fmt.Errorf("db: count knowledge chunks: %w", err)
	}
	if kbCount == 0 {
		for _, sec := range store.DefaultKnowledgeChunks() {
			chunk := models.KnowledgeChunk{
				Category: sec.Category,
				Content:  sec.Content,
				Active:   true,
			}
			if err := db.Create(&chunk).Error; err != nil {
				return fmt.Errorf("db: seed knowledge chunk %q: %w", sec.Category, err)
			}
		}
	}

	return nil
}

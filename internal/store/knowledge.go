package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/influenta/switchboard/internal/models"
)

// FAQ returns active FAQ entries ordered by priority. Falls back to the
// built-in defaults when the query fails or the table is empty.
func (s *Store) FAQ(ctx context.Context) []FAQItem {
	var entries []models.FAQEntry
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("priority ASC").
		Find(&entries).Error
	if err != nil || len(entries) == 0 {
		if err != nil {
			log.Printf("store: faq query failed, using defaults: %v", err)
		}
		return DefaultFAQ()
	}

	items := make([]FAQItem, len(entries))
	for i, e := range entries {
		items[i] = FAQItem{Question: e.Question, Answer: e.Answer}
	}
	return items
}

// KnowledgeBase returns the active knowledge chunks joined into one text
// blob for the AI system prompt. Falls back to the built-in knowledge base
// when the query fails or the table is empty.
func (s *Store) KnowledgeBase(ctx context.Context) string {
	var chunks []models.KnowledgeChunk
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&chunks).Error
	if err != nil || len(chunks) == 0 {
		if err != nil {
			log.Printf("store: knowledge base query failed, using defaults: %v", err)
		}
		return defaultKnowledgeBase()
	}

	sections := make([]struct{ Category, Content string }, len(chunks))
	for i, c := range chunks {
		sections[i] = struct{ Category, Content string }{c.Category, c.Content}
	}
	return renderKnowledge(sections)
}

// renderKnowledge formats knowledge sections as "[Category] content" blocks.
func renderKnowledge(sections []struct{ Category, Content string }) string {
	parts := make([]string, len(sections))
	for i, sec := range sections {
		parts[i] = fmt.Sprintf("[%s] %s", sec.Category, sec.Content)
	}
	return strings.Join(parts, "\n\n")
}

// PlatformStats returns live platform counters. Any query failure falls
// back to the last-known-good default figures.
func (s *Store) PlatformStats(ctx context.Context) PlatformStats {
	db := s.db.WithContext(ctx)

	var bloggers, advertisers, listings int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleBlogger).Count(&bloggers).Error; err != nil {
		log.Printf("store: stats query failed, using defaults: %v", err)
		return defaultStats
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdvertiser).Count(&advertisers).Error; err != nil {
		log.Printf("store: stats query failed, using defaults: %v", err)
		return defaultStats
	}
	if err := db.Model(&models.Listing{}).Where("status = ?", "active").Count(&listings).Error; err != nil {
		log.Printf("store: stats query failed, using defaults: %v", err)
		return defaultStats
	}

	var reach int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleBlogger).
		Select("COALESCE(SUM(subscribers), 0)").Scan(&reach).Error; err != nil {
		log.Printf("store: stats query failed, using defaults: %v", err)
		return defaultStats
	}

	return PlatformStats{
		Bloggers:    int(bloggers),
		Advertisers: int(advertisers),
		Listings:    int(listings),
		Reach:       int(reach),
	}
}

// Package store is the knowledge and ticket store: FAQ entries, the
// knowledge base fed to the AI, live platform statistics, blogger search,
// per-user analytics, and ticket persistence. Reads degrade to built-in
// defaults when the database is unreachable so the bot stays usable.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrProfileNotFound is returned by UserAnalytics when the platform ID has
// no registered user.
var ErrProfileNotFound = errors.New("store: profile not found")

// FAQItem is one question/answer pair for the FAQ menu.
type FAQItem struct {
	Question string
	Answer   string
}

// PlatformStats holds the live platform counters quoted in the AI system
// prompt.
type PlatformStats struct {
	Bloggers    int
	Advertisers int
	Listings    int
	Reach       int // total blogger subscribers
}

// SearchParams filters a blogger search. Zero values mean "no constraint".
type SearchParams struct {
	Category       string `json:"category,omitempty"`
	MaxPrice       int    `json:"maxPrice,omitempty"`
	MinSubscribers int    `json:"minSubscribers,omitempty"`
}

// Blogger is one blogger search result. Link points at the blogger's
// profile inside the platform app; it is the only identifier the AI is
// allowed to cite.
type Blogger struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int    `json:"price"`
	Subscribers int    `json:"subscribers"`
	Link        string `json:"link"`
}

// Store implements the knowledge and ticket store over GORM.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

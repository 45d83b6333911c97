package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/influenta/switchboard/internal/models"
	"gorm.io/gorm"
)

// maxSearchResults caps blogger search output; the AI only ever cites a
// handful of profiles per answer.
const maxSearchResults = 5

// bloggerLinkFmt builds the in-app profile link for a blogger row ID.
const bloggerLinkFmt = "https://t.me/influenta_bot/app?startapp=blogger_%d"

// SearchBloggers returns up to 5 active bloggers matching the params,
// ordered by subscriber count descending.
func (s *Store) SearchBloggers(ctx context.Context, params SearchParams) ([]Blogger, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleBlogger, true)

	if params.Category != "" {
		q = q.Where("categories LIKE ?", "%"+strings.ToLower(params.Category)+"%")
	}
	if params.MaxPrice > 0 {
		q = q.Where("price_per_post <= ?", params.MaxPrice)
	}
	if params.MinSubscribers > 0 {
		q = q.Where("subscribers >= ?", params.MinSubscribers)
	}

	var users []models.User
	if err := q.Order("subscribers DESC").Limit(maxSearchResults).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("store: search bloggers: %w", err)
	}

	results := make([]Blogger, len(users))
	for i, u := range users {
		results[i] = Blogger{
			Name:        u.FirstName,
			Category:    u.Categories,
			Price:       u.PricePerPost,
			Subscribers: u.Subscribers,
			Link:        fmt.Sprintf(bloggerLinkFmt, u.ID),
		}
	}
	return results, nil
}

// UserAnalytics builds a formatted analytics summary for the platform user
// with the given chat-platform ID. Returns ErrProfileNotFound when the user
// is not registered.
func (s *Store) UserAnalytics(ctx context.Context, platformID int64) (string, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("platform_id = ?", platformID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: user analytics: %w", err)
	}

	var b strings.Builder
	roleLabel := "Blogger"
	if user.Role == models.RoleAdvertiser {
		roleLabel = "Advertiser"
	}
	fmt.Fprintf(&b, "👤 %s (%s)\n", user.FirstName, roleLabel)

	if user.Role == models.RoleAdvertiser {
		var listings int64
		db.Model(&models.Listing{}).
			Where("advertiser_id = ? AND status = ?", user.ID, "active").
			Count(&listings)
		fmt.Fprintf(&b, "📢 Active listings: %d\n", listings)

		var spent int64
		db.Model(&models.Offer{}).
			Where("advertiser_id = ? AND status = ?", user.ID, "accepted").
			Select("COALESCE(SUM(proposed_budget), 0)").Scan(&spent)
		fmt.Fprintf(&b, "💸 Committed spend: %d₽", spent)
		return b.String(), nil
	}

	fmt.Fprintf(&b, "📊 Subscribers (main): %d\n", user.Subscribers)
	fmt.Fprintf(&b, "💰 Price per post: %d₽\n", user.PricePerPost)

	var accounts []models.SocialAccount
	db.Where("user_id = ? AND is_active = ?", user.ID, true).Find(&accounts)
	if len(accounts) > 0 {
		b.WriteString("\n🌐 Other networks:\n")
		for _, a := range accounts {
			fmt.Fprintf(&b, "- %s: %s (%d subs)\n", a.Platform, a.Username, a.Subscribers)
		}
	}

	var income int64
	db.Model(&models.Offer{}).
		Where("blogger_id = ? AND status = ?", user.ID, "accepted").
		Select("COALESCE(SUM(proposed_budget), 0)").Scan(&income)
	fmt.Fprintf(&b, "\n💵 Earned (in progress): %d₽", income)

	return b.String(), nil
}

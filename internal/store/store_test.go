package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/influenta/switchboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.SocialAccount{}, &models.Listing{},
		&models.Offer{}, &models.Ticket{}, &models.FAQEntry{}, &models.KnowledgeChunk{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db := openStoreTestDB(t)
	s, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, db
}

func seedBlogger(t *testing.T, db *gorm.DB, platformID int64, name, categories string, price, subs int) models.User {
	t.Helper()
	u := models.User{
		PlatformID:   platformID,
		Role:         models.RoleBlogger,
		FirstName:    name,
		Categories:   categories,
		PricePerPost: price,
		Subscribers:  subs,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed blogger %s: %v", name, err)
	}
	return u
}

func TestFAQFallsBackToDefaults(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	// Empty table: defaults.
	items := s.FAQ(ctx)
	if len(items) != len(DefaultFAQ()) {
		t.Fatalf("empty table returned %d items", len(items))
	}

	// Curated rows win, ordered by priority, inactive hidden.
	rows := []models.FAQEntry{
		{Question: "B?", Answer: "b", Priority: 20, Active: true},
		{Question: "A?", Answer: "a", Priority: 10, Active: true},
		{Question: "hidden?", Answer: "x", Priority: 1, Active: false},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed faq: %v", err)
		}
	}
	items = s.FAQ(ctx)
	if len(items) != 2 || items[0].Question != "A?" {
		t.Errorf("curated FAQ = %+v", items)
	}
}

func TestKnowledgeBaseRendering(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	if kb := s.KnowledgeBase(ctx); !strings.Contains(kb, "[") {
		t.Errorf("default knowledge base looks wrong: %q", kb[:40])
	}

	chunk := models.KnowledgeChunk{Category: "Payments", Content: "Payouts run weekly.", Active: true}
	if err := db.Create(&chunk).Error; err != nil {
		t.Fatalf("seed chunk: %v", err)
	}
	kb := s.KnowledgeBase(ctx)
	if kb != "[Payments] Payouts run weekly." {
		t.Errorf("rendered knowledge base = %q", kb)
	}
}

func TestPlatformStatsCountsAndDefaults(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedBlogger(t, db, 1, "Anna", "tech", 5000, 40000)
	seedBlogger(t, db, 2, "Boris", "beauty", 3000, 10000)
	adv := models.User{PlatformID: 3, Role: models.RoleAdvertiser, FirstName: "Corp", IsActive: true}
	if err := db.Create(&adv).Error; err != nil {
		t.Fatalf("seed advertiser: %v", err)
	}

	stats := s.PlatformStats(ctx)
	if stats.Bloggers != 2 || stats.Advertisers != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Reach != 50000 {
		t.Errorf("reach = %d, want 50000", stats.Reach)
	}
}

func TestSearchBloggersFiltersAndOrder(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedBlogger(t, db, 1, "Anna", "tech,crypto", 5000, 40000)
	seedBlogger(t, db, 2, "Boris", "tech", 9000, 90000)
	seedBlogger(t, db, 3, "Vera", "beauty", 2000, 15000)
	// Inactive bloggers never surface.
	inactive := models.User{PlatformID: 4, Role: models.RoleBlogger, FirstName: "Gone", Categories: "tech", IsActive: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed inactive: %v", err)
	}

	results, err := s.SearchBloggers(ctx, SearchParams{Category: "tech"})
	if err != nil {
		t.Fatalf("SearchBloggers: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "Boris" {
		t.Errorf("results not ordered by subscribers: %+v", results)
	}
	if !strings.Contains(results[0].Link, "blogger_") {
		t.Errorf("link = %q", results[0].Link)
	}

	results, err = s.SearchBloggers(ctx, SearchParams{Category: "tech", MaxPrice: 6000})
	if err != nil {
		t.Fatalf("SearchBloggers: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Anna" {
		t.Errorf("price filter results = %+v", results)
	}

	results, err = s.SearchBloggers(ctx, SearchParams{MinSubscribers: 100000})
	if err != nil {
		t.Fatalf("SearchBloggers: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("impossible filter returned %+v", results)
	}
}

func TestSearchBloggersCapsResults(t *testing.T) {
	s, db := newTestStore(t)
	for i := 0; i < 8; i++ {
		seedBlogger(t, db, int64(100+i), "B", "tech", 1000, 1000*(i+1))
	}

	results, err := s.SearchBloggers(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("SearchBloggers: %v", err)
	}
	if len(results) != maxSearchResults {
		t.Errorf("got %d results, cap is %d", len(results), maxSearchResults)
	}
}

func TestUserAnalyticsBlogger(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	u := seedBlogger(t, db, 42, "Anna", "tech", 5000, 40000)
	acc := models.SocialAccount{UserID: u.ID, Platform: "instagram", Username: "@anna", Subscribers: 12000, IsActive: true}
	if err := db.Create(&acc).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	offers := []models.Offer{
		{AdvertiserID: 9, BloggerID: u.ID, ProposedBudget: 7000, Status: "accepted"},
		{AdvertiserID: 9, BloggerID: u.ID, ProposedBudget: 9999, Status: "pending"},
	}
	for i := range offers {
		if err := db.Create(&offers[i]).Error; err != nil {
			t.Fatalf("seed offer: %v", err)
		}
	}

	summary, err := s.UserAnalytics(ctx, 42)
	if err != nil {
		t.Fatalf("UserAnalytics: %v", err)
	}
	for _, want := range []string{"Anna", "40000", "5000", "@anna", "7000"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "9999") {
		t.Error("pending offer counted as income")
	}
}

func TestUserAnalyticsAdvertiser(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	adv := models.User{PlatformID: 77, Role: models.RoleAdvertiser, FirstName: "Corp", IsActive: true}
	if err := db.Create(&adv).Error; err != nil {
		t.Fatalf("seed advertiser: %v", err)
	}
	listing := models.Listing{AdvertiserID: adv.ID, Title: "Spring push", Budget: 100000, Status: "active"}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	summary, err := s.UserAnalytics(ctx, 77)
	if err != nil {
		t.Fatalf("UserAnalytics: %v", err)
	}
	if !strings.Contains(summary, "Advertiser") || !strings.Contains(summary, "1") {
		t.Errorf("summary = %q", summary)
	}
}

func TestUserAnalyticsNotRegistered(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.UserAnalytics(context.Background(), 424242)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestTicketLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTicket(ctx, 42, "Dana", "payout stuck")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	open, err := s.OpenTickets(ctx)
	if err != nil {
		t.Fatalf("OpenTickets: %v", err)
	}
	if len(open) != 1 || open[0].ID != id {
		t.Fatalf("open tickets = %+v", open)
	}

	if err := s.CloseTicket(ctx, id); err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}
	open, _ = s.OpenTickets(ctx)
	if len(open) != 0 {
		t.Errorf("ticket still open after close")
	}

	// Closing twice is an error.
	if err := s.CloseTicket(ctx, id); err == nil {
		t.Error("double close succeeded")
	}
}

func TestCreateTicketValidation(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTicket(ctx, 42, "Dana", ""); err == nil {
		t.Error("empty body accepted")
	}

	id, err := s.CreateTicket(ctx, 42, "", "anonymous problem")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	var ticket models.Ticket
	if err := db.First(&ticket, id).Error; err != nil {
		t.Fatalf("load ticket: %v", err)
	}
	if ticket.DisplayName != "unknown" {
		t.Errorf("display name = %q, want unknown", ticket.DisplayName)
	}
}

package dashboard

import (
	"fmt"
	"time"

	"github.com/influenta/switchboard/internal/models"
	"gorm.io/gorm"
)

// TicketRow holds ticket data for display.
type TicketRow struct {
	ID          uint       `json:"id"`
	UserID      int64      `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	AgeHours    float64    `json:"age_hours"`
}

// TicketSummary returns tickets filtered by status ("open", "closed" or
// "all"), newest first.
func TicketSummary(db *gorm.DB, status string) ([]TicketRow, error) {
	q := db.Model(&models.Ticket{}).Order("created_at DESC")
	if status != "all" {
		q = q.Where("status = ?", status)
	}

	var tickets []models.Ticket
	if err := q.Find(&tickets).Error; err != nil {
		return nil, err
	}

	rows := make([]TicketRow, len(tickets))
	for i, t := range tickets {
		rows[i] = ticketRow(t)
	}
	return rows, nil
}

// TicketDetail returns a single ticket by ID.
func TicketDetail(db *gorm.DB, id uint) (*TicketRow, error) {
	var t models.Ticket
	if err := db.First(&t, id).Error; err != nil {
		return nil, fmt.Errorf("ticket %d: %w", id, err)
	}
	row := ticketRow(t)
	return &row, nil
}

func ticketRow(t models.Ticket) TicketRow {
	return TicketRow{
		ID:          t.ID,
		UserID:      t.UserID,
		DisplayName: t.DisplayName,
		Body:        t.Body,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		ClosedAt:    t.ClosedAt,
		AgeHours:    time.Since(t.CreatedAt).Hours(),
	}
}

// Stats holds the platform counters shown on the wallboard.
type Stats struct {
	Bloggers      int64 `json:"bloggers"`
	Advertisers   int64 `json:"advertisers"`
	Listings      int64 `json:"listings"`
	OpenTickets   int64 `json:"open_tickets"`
	ClosedTickets int64 `json:"closed_tickets"`
}

// StatsSummary counts users, listings and tickets.
func StatsSummary(db *gorm.DB) (*Stats, error) {
	var s Stats
	counts := []struct {
		dst   *int64
		model interface{}
		where []interface{}
	}{
		{&s.Bloggers, &models.User{}, []interface{}{"role = ? AND is_active = ?", models.RoleBlogger, true}},
		{&s.Advertisers, &models.User{}, []interface{}{"role = ? AND is_active = ?", models.RoleAdvertiser, true}},
		{&s.Listings, &models.Listing{}, []interface{}{"status = ?", "active"}},
		{&s.OpenTickets, &models.Ticket{}, []interface{}{"status = ?", models.TicketOpen}},
		{&s.ClosedTickets, &models.Ticket{}, []interface{}{"status = ?", models.TicketClosed}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where[0], c.where[1:]...).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// FAQRow holds one curated FAQ entry.
type FAQRow struct {
	ID       uint   `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Priority int    `json:"priority"`
	Active   bool   `json:"active"`
}

// FAQSummary returns all FAQ entries in display order, inactive included
// so operators can see what's hidden.
func FAQSummary(db *gorm.DB) ([]FAQRow, error) {
	var entries []models.FAQEntry
	if err := db.Order("priority ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	rows := make([]FAQRow, len(entries))
	for i, e := range entries {
		rows[i] = FAQRow{
			ID:       e.ID,
			Question: e.Question,
			Answer:   e.Answer,
			Priority: e.Priority,
			Active:   e.Active,
		}
	}
	return rows, nil
}

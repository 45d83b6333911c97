package store

import (
	"context"
	"fmt"
	"time"

	"github.com/influenta/switchboard/internal/models"
)

// CreateTicket persists a new open support ticket and returns its ID.
func (s *Store) CreateTicket(ctx context.Context, userID int64, displayName, body string) (uint, error) {
	if body == "" {
		return 0, fmt.Errorf("store: ticket body is required")
	}
	if displayName == "" {
		displayName = "unknown"
	}

	ticket := models.Ticket{
		UserID:      userID,
		DisplayName: displayName,
		Body:        body,
		Status:      models.TicketOpen,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return 0, fmt.Errorf("store: create ticket: %w", err)
	}
	return ticket.ID, nil
}

// CloseTicket marks a ticket closed. Closing an already-closed or unknown
// ticket is an error so callers can log it.
func (s *Store) CloseTicket(ctx context.Context, id uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, models.TicketOpen).
		Updates(map[string]interface{}{"status": models.TicketClosed, "closed_at": &now})
	if result.Error != nil {
		return fmt.Errorf("store: close ticket %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: ticket not found or already closed: %d", id)
	}
	return nil
}

// OpenTickets returns all open tickets, oldest first. Used by the digest
// scheduler and operator commands.
func (s *Store) OpenTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.TicketOpen).
		Order("created_at ASC").
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("store: open tickets: %w", err)
	}
	return tickets, nil
}

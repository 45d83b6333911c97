package models

import "time"

// Ticket statuses.
const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

// Ticket is an escalated support request awaiting (or under) human handling.
// UserID is the chat-platform ID of the requester, not a User row reference;
// people may contact support before registering.
type Ticket struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"not null;index"`
	DisplayName string `gorm:"size:128"`
	Body        string `gorm:"type:text;not null"`
	Status      string `gorm:"size:16;default:open;index"`
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

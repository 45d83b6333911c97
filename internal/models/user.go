package models

import "time"

// User roles on the platform.
const (
	RoleBlogger    = "blogger"
	RoleAdvertiser = "advertiser"
)

// User is a registered platform member, either a blogger offering ad slots
// or an advertiser looking for them. PlatformID is the chat-platform user ID
// the support bot sees on inbound messages.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	PlatformID   int64  `gorm:"uniqueIndex;not null"`
	Role         string `gorm:"size:16;not null;index"` // "blogger" or "advertiser"
	FirstName    string `gorm:"size:128"`
	Categories   string `gorm:"size:256"` // comma-separated, e.g. "crypto,business"
	PricePerPost int    `gorm:"default:0"`
	Subscribers  int    `gorm:"default:0"`
	IsActive     bool   `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	SocialAccounts []SocialAccount `gorm:"foreignKey:UserID"`
}

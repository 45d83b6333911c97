package models

// SocialAccount links a blogger's profile on another network (Instagram,
// YouTube, etc.) with its own audience size.
type SocialAccount struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      uint   `gorm:"not null;index"`
	Platform    string `gorm:"size:32;not null"`
	Username    string `gorm:"size:128"`
	Subscribers int    `gorm:"default:0"`
	IsActive    bool   `gorm:"index"`
}

package models

import "time"

// Listing is an advertiser's open campaign looking for bloggers.
type Listing struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	AdvertiserID uint   `gorm:"not null;index"`
	Title        string `gorm:"size:256"`
	Budget       int    `gorm:"default:0"`
	Status       string `gorm:"size:16;default:active;index"` // active, paused, closed
	CreatedAt    time.Time

	Advertiser User `gorm:"foreignKey:AdvertiserID"`
}

// Offer is a collaboration proposal between an advertiser and a blogger.
// ProposedBudget counts toward spend/income figures once accepted.
type Offer struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	AdvertiserID   uint   `gorm:"not null;index"`
	BloggerID      uint   `gorm:"not null;index"`
	ProposedBudget int    `gorm:"default:0"`
	Status         string `gorm:"size:16;default:pending;index"` // pending, accepted, declined
	CreatedAt      time.Time
}

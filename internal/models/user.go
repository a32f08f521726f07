package models

import "time"

// User represents application user.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64"`
	Email        string `gorm:"size:128"` // transfer-received notifications go here
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

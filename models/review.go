package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"request_id" gorm:"uniqueIndex;not null"`
	ClientID   uint      `json:"client_id" gorm:"not null;index"`
	ProviderID *uint     `json:"provider_id" gorm:"index"` // claimant of the reviewed request
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

package models

import "time"

// PaymentStatus of a checkout session.
type PaymentStatus string

const (
	PaymentOpen PaymentStatus = "open"
	PaymentPaid PaymentStatus = "paid"
)

// Payment records a checkout session opened with the payment gateway for a booking.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BookingID   uint          `gorm:"index;not null" json:"booking_id"`
	SessionID   string        `gorm:"size:255;uniqueIndex;not null" json:"session_id"`
	AmountMinor int64         `gorm:"not null" json:"amount_minor"`
	Currency    string        `gorm:"size:3;not null" json:"currency"`
	Status      PaymentStatus `gorm:"size:20;not null;default:'open'" json:"status"`
}

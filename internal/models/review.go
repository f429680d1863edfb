package models

import "time"

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

// Review is a renter's comment on a finished, paid booking. One per booking.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	BookingID uint  `gorm:"uniqueIndex;not null" json:"booking_id"`
	CarID     uint  `gorm:"index;not null" json:"car_id"`
	UserID    uint  `gorm:"index;not null" json:"user_id"`
	User      *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Rating  int    `gorm:"not null;default:5" json:"rating"`
	Comment string `gorm:"type:text;not null" json:"comment"`
}

// RatingValid reports whether r is within [MinRating, MaxRating].
func RatingValid(r int) bool {
	return r >= MinRating && r <= MaxRating
}

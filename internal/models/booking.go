package models

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
	BookingPaid     BookingStatus = "paid"
)

// ActiveStatuses are the states that hold a car's dates.
var ActiveStatuses = []BookingStatus{BookingPending, BookingApproved, BookingPaid}

// ParseBookingStatus validates a status name, ignoring case.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case BookingPending, BookingApproved, BookingRejected, BookingPaid:
		return st, true
	}
	return "", false
}

// IsActive reports whether a booking in this state blocks its dates.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingApproved || s == BookingPaid
}

// IsTerminal reports whether no transition leaves this state.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingPaid || s == BookingRejected
}

// CanTransitionTo encodes the lifecycle:
//
//	pending  -> approved | rejected
//	approved -> paid
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingApproved || next == BookingRejected
	case BookingApproved:
		return next == BookingPaid
	}
	return false
}

// Booking is a rental request of a car by a user over [PickupDate, ReturnDate).
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CarID  uint  `gorm:"index:idx_booking_car_dates;not null" json:"car_id"`
	Car    *Car  `gorm:"foreignKey:CarID" json:"car,omitempty"`

	PickupLocation string `gorm:"size:200;not null" json:"pickup_location"`
	DropLocation   string `gorm:"size:200;not null" json:"drop_location"`
	PickupDate     Date   `gorm:"index:idx_booking_car_dates;not null" json:"pickup_date"`
	PickupTime     string `gorm:"size:5;not null" json:"pickup_time"`
	ReturnDate     Date   `gorm:"index:idx_booking_car_dates;not null" json:"return_date"`
	ReturnTime     string `gorm:"size:5;not null" json:"return_time"`
	SpecialRequest string `gorm:"type:text" json:"special_request,omitempty"`

	Status BookingStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`

	Review *Review `gorm:"foreignKey:BookingID" json:"review,omitempty"`
}

// GetUserID implements the Ownable interface (the renter owns the booking).
func (b *Booking) GetUserID() uint {
	return b.UserID
}

// Overlaps reports whether the booking's half-open interval intersects [start, end).
func (b *Booking) Overlaps(start, end Date) bool {
	return Overlaps(b.PickupDate, b.ReturnDate, start, end)
}

// Overlaps is the half-open interval intersection test a.start < b.end AND b.start < a.end.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

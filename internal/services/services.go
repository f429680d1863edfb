// Package services holds the marketplace use cases: the booking lifecycle,
// reviews, contracts, the catalog and accounts. Handlers stay thin and call
// into these; every error returned here is an *apperrors.Error.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
)

// Clock returns the current instant; tests pin it.
type Clock func() time.Time

// Authorizer is the subset of gate.Gate the services need.
type Authorizer interface {
	Authorize(ctx context.Context, user uint, action gate.Action, resource string, target any) error
	CanProfile(ctx context.Context, user uint, action gate.Action, resource string) bool
}

// Invalidator drops cached authorization data of users whose role or status changed.
type Invalidator interface {
	Invalidate(users ...uint)
}

// Resource names used with the gate.
const (
	ResourceCar     = "car"
	ResourceBooking = "booking"
	ResourceReview  = "review"
	ResourceUser    = "user"
)

func today(now Clock) models.Date {
	return models.DateOf(now())
}

func recipient(u *models.User) notify.Recipient {
	if u == nil {
		return notify.Recipient{}
	}
	return notify.Recipient{Name: u.DisplayName(), Email: u.Email}
}

func bookingData(b *models.Booking) notify.BookingData {
	d := notify.BookingData{
		BookingID:      b.ID,
		PickupLocation: b.PickupLocation,
		DropLocation:   b.DropLocation,
		PickupDate:     b.PickupDate.String(),
		PickupTime:     b.PickupTime,
		ReturnDate:     b.ReturnDate.String(),
		ReturnTime:     b.ReturnTime,
	}
	if b.Car != nil {
		d.CarName = b.Car.Name
	}
	return d
}

// deliver sends a best-effort notification and returns the warning to surface
// when it failed.
func deliver(ctx context.Context, n notify.Notifier, log logrus.FieldLogger, tpl notify.Template, to *models.User, data any) string {
	if n == nil || to == nil {
		return ""
	}
	if err := n.Notify(ctx, tpl, recipient(to), data); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"template": tpl,
			"user_id":  to.ID,
		}).Warn("notification not delivered")
		return notify.Warning
	}
	return ""
}

func trim(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

package services_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/internal/payment"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/testutil"
)

// May 1st 2024, before every booking of the fixtures.
func pinnedNow() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

type fixture struct {
	db       *gorm.DB
	notes    *notify.Recorder
	gateway  *payment.LocalGateway
	bookings *services.BookingService

	renter *models.User
	other  *models.User
	owner  *models.User
	rival  *models.User
	car    *models.Car
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewDB(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		db:      db,
		notes:   &notify.Recorder{},
		gateway: payment.NewLocalGateway(),
		renter:  testutil.CreateUser(t, db, "renter", models.RoleUser),
		other:   testutil.CreateUser(t, db, "other", models.RoleUser),
		owner:   testutil.CreateUser(t, db, "owner", models.RoleOwner),
		rival:   testutil.CreateUser(t, db, "rival", models.RoleOwner),
	}
	f.car = testutil.CreateCar(t, db, f.owner, "Civic", 2022, 45)
	f.bookings = services.NewBookingService(db, f.notes, f.gateway,
		payment.NewTokenCodec("test-secret"), nullLogger(),
		services.BookingConfig{BaseURL: "http://rentals.test", Currency: "usd"},
	).WithClock(pinnedNow)
	return f
}

func (f *fixture) request(pickup, ret string) services.CreateBookingRequest {
	return services.CreateBookingRequest{
		CarID:          f.car.ID,
		PickupLocation: "Airport",
		DropLocation:   "Downtown",
		PickupDate:     pickup,
		PickupTime:     "10:00",
		ReturnDate:     ret,
		ReturnTime:     "18:00",
	}
}

func (f *fixture) book(t *testing.T, actor *models.User, pickup, ret string) *models.Booking {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), actor, f.request(pickup, ret))
	require.NoError(t, err)
	return b
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}

// callback extracts the redirect parameters from a checkout URL.
func callback(t *testing.T, checkoutURL string) services.PaymentCallback {
	t.Helper()
	u, err := url.Parse(checkoutURL)
	require.NoError(t, err)
	q := u.Query()
	return services.PaymentCallback{SessionID: q.Get("session_id"), Token: q.Get("booking")}
}

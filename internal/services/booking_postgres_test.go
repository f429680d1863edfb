//go:build postgres

package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/testutil"
)

// Run with: TEST_POSTGRES_DSN=postgres://... go test -tags postgres ./internal/services/
func TestCreateBooking_ConcurrentOverlapPostgres(t *testing.T) {
	f := newFixtureOn(t, testutil.NewPostgresDB(t))
	ctx := context.Background()

	const n = 8
	renters := make([]*models.User, n)
	for i := range renters {
		renters[i] = testutil.CreateUser(t, f.db, fmt.Sprintf("renter%d", i), models.RoleUser)
	}

	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, u := range renters {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			<-start
			_, errs[i] = f.bookings.Create(ctx, u, f.request("2024-07-01", "2024-07-05"))
		}(i, u)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, apperrors.KindConflict)
	}
	require.Equal(t, 1, ok)

	var count int64
	require.NoError(t, f.db.Model(&models.Booking{}).Where("car_id = ?", f.car.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

package services_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/storage"
	"github.com/diewo77/go-rentals/internal/testutil"
)

func newCatalog(t *testing.T) (*fixture, *services.CatalogService, string) {
	f := newFixture(t)
	root := t.TempDir()
	cat := services.NewCatalogService(f.db, policy.NewAuthGate(f.db, time.Minute),
		storage.NewImageStore(root, "/media"), nullLogger())
	return f, cat, root
}

func carInput() services.CarInput {
	return services.CarInput{
		Name:         "Corolla",
		Year:         2021,
		Transmission: "manual",
		Mileage:      "12K",
		Price:        39.5,
		Description:  "Compact and thrifty",
	}
}

func names(results []services.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Name)
	}
	return out
}

func TestSearch(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()
	testutil.CreateCar(t, f.db, f.rival, "Golf", 2019, 30)
	manual := testutil.CreateCar(t, f.db, f.rival, "Model 3", 2023, 99)
	f.db.Model(manual).Update("transmission", models.TransmissionManual)

	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"Model 3", "Civic", "Golf"}},
		{"CIV", []string{"Civic"}},
		{"2019", []string{"Golf"}},
		{"manual", []string{"Model 3"}},
		{"auto", []string{"Civic", "Golf"}},
		{"%", []string{}},
		{"_", []string{}},
		{"tesla", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			res, err := cat.Search(ctx, tt.q)
			require.NoError(t, err)
			require.Equal(t, tt.want, names(res))
		})
	}

	res, err := cat.Search(ctx, "civic")
	require.NoError(t, err)
	require.Equal(t, "45.00", res[0].Price)
	require.Equal(t, "AUTO", res[0].Transmission)
	require.Equal(t, "", res[0].Image)
}

func TestListByOwner(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()

	got, err := cat.ListByOwner(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Equal(t, f.owner.ID, got.Owner.ID)
	require.Len(t, got.Cars, 1)

	_, err = cat.ListByOwner(ctx, f.renter.ID)
	requireKind(t, err, apperrors.KindNotFound)
	_, err = cat.ListByOwner(ctx, 9999)
	requireKind(t, err, apperrors.KindNotFound)

	companies, err := cat.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
}

func TestGetCar(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()
	b := testutil.CreateBooking(t, f.db, f.renter, f.car, "2024-04-01", "2024-04-03", models.BookingPaid)
	require.NoError(t, f.db.Create(&models.Review{BookingID: b.ID, CarID: f.car.ID, UserID: f.renter.ID, Rating: 5, Comment: "Great"}).Error)

	d, err := cat.GetCar(ctx, f.car.ID)
	require.NoError(t, err)
	require.Equal(t, "Civic", d.Car.Name)
	require.Equal(t, f.owner.ID, d.Car.Owner.ID)
	require.Len(t, d.Reviews, 1)

	_, err = cat.GetCar(ctx, 9999)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestAddCar(t *testing.T) {
	f, cat, root := newCatalog(t)
	ctx := context.Background()

	_, err := cat.AddCar(ctx, f.renter, carInput(), nil)
	requireKind(t, err, apperrors.KindForbidden)

	car, err := cat.AddCar(ctx, f.owner, carInput(), &services.Upload{Filename: "front.JPG", Body: strings.NewReader("jpeg")})
	require.NoError(t, err)
	require.Equal(t, models.TransmissionManual, car.Transmission)
	require.Equal(t, f.owner.ID, car.OwnerID)
	require.NotEmpty(t, car.ImagePath)
	require.True(t, strings.HasPrefix(cat.ImageURL(car), "/media/cars/"))

	body, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(car.ImagePath)))
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(body))
}

func TestAddCar_OnlyApprovedOwners(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, f.db, "admin", models.RoleAdmin)
	pending := testutil.CreateUser(t, f.db, "pending", models.RoleOwner)
	require.NoError(t, f.db.Model(pending).Update("is_approved", false).Error)

	tests := []struct {
		name  string
		actor *models.User
	}{
		{"admin", admin},
		{"unapproved owner", pending},
		{"renter", f.renter},
		{"anonymous", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cat.AddCar(ctx, tt.actor, carInput(), nil)
			requireKind(t, err, apperrors.KindForbidden)
		})
	}

	var n int64
	f.db.Model(&models.Car{}).Where("owner_id <> ?", f.owner.ID).Count(&n)
	require.Zero(t, n)
}

func TestAddCar_Validation(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*services.CarInput)
		field  string
	}{
		{"name", func(in *services.CarInput) { in.Name = "" }, "name"},
		{"transmission", func(in *services.CarInput) { in.Transmission = "cvt" }, "transmission"},
		{"negative price", func(in *services.CarInput) { in.Price = -1 }, "price"},
		{"year", func(in *services.CarInput) { in.Year = 1850 }, "year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := carInput()
			tt.mutate(&in)
			_, err := cat.AddCar(ctx, f.owner, in, nil)
			requireKind(t, err, apperrors.KindValidation)
			require.Contains(t, apperrors.FieldsOf(err), tt.field)
		})
	}

	_, err := cat.AddCar(ctx, f.owner, carInput(), &services.Upload{Filename: "virus.exe", Body: strings.NewReader("x")})
	requireKind(t, err, apperrors.KindValidation)
	var n int64
	f.db.Model(&models.Car{}).Count(&n)
	require.EqualValues(t, 1, n)
}

func TestUpdateCar(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()

	_, err := cat.UpdateCar(ctx, f.rival, f.car.ID, carInput(), nil)
	requireKind(t, err, apperrors.KindNotFound)

	in := carInput()
	in.Name = "Civic Type R"
	car, err := cat.UpdateCar(ctx, f.owner, f.car.ID, in, nil)
	require.NoError(t, err)
	require.Equal(t, "Civic Type R", car.Name)
	require.Equal(t, 39.5, car.Price)
}

func TestDeleteCar(t *testing.T) {
	f, cat, _ := newCatalog(t)
	ctx := context.Background()
	b := testutil.CreateBooking(t, f.db, f.renter, f.car, "2024-06-01", "2024-06-05", models.BookingPending)

	err := cat.DeleteCar(ctx, f.rival, f.car.ID)
	requireKind(t, err, apperrors.KindNotFound)

	err = cat.DeleteCar(ctx, f.owner, f.car.ID)
	requireKind(t, err, apperrors.KindInvalidState)

	_, err = f.bookings.Reject(ctx, b.ID, f.owner)
	require.NoError(t, err)
	require.NoError(t, cat.DeleteCar(ctx, f.owner, f.car.ID))

	_, err = cat.GetCar(ctx, f.car.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

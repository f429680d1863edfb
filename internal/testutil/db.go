// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// A single connection keeps writes serialized the way SQLite expects.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	dialector, err := appdb.Dialector("sqlite", dsn)
	if err != nil {
		t.Fatalf("dialector: %v", err)
	}
	conn, err := gorm.Open(dialector, appdb.GormConfig(false))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := appdb.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// PostgresDSNEnv names the variable holding the DSN of a disposable Postgres
// database for tests that need real row locks.
const PostgresDSNEnv = "TEST_POSTGRES_DSN"

// NewPostgresDB migrates and empties the database named by TEST_POSTGRES_DSN.
// The test is skipped when the variable is unset.
func NewPostgresDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	dialector, err := appdb.Dialector("postgres", dsn)
	if err != nil {
		t.Fatalf("dialector: %v", err)
	}
	conn, err := gorm.Open(dialector, appdb.GormConfig(false))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := appdb.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Exec("TRUNCATE reviews, payments, bookings, cars, users RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn
}

// CreateUser inserts an active account with the given role; owners are approved.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    hash,
		Role:        role,
		IsActive:    true,
		IsApproved:  role != models.RoleUser,
		CompanyName: companyName(username, role),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func companyName(username string, role models.Role) string {
	if role != models.RoleOwner {
		return ""
	}
	return strings.ToUpper(username[:1]) + username[1:] + " Rentals"
}

// CreateCar inserts a car owned by owner.
func CreateCar(t testing.TB, db *gorm.DB, owner *models.User, name string, year int, price float64) *models.Car {
	t.Helper()
	c := &models.Car{
		OwnerID:      owner.ID,
		Name:         name,
		Year:         year,
		Transmission: models.TransmissionAuto,
		Mileage:      "25K",
		Price:        price,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create car %s: %v", name, err)
	}
	return c
}

// CreateBooking inserts a booking in the given status, bypassing the lifecycle checks.
func CreateBooking(t testing.TB, db *gorm.DB, user *models.User, car *models.Car, pickup, ret string, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		UserID:         user.ID,
		CarID:          car.ID,
		PickupLocation: "Airport",
		DropLocation:   "Downtown",
		PickupDate:     models.MustDate(pickup),
		PickupTime:     "10:00",
		ReturnDate:     models.MustDate(ret),
		ReturnTime:     "10:00",
		Status:         status,
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

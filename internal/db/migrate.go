package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/internal/config"
	"github.com/diewo77/go-rentals/internal/models"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.Booking{},
		&models.Review{},
		&models.Payment{},
	)
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB, admin config.AdminConfig) error {
	_, err := SeedAdmin(db, admin)
	return err
}

// SeedAdmin creates the default administrator when no account uses its username.
// It reports whether a user was created. Existing accounts are left untouched.
func SeedAdmin(db *gorm.DB, admin config.AdminConfig) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		return false, errors.New("admin seed requires a username and a password")
	}
	var existing models.User
	err := db.Where("username = ?", admin.Username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{
		Username:   admin.Username,
		Email:      admin.Email,
		Password:   hash,
		Role:       models.RoleAdmin,
		IsActive:   true,
		IsApproved: true,
	}
	if err := db.Create(&user).Error; err != nil {
		if IsUniqueViolation(err) {
			// created concurrently by another instance
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

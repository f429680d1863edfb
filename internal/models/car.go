package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Transmission of a car.
type Transmission string

const (
	TransmissionAuto   Transmission = "AUTO"
	TransmissionManual Transmission = "MANUAL"
)

// ParseTransmission accepts "auto"/"manual" in any case (and the long forms).
func ParseTransmission(s string) (Transmission, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTO", "AUTOMATIC":
		return TransmissionAuto, true
	case "MANUAL":
		return TransmissionManual, true
	}
	return "", false
}

// Label returns the human readable transmission name.
func (t Transmission) Label() string {
	switch t {
	case TransmissionAuto:
		return "Automatic"
	case TransmissionManual:
		return "Manual"
	}
	return string(t)
}

// Car is a vehicle offered for rent by an owner.
// Implements the Ownable interface for ownership-based authorization.
type Car struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OwnerID uint  `gorm:"index;not null" json:"owner_id"`
	Owner   *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Name         string       `gorm:"size:100;not null" json:"name"`
	Year         int          `gorm:"not null;index" json:"year"`
	Transmission Transmission `gorm:"size:20;not null" json:"transmission"`
	Mileage      string       `gorm:"size:50" json:"mileage"`
	Price        float64      `gorm:"type:decimal(10,2);not null" json:"price"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`

	// ImagePath is relative to the media root; see storage.ImageStore.
	ImagePath string `gorm:"size:255" json:"-"`
}

// GetUserID implements the Ownable interface.
func (c *Car) GetUserID() uint {
	return c.OwnerID
}

// PriceMinorUnits converts the per-unit price to integer minor currency units.
func (c *Car) PriceMinorUnits() int64 {
	return int64(math.Round(c.Price * 100))
}

// PriceString formats the price with two decimals, as stored.
func (c *Car) PriceString() string {
	return strconv.FormatFloat(c.Price, 'f', 2, 64)
}

// Title is "Name (Year)".
func (c *Car) Title() string {
	return c.Name + " (" + strconv.Itoa(c.Year) + ")"
}

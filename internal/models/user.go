package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the marketplace role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// User is an account of the marketplace: a renter, a rental company (owner) or an admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email    string `gorm:"size:255" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Phone    string `gorm:"size:32" json:"phone,omitempty"`

	// CompanyName is the public name of a rental company (owners only).
	CompanyName string `gorm:"size:160" json:"company_name,omitempty"`

	Role       Role `gorm:"size:20;not null;default:'user';index" json:"role"`
	IsActive   bool `gorm:"not null" json:"is_active"`
	IsApproved bool `gorm:"not null;default:false" json:"is_approved"`

	Cars []Car `gorm:"foreignKey:OwnerID" json:"cars,omitempty"`
}

func (u *User) IsOwner() bool { return u.Role == RoleOwner }
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// DisplayName is the name shown to other parties (contracts, emails).
func (u *User) DisplayName() string {
	return u.Username
}

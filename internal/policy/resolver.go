package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/models"
)

// RoleResolver maps a user id to the profile of the user's role.
type RoleResolver struct {
	DB *gorm.DB
}

func NewRoleResolver(db *gorm.DB) *RoleResolver {
	return &RoleResolver{DB: db}
}

// Resolve returns nil for unknown or inactive users and for owners still
// awaiting approval.
func (r *RoleResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "is_active", "is_approved").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || (u.IsOwner() && !u.IsApproved) {
		return nil, nil
	}
	return ProfileFor(u.Role), nil
}

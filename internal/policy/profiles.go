package policy

import (
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

func perm(resource string, action gate.Action) gate.Permission {
	return gate.NewPermission(resource, action)
}

// Role profiles. Ownership of a concrete car or booking is checked by the
// policies on top of these.
var (
	RenterProfile = gate.NewStaticProfile(string(models.RoleUser),
		perm(services.ResourceCar, gate.ActionView),
		perm(services.ResourceCar, gate.ActionList),
		perm(services.ResourceBooking, gate.ActionCreate),
		perm(services.ResourceBooking, gate.ActionView),
		perm(services.ResourceBooking, gate.ActionList),
		perm(services.ResourceBooking, gate.ActionPay),
		perm(services.ResourceReview, gate.ActionCreate),
	)

	OwnerProfile = gate.NewStaticProfile(string(models.RoleOwner),
		perm(services.ResourceCar, gate.Wildcard),
		perm(services.ResourceBooking, gate.ActionView),
		perm(services.ResourceBooking, gate.ActionList),
		perm(services.ResourceBooking, gate.ActionApprove),
		perm(services.ResourceBooking, gate.ActionReject),
	)

	AdminProfile = gate.NewStaticProfile(string(models.RoleAdmin), gate.PermissionSuperAdmin)
)

// ProfileFor returns the profile of a role, or nil for an unknown role.
func ProfileFor(role models.Role) gate.Profile {
	switch role {
	case models.RoleUser:
		return RenterProfile
	case models.RoleOwner:
		return OwnerProfile
	case models.RoleAdmin:
		return AdminProfile
	}
	return nil
}

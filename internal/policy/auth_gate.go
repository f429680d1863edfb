// Package policy binds the gate kit to the marketplace: role profiles, the
// database-backed resolver, ownership policies and HTTP guards.
package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/services"
)

// AuthGate is the application's authorization point.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate builds the gate over the role resolver, cached for cacheTTL,
// with ownership policies on cars and bookings.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewRoleResolver(db), cacheTTL)
	ag := &AuthGate{Gate: gate.New[uint](cached), CacheResolver: cached}

	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdmin)
	ag.Gate.Register(services.ResourceCar, owned)
	ag.Gate.Register(services.ResourceBooking, owned)
	ag.Gate.Register(services.ResourceReview, owned)
	return ag
}

// IsAdmin reports whether the user's profile grants everything.
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uint) bool {
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(gate.PermissionSuperAdmin)
}

func (ag *AuthGate) Authorize(ctx context.Context, user uint, action gate.Action, resource string, target any) error {
	return ag.Gate.Authorize(ctx, user, action, resource, target)
}

func (ag *AuthGate) CanProfile(ctx context.Context, user uint, action gate.Action, resource string) bool {
	return ag.Gate.CanProfile(ctx, user, action, resource)
}

// Invalidate drops cached profiles after a role or approval change.
func (ag *AuthGate) Invalidate(users ...uint) {
	ag.CacheResolver.Invalidate(users...)
}

func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission guards a route with a profile permission. It expects
// auth.RequireAuth to run first.
func (ag *AuthGate) RequirePermission(resource string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.Error(w, apperrors.New(apperrors.KindUnauthenticated, "Authentication required"))
				return
			}
			if !ag.CanProfile(r.Context(), uid, action, resource) {
				httpx.Error(w, apperrors.Forbidden("You are not allowed to do this"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards administrator routes.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.Error(w, apperrors.New(apperrors.KindUnauthenticated, "Authentication required"))
				return
			}
			if !ag.IsAdmin(r.Context(), uid) {
				httpx.Error(w, apperrors.Forbidden("Administrator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package gate is a small authorization kit: profiles grant "resource:action"
// permissions, and per-resource policies refine the decision on a concrete
// resource (ownership checks). It knows nothing about the domain models.
package gate

import "context"

// Gate authorizes a subject of type U.
// Authorization flow:
//  1. the subject must be non-zero
//  2. its profile must grant resource:action
//  3. when a resource is given and a policy is registered for its type, the policy must agree
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the policy of a resource type. Not safe for use once the gate serves requests.
func (g *Gate[U]) Register(resource string, p Policy[U]) {
	g.policies[resource] = p
}

func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resource string, target any) error {
	if !g.CanProfile(ctx, user, action, resource) {
		var zero U
		if user == zero {
			return ErrUnauthenticated
		}
		return ErrForbidden
	}
	if target == nil {
		return nil
	}
	if p, ok := g.policies[resource]; ok && !p.Can(ctx, user, action, target) {
		return ErrForbidden
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resource string, target any) bool {
	return g.Authorize(ctx, user, action, resource, target) == nil
}

// CanProfile checks only the profile permission, before any resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resource string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resource, action))
}

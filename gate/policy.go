package gate

import "context"

// Policy decides on a concrete resource after the profile check passed.
// For list/create checks the resource is nil and policies are skipped.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// AnyOf grants when at least one policy grants.
func AnyOf[U any](policies ...Policy[U]) Policy[U] {
	return PolicyFunc[U](func(ctx context.Context, user U, action Action, resource any) bool {
		for _, p := range policies {
			if p.Can(ctx, user, action, resource) {
				return true
			}
		}
		return false
	})
}

package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	// ErrUnauthenticated means no subject was supplied.
	ErrUnauthenticated = errors.New("gate: unauthenticated")
	// ErrForbidden means the subject's profile or a resource policy denied the action.
	ErrForbidden = errors.New("gate: forbidden")
)

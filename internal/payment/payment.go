// Package payment is the port to the hosted checkout provider.
package payment

import (
	"context"
	"errors"
)

// SessionIDPlaceholder is substituted by the gateway with the created session id
// when it redirects the payer to the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// Metadata keys carried on a checkout session.
const (
	MetaBookingID = "booking_id"
	MetaUserID    = "user_id"
)

var (
	// ErrSessionNotFound is returned by LookupSession for unknown ids.
	ErrSessionNotFound = errors.New("payment: checkout session not found")
)

// CheckoutRequest describes a one-item hosted checkout.
type CheckoutRequest struct {
	AmountMinor   int64
	Currency      string
	ProductName   string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// Session is a checkout session as seen by the gateway.
type Session struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}

// Gateway creates and inspects hosted checkout sessions.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Session, error)
	LookupSession(ctx context.Context, id string) (*Session, error)
}

package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalGateway is an in-process gateway for development and tests. Its
// checkout URL is the success URL itself, so following the redirect completes
// the payment immediately.
type LocalGateway struct {
	mu       sync.Mutex
	sessions map[string]*Session

	// Err, when set, makes CreateCheckout fail.
	Err error
	// Unpaid leaves new sessions unpaid until MarkPaid is called.
	Unpaid bool
}

func NewLocalGateway() *LocalGateway {
	return &LocalGateway{sessions: make(map[string]*Session)}
}

func (g *LocalGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	id := "cs_local_" + uuid.NewString()
	meta := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}
	s := &Session{
		ID:       id,
		URL:      strings.ReplaceAll(req.SuccessURL, SessionIDPlaceholder, id),
		Paid:     !g.Unpaid,
		Metadata: meta,
	}
	g.sessions[id] = s
	cp := *s
	return &cp, nil
}

func (g *LocalGateway) LookupSession(_ context.Context, id string) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// MarkPaid flags a session as paid. It reports false for unknown ids.
func (g *LocalGateway) MarkPaid(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if ok {
		s.Paid = true
	}
	return ok
}

// Sessions returns the ids of all created sessions.
func (g *LocalGateway) Sessions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	return ids
}

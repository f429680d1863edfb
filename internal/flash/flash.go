// Package flash stores one-shot user messages in a signed cookie session.
package flash

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// Level of a flash message.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

var levels = []Level{Success, Info, Warning, Error}

const sessionName = "flash"

// Message is a flash message read back from the session.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Store wraps a gorilla cookie store.
type Store struct {
	store sessions.Store
}

func NewStore(secret []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{store: cs}
}

// Add queues a message for the next request. Failures to persist the cookie are returned.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, level Level, text string) error {
	sess, err := s.store.Get(r, sessionName)
	if err != nil && sess == nil {
		return err
	}
	sess.AddFlash(text, string(level))
	return sess.Save(r, w)
}

// Pop returns and clears all queued messages.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) ([]Message, error) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil && sess == nil {
		return nil, err
	}
	var out []Message
	for _, lvl := range levels {
		for _, f := range sess.Flashes(string(lvl)) {
			if text, ok := f.(string); ok {
				out = append(out, Message{Level: lvl, Text: text})
			}
		}
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, sess.Save(r, w)
}

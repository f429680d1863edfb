package notify

import (
	"context"
	"sync"
)

// Sent is one notification captured by a Recorder.
type Sent struct {
	Template Template
	To       Recipient
	Data     any
}

// Recorder is an in-memory Notifier. Err, when set, fails every call after recording it.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) Notify(_ context.Context, tpl Template, to Recipient, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Template: tpl, To: to, Data: data})
	return r.Err
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Count returns how many notifications used tpl.
func (r *Recorder) Count(tpl Template) int {
	n := 0
	for _, s := range r.Sent() {
		if s.Template == tpl {
			n++
		}
	}
	return n
}

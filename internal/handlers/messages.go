package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/flash"
)

// Messages pops the pending flash messages so a client can display them.
func (b *Base) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := b.Flash.Pop(w, r)
	if err != nil {
		b.Log.WithError(err).Warn("flash messages unreadable")
	}
	if msgs == nil {
		msgs = []flash.Message{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

type ContactHandler struct {
	*Base
	Contact *services.ContactService
}

func NewContactHandler(base *Base, contact *services.ContactService) *ContactHandler {
	return &ContactHandler{Base: base, Contact: contact}
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in services.ContactInput
	err := httpx.Decode(w, r, &in, func(get func(string) string) {
		in.Name, in.Email = get("name"), get("email")
		in.Subject, in.Message = get("subject"), get("message")
	})
	if err != nil {
		h.fail(w, r, PathContact, err)
		return
	}
	if err := h.Contact.Send(r.Context(), in); err != nil {
		h.fail(w, r, PathContact, err)
		return
	}
	h.done(w, r, PathContact, "Your message has been sent successfully.", "")
}

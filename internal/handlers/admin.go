package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// AdminHandler serves the administrator actions. Routes are guarded by
// AuthGate.RequireAdmin; the services check the role again.
type AdminHandler struct {
	*Base
	Bookings *services.BookingService
}

func NewAdminHandler(base *Base, bookings *services.BookingService) *AdminHandler {
	return &AdminHandler{Base: base, Bookings: bookings}
}

// Users lists accounts, filtered by ?role= and ?approved=.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	q := r.URL.Query()
	f := services.UserFilter{Role: models.Role(q.Get("role"))}
	if f.Role != "" && !f.Role.Valid() {
		h.failJSON(w, r, apperrors.Validation("Unknown role", map[string]string{"role": "invalid_choice"}))
		return
	}
	if s := q.Get("approved"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			h.failJSON(w, r, apperrors.Validation("approved must be a boolean", map[string]string{"approved": "invalid_choice"}))
			return
		}
		f.Approved = &b
	}
	users, err := h.Accounts.ListUsers(r.Context(), u, f)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type approveOwnersRequest struct {
	IDs []flexID `json:"ids"`
}

// ApproveOwners is the bulk "approve selected owners" action.
func (h *AdminHandler) ApproveOwners(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	var req approveOwnersRequest
	err = httpx.Decode(w, r, &req, func(func(string) string) {
		for _, s := range r.PostForm["ids"] {
			for _, part := range strings.Split(s, ",") {
				if id := parseID(part); id != 0 {
					req.IDs = append(req.IDs, flexID(id))
				}
			}
		}
	})
	if err != nil {
		h.fail(w, r, PathAdmin, err)
		return
	}
	ids := make([]uint, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, uint(id))
	}

	res, err := h.Accounts.ApproveOwners(r.Context(), u, ids)
	if err != nil {
		h.fail(w, r, PathAdmin, err)
		return
	}
	msg := strconv.Itoa(len(res.Approved)) + " owner(s) approved."
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":   httpx.StatusSuccess,
			"message":  msg,
			"approved": res.Approved,
			"warnings": res.Warnings,
		})
		return
	}
	if len(res.Approved) > 0 {
		h.flash(w, r, flash.Success, msg)
	}
	for _, warn := range res.Warnings {
		h.flash(w, r, flash.Warning, warn)
	}
	http.Redirect(w, r, PathAdmin, http.StatusSeeOther)
}

type bookingStatusRequest struct {
	Status string `json:"status"`
}

// SetBookingStatus changes a booking's status through the lifecycle rules.
func (h *AdminHandler) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, PathAdmin, err)
		return
	}
	var req bookingStatusRequest
	err = httpx.Decode(w, r, &req, func(get func(string) string) { req.Status = get("status") })
	if err != nil {
		h.fail(w, r, PathAdmin, err)
		return
	}
	res, err := h.Bookings.AdminSetStatus(r.Context(), id, req.Status, u)
	if err != nil {
		h.fail(w, r, PathAdmin, err)
		return
	}
	h.done(w, r, PathAdmin, "Booking is now "+string(res.Booking.Status)+".", res.Warning)
}

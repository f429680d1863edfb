package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// BookingHandler serves the booking lifecycle and the payment round trip.
type BookingHandler struct {
	*Base
	Bookings *services.BookingService
}

func NewBookingHandler(base *Base, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{Base: base, Bookings: bookings}
}

// bookingRequest mirrors services.CreateBookingRequest with a lenient car id.
type bookingRequest struct {
	Car            flexID `json:"car"`
	PickupLocation string `json:"pickup_location"`
	DropLocation   string `json:"drop_location"`
	PickupDate     string `json:"pickup_date"`
	PickupTime     string `json:"pickup_time"`
	ReturnDate     string `json:"return_date"`
	ReturnTime     string `json:"return_time"`
	SpecialRequest string `json:"special_request"`
}

// Create always answers with the JSON envelope.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	var req bookingRequest
	err = httpx.Decode(w, r, &req, func(get func(string) string) {
		req.Car = flexID(parseID(get("car")))
		req.PickupLocation = get("pickup_location")
		req.DropLocation = get("drop_location")
		req.PickupDate = get("pickup_date")
		req.PickupTime = get("pickup_time")
		req.ReturnDate = get("return_date")
		req.ReturnTime = get("return_time")
		req.SpecialRequest = get("special_request")
	})
	if err != nil {
		h.failJSON(w, r, err)
		return
	}

	_, err = h.Bookings.Create(r.Context(), u, services.CreateBookingRequest{
		CarID:          uint(req.Car),
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		PickupDate:     req.PickupDate,
		PickupTime:     req.PickupTime,
		ReturnDate:     req.ReturnDate,
		ReturnTime:     req.ReturnTime,
		SpecialRequest: req.SpecialRequest,
	})
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	h.flash(w, r, flash.Success, "Booking created successfully.")
	httpx.Success(w, "Booking successful! Please wait for confirmation.")
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Bookings.Approve, "Booking approved and email sent.", "Booking already approved.")
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Bookings.Reject, "Booking rejected.", "Booking already rejected.")
}

type decision func(ctx context.Context, id uint, actor *models.User) (*services.Result, error)

func (h *BookingHandler) decide(w http.ResponseWriter, r *http.Request, fn decision, changed, unchanged string) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	res, err := fn(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	msg := changed
	if !res.Changed {
		msg = unchanged
	}
	h.done(w, r, PathDashboard, msg, res.Warning)
}

// Pay redirects the renter to the gateway's checkout page.
func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	checkout, err := h.Bookings.Pay(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":       httpx.StatusSuccess,
			"message":      "Redirecting to payment",
			"checkout_url": checkout,
		})
		return
	}
	http.Redirect(w, r, checkout, http.StatusSeeOther)
}

// PaymentSuccess is the gateway's return URL.
func (h *BookingHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	q := r.URL.Query()
	res, err := h.Bookings.ConfirmPayment(r.Context(), services.PaymentCallback{
		SessionID: q.Get("session_id"),
		Token:     q.Get("booking"),
	}, u)
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	msg := "Payment successful. Your booking is confirmed."
	if !res.Changed {
		msg = "This booking is already paid."
	}
	h.done(w, r, PathProfile, msg, res.Warning)
}

func (h *BookingHandler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		httpx.Success(w, "Payment cancelled.")
		return
	}
	h.flash(w, r, flash.Info, "Payment cancelled.")
	http.Redirect(w, r, PathProfile, http.StatusSeeOther)
}

// Mine lists the renter's bookings.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListForUser(r.Context(), u.ID)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

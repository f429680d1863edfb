package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

type ReviewHandler struct {
	*Base
	Reviews *services.ReviewService
}

func NewReviewHandler(base *Base, reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{Base: base, Reviews: reviews}
}

type commentRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Comment adds the renter's review of a finished booking.
func (h *ReviewHandler) Comment(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	id, err := pathID(r, "booking_id")
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	var req commentRequest
	err = httpx.Decode(w, r, &req, func(get func(string) string) {
		req.Comment = get("comment")
		// an unparsable rating counts as "not given"
		req.Rating, _ = strconv.Atoi(strings.TrimSpace(get("rating")))
	})
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	if _, err := h.Reviews.AddComment(r.Context(), id, u, req.Rating, req.Comment); err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	h.done(w, r, PathProfile, "Thank you for your review.", "")
}

// CarReviews lists the reviews of a car.
func (h *ReviewHandler) CarReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	reviews, err := h.Reviews.ListForCar(r.Context(), id)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

type ContractHandler struct {
	*Base
	Contracts *services.ContractService
}

func NewContractHandler(base *Base, contracts *services.ContractService) *ContractHandler {
	return &ContractHandler{Base: base, Contracts: contracts}
}

type contractRequest struct {
	BookingID flexID `json:"booking_id"`
}

// Approve generates the rental agreement of a booking and emails it to the renter.
// Browsers are sent back to their profile whatever the delivery outcome.
func (h *ContractHandler) Approve(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	var req contractRequest
	err = httpx.Decode(w, r, &req, func(get func(string) string) {
		req.BookingID = flexID(parseID(get("booking_id")))
	})
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}
	res, err := h.Contracts.Generate(r.Context(), uint(req.BookingID), u)
	if err != nil {
		h.fail(w, r, PathProfile, err)
		return
	}

	msg := "Contract generated and sent to " + u.Email
	if res.Warning != "" {
		msg = "Contract generated"
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":   httpx.StatusSuccess,
			"message":  msg,
			"warning":  res.Warning,
			"contract": res.Text,
		})
		return
	}
	h.done(w, r, PathProfile, msg, res.Warning)
}

// PDF downloads the agreement.
func (h *ContractHandler) PDF(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	id, err := pathID(r, "booking_id")
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	data, err := h.Contracts.PDF(r.Context(), id, u)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="contract-%d.pdf"`, id))
	_, _ = w.Write(data)
}

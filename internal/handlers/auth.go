package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/services"
)

type AuthHandler struct {
	*Base
}

func NewAuthHandler(base *Base) *AuthHandler {
	return &AuthHandler{Base: base}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := httpx.Decode(w, r, &req, func(get func(string) string) {
		req.Username, req.Password, req.Next = get("username"), get("password"), get("next")
	})
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	if req.Next == "" {
		req.Next = r.URL.Query().Get("next")
	}

	u, err := h.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	auth.CreateSession(w, u.ID)
	h.Log.WithField("user_id", u.ID).Info("user logged in")

	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"status":  httpx.StatusSuccess,
			"message": "Logged in",
			"user":    u,
		})
		return
	}
	http.Redirect(w, r, safeNext(req.Next), http.StatusSeeOther)
}

func decodeRegistration(w http.ResponseWriter, r *http.Request) (services.RegisterInput, error) {
	var in services.RegisterInput
	err := httpx.Decode(w, r, &in, func(get func(string) string) {
		in.Username = get("username")
		in.Email = get("email")
		in.Phone = get("phone")
		in.CompanyName = get("company_name")
		in.Password = get("password")
		in.Password2 = get("password2")
	})
	return in, err
}

// Register creates a renter account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRegistration(w, r)
	if err != nil {
		h.fail(w, r, PathRegister, err)
		return
	}
	u, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, PathRegister, err)
		return
	}
	auth.CreateSession(w, u.ID)
	h.done(w, r, PathHome, "Account created successfully.", "")
}

// RegisterOwner creates an owner account; it can log in once an admin approved it.
func (h *AuthHandler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRegistration(w, r)
	if err != nil {
		h.fail(w, r, "/register/owner/", err)
		return
	}
	if _, err := h.Accounts.RegisterOwner(r.Context(), in); err != nil {
		h.fail(w, r, "/register/owner/", err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, httpx.Envelope{
			Status:  httpx.StatusSuccess,
			Message: "Account created. Wait for admin approval before login.",
		})
		return
	}
	h.flash(w, r, flash.Info, "Account created. Wait for admin approval before login.")
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if wantsJSON(r) {
		httpx.Success(w, "Logged out successfully")
		return
	}
	h.flash(w, r, flash.Info, "Logged out successfully")
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}

// Profile returns the logged-in user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": u})
}


// Package handlers adapts HTTP requests to the services. Action endpoints
// answer JSON clients with the {status, message} envelope and browsers with a
// flash message and a redirect.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// Redirect targets of browser flows.
const (
	PathHome      = "/"
	PathLogin     = "/login/"
	PathRegister  = "/register/"
	PathProfile   = "/profile/"
	PathDashboard = "/owner/dashboard/"
	PathContact   = "/contact/"
	PathAdmin     = "/admin/users/"
)

// Base carries what every handler needs to identify the user and answer.
type Base struct {
	Accounts *services.AccountService
	Flash    *flash.Store
	Log      logrus.FieldLogger
}

// currentUser loads the authenticated user. It is only called behind auth.RequireAuth.
func (b *Base) currentUser(r *http.Request) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "Authentication required")
	}
	u, err := b.Accounts.Get(r.Context(), uid)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "Authentication required")
	}
	return u, err
}

func wantsJSON(r *http.Request) bool {
	return auth.WantsJSON(r) || httpx.IsJSONBody(r)
}

func (b *Base) flash(w http.ResponseWriter, r *http.Request, level flash.Level, text string) {
	if text == "" || b.Flash == nil {
		return
	}
	if err := b.Flash.Add(w, r, level, text); err != nil {
		b.Log.WithError(err).Warn("flash message not stored")
	}
}

// done reports a successful action.
func (b *Base) done(w http.ResponseWriter, r *http.Request, redirect, msg, warning string) {
	if wantsJSON(r) {
		httpx.SuccessWithWarning(w, msg, warning)
		return
	}
	b.flash(w, r, flash.Success, msg)
	b.flash(w, r, flash.Warning, warning)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// fail reports a failed action.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, redirect string, err error) {
	b.logError(r, err)
	if wantsJSON(r) {
		httpx.Error(w, err)
		return
	}
	if apperrors.Is(err, apperrors.KindUnauthenticated) && redirect != PathLogin {
		redirect = PathLogin
	}
	b.flash(w, r, flash.Error, apperrors.Message(err))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// failJSON answers JSON whatever the client asked for.
func (b *Base) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	b.logError(r, err)
	httpx.Error(w, err)
}

func (b *Base) logError(r *http.Request, err error) {
	if apperrors.HTTPStatus(err) < http.StatusInternalServerError {
		return
	}
	b.Log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"kind":   apperrors.KindOf(err),
	}).Error("request failed")
}

func pathID(r *http.Request, name string) (uint, error) {
	id, ok := httpx.PathID(r, name)
	if !ok {
		return 0, apperrors.NotFound("Not found")
	}
	return id, nil
}

// flexID accepts an id sent as a JSON number or a string.
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(v)
	return nil
}

func parseID(s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return PathHome
	}
	return next
}

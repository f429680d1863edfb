package main

import (
	"net/http"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/logging"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
)

const mediaPrefix = "/media"

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	handler   http.Handler
	routerCfg *policy.RouterConfig
	mediaDir  string
}

// NewApp creates a new application with all routes configured. Requests are
// logged after the session is resolved so log lines carry the user id.
func NewApp(routerCfg *policy.RouterConfig, mediaDir string) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
		mediaDir:  mediaDir,
	}
	app.setupRoutes()
	app.handler = auth.Middleware(logging.Middleware(routerCfg.Base.Log)(app.mux))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

func (a *App) requirePermission(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.RequirePermission(resource, action)(h))
}

func (a *App) requireAdmin(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.RequireAdmin()(h))
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	cfg := a.routerCfg

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	ch := cfg.Cars
	a.mux.HandleFunc("GET /{$}", ch.Index)
	a.mux.HandleFunc("GET /car/{$}", ch.Cars)
	a.mux.HandleFunc("GET /detail/{id}/{$}", ch.Detail)
	a.mux.HandleFunc("GET /detail/{id}/reviews/{$}", cfg.Review.CarReviews)
	a.mux.HandleFunc("GET /search/{$}", ch.Search)
	a.mux.HandleFunc("GET /companies/{$}", ch.Companies)
	a.mux.HandleFunc("GET /owner/{owner_id}/cars/{$}", ch.OwnerCars)
	a.mux.HandleFunc("GET /owner/{owner_id}/{$}", ch.OwnerCars)
	a.mux.HandleFunc("POST /contact/{$}", cfg.ContactForm.Send)
	a.mux.HandleFunc("GET /messages/{$}", cfg.Base.Messages)

	ah := cfg.Auth
	a.mux.HandleFunc("POST /login/{$}", ah.Login)
	a.mux.HandleFunc("POST /register/{$}", ah.Register)
	a.mux.HandleFunc("POST /register/owner/{$}", ah.RegisterOwner)
	a.mux.HandleFunc("GET /logout/{$}", ah.Logout)
	a.mux.HandleFunc("POST /logout/{$}", ah.Logout)

	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Success(w, "ok")
	})
	a.mux.Handle("GET "+mediaPrefix+"/", http.StripPrefix(mediaPrefix+"/", http.FileServer(http.Dir(a.mediaDir))))

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /profile/{$}", a.requireAuth(ah.Profile))

	bh := cfg.Booking
	a.mux.Handle("GET /bookings/{$}",
		a.requirePermission(services.ResourceBooking, gate.ActionList, bh.Mine))
	a.mux.Handle("POST /booking/{$}", a.requireAuth(bh.Create))
	// The services scope these to the actor's own bookings and answer 404 otherwise.
	a.mux.Handle("POST /booking/{id}/approve/{$}", a.requireAuth(bh.Approve))
	a.mux.Handle("POST /booking/{id}/reject/{$}", a.requireAuth(bh.Reject))
	a.mux.Handle("POST /pay/{id}/{$}", a.requireAuth(bh.Pay))
	a.mux.Handle("GET /payment/success/{$}", a.requireAuth(bh.PaymentSuccess))
	a.mux.Handle("GET /payment/cancel/{$}", a.requireAuth(bh.PaymentCancel))

	a.mux.Handle("POST /comment/{booking_id}/{$}", a.requireAuth(cfg.Review.Comment))
	a.mux.Handle("POST /contract/approve/{$}", a.requireAuth(cfg.Contract.Approve))
	a.mux.Handle("GET /contract/{booking_id}/pdf", a.requireAuth(cfg.Contract.PDF))

	oh := cfg.Owner
	a.mux.Handle("GET /owner/dashboard/{$}", a.requireAuth(oh.Dashboard))
	a.mux.Handle("POST /owner/add-car/{$}",
		a.requirePermission(services.ResourceCar, gate.ActionCreate, oh.AddCar))
	a.mux.Handle("POST /owner/car/{id}/{$}",
		a.requirePermission(services.ResourceCar, gate.ActionUpdate, oh.UpdateCar))
	a.mux.Handle("POST /owner/car/{id}/delete/{$}",
		a.requirePermission(services.ResourceCar, gate.ActionDelete, oh.DeleteCar))

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes
	// ─────────────────────────────────────────────────────────────────────────
	adm := cfg.Admin
	a.mux.Handle("GET /admin/users/{$}", a.requireAdmin(adm.Users))
	a.mux.Handle("POST /admin/owners/approve/{$}", a.requireAdmin(adm.ApproveOwners))
	a.mux.Handle("POST /admin/bookings/{id}/status/{$}", a.requireAdmin(adm.SetBookingStatus))
}

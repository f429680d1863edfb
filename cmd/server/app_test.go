package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/internal/payment"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/storage"
	"github.com/diewo77/go-rentals/internal/testutil"
)

type testApp struct {
	t     *testing.T
	db    *gorm.DB
	app   *App
	notes *notify.Recorder
	logs  *test.Hook
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	log, hook := test.NewNullLogger()
	media := t.TempDir()
	notes := &notify.Recorder{}
	cfg := policy.NewRouterConfig(policy.Deps{
		DB:           db,
		Notifier:     notes,
		Gateway:      payment.NewLocalGateway(),
		Tokens:       payment.NewTokenCodec("test-secret"),
		Images:       storage.NewImageStore(media, mediaPrefix),
		Flash:        flash.NewStore([]byte("0123456789abcdef0123456789abcdef"), false),
		Log:          log,
		Booking:      services.BookingConfig{BaseURL: "http://rentals.test", Currency: "usd"},
		ContactEmail: "contact@royalcars.com",
		Now:          func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
	return &testApp{t: t, db: db, app: NewApp(cfg, media), notes: notes, logs: hook}
}

// do sends a request as user (nil for anonymous). A string body is sent as a
// form unless it looks like JSON.
func (a *testApp) do(method, target string, user *models.User, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	case body != "":
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if user != nil {
		req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	}
	rec := httptest.NewRecorder()
	a.app.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func bookingJSON(carID uint, pickup, ret string) string {
	return fmt.Sprintf(`{"car":"%d","pickup_location":"Airport","drop_location":"Downtown",`+
		`"pickup_date":"%s","pickup_time":"10:00","return_date":"%s","return_time":"18:00"}`, carID, pickup, ret)
}

func TestBookingToPaymentFlow(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	other := testutil.CreateUser(t, a.db, "other", models.RoleUser)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	rival := testutil.CreateUser(t, a.db, "rival", models.RoleOwner)
	car := testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)

	rec := a.do(http.MethodPost, "/booking/", renter, bookingJSON(car.ID, "2024-06-01", "2024-06-05"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, httpx.StatusSuccess, envelope(t, rec).Status)

	var b models.Booking
	require.NoError(t, a.db.Where("user_id = ?", renter.ID).First(&b).Error)

	// pay before approval
	rec = a.do(http.MethodPost, fmt.Sprintf("/pay/%d/", b.ID), renter, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// approval by another owner does not leak the booking
	rec = a.do(http.MethodPost, fmt.Sprintf("/booking/%d/approve/", b.ID), rival, `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, fmt.Sprintf("/booking/%d/approve/", b.ID), owner, "confirm=1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/owner/dashboard/", rec.Header().Get("Location"))
	require.Equal(t, 1, a.notes.Count(notify.TemplateBookingApproved))

	rec = a.do(http.MethodPost, "/booking/", other, bookingJSON(car.ID, "2024-06-04", "2024-06-08"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := envelope(t, rec)
	require.Equal(t, httpx.StatusError, env.Status)
	require.Equal(t, "Car already booked for these dates", env.Message)

	rec = a.do(http.MethodPost, "/booking/", other, bookingJSON(car.ID, "2024-06-05", "2024-06-08"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, fmt.Sprintf("/pay/%d/", b.ID), renter, "go=1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	checkout, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payment/success/", checkout.Path)

	rec = a.do(http.MethodGet, checkout.RequestURI(), other, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.NoError(t, a.db.First(&b, b.ID).Error)
	require.Equal(t, models.BookingApproved, b.Status)

	rec = a.do(http.MethodGet, checkout.RequestURI(), renter, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/profile/", rec.Header().Get("Location"))
	require.NoError(t, a.db.First(&b, b.ID).Error)
	require.Equal(t, models.BookingPaid, b.Status)
	require.Equal(t, 1, a.notes.Count(notify.TemplatePaymentConfirmed))
}

func TestBookingCreate_Errors(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	car := testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)

	tests := []struct {
		name   string
		user   *models.User
		body   string
		status int
	}{
		{"anonymous", nil, bookingJSON(car.ID, "2024-06-01", "2024-06-05"), http.StatusUnauthorized},
		{"owner", owner, bookingJSON(car.ID, "2024-06-01", "2024-06-05"), http.StatusForbidden},
		{"return before pickup", renter, bookingJSON(car.ID, "2024-06-05", "2024-06-01"), http.StatusBadRequest},
		{"past pickup", renter, bookingJSON(car.ID, "2024-04-01", "2024-04-05"), http.StatusBadRequest},
		{"malformed json", renter, `{"car":`, http.StatusBadRequest},
		{"unknown car", renter, bookingJSON(9999, "2024-06-01", "2024-06-05"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/booking/", tt.user, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Equal(t, httpx.StatusError, envelope(t, rec).Status)
		})
	}
}

func TestBookingCreate_FormBody(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	car := testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)

	form := url.Values{
		"car":             {fmt.Sprint(car.ID)},
		"pickup_location": {"Airport"},
		"drop_location":   {"Downtown"},
		"pickup_date":     {"2024-06-01"},
		"pickup_time":     {"10:00"},
		"return_date":     {"2024-06-03"},
		"return_time":     {"10:00"},
	}
	rec := a.do(http.MethodPost, "/booking/", renter, form.Encode())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Booking successful! Please wait for confirmation.", envelope(t, rec).Message)
}

func TestSearchAndListings(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)
	testutil.CreateCar(t, a.db, owner, "Golf", 2019, 30)

	rec := a.do(http.MethodGet, "/search/?q=CIV", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []services.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	require.Equal(t, "50.00", body.Results[0].Price)

	rec = a.do(http.MethodGet, fmt.Sprintf("/owner/%d/cars/", owner.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, fmt.Sprintf("/owner/%d/", renter.ID), nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Golf"`)
}

func TestAccessControl(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	admin := testutil.CreateUser(t, a.db, "admin", models.RoleAdmin)

	rec := a.do(http.MethodGet, "/admin/users/", renter, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodGet, "/admin/users/?role=owner", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/owner/add-car/", renter, `{"name":"X"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// browsers are sent to the login page
	rec = a.do(http.MethodGet, "/profile/", nil, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login/?next="))
}

func TestOwnerRegistrationAndApproval(t *testing.T) {
	a := newTestApp(t)
	admin := testutil.CreateUser(t, a.db, "admin", models.RoleAdmin)

	rec := a.do(http.MethodPost, "/register/owner/", nil,
		`{"username":"speedy","email":"speedy@example.com","company_name":"Speedy","password":"s3cret!","password2":"s3cret!"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/login/", nil, `{"username":"speedy","password":"s3cret!"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Your account is pending admin approval.", envelope(t, rec).Message)

	var owner models.User
	require.NoError(t, a.db.Where("username = ?", "speedy").First(&owner).Error)
	rec = a.do(http.MethodPost, "/admin/owners/approve/", admin, fmt.Sprintf(`{"ids":[%d]}`, owner.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/login/", nil, `{"username":"speedy","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())

	rec = a.do(http.MethodPost, "/owner/add-car/", &owner,
		`{"name":"Corolla","year":2021,"transmission":"auto","mileage":"10K","price":40}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestContactFormFlash(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(http.MethodPost, "/contact/", nil, "name=Eve&email=eve%40example.com&subject=Hi&message=Vans%3F")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 1, a.notes.Count(notify.TemplateContact))

	// the flash cookie set by the redirect is shown on the next request
	req := httptest.NewRequest(http.MethodGet, "/messages/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	a.app.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	require.Contains(t, out.Body.String(), "Your message has been sent successfully.")
}

func TestContractRoutes(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	other := testutil.CreateUser(t, a.db, "other", models.RoleUser)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	car := testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)
	b := testutil.CreateBooking(t, a.db, renter, car, "2024-06-01", "2024-06-05", models.BookingApproved)

	rec := a.do(http.MethodPost, "/contract/approve/", renter, fmt.Sprintf("booking_id=%d", b.ID))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/profile/", rec.Header().Get("Location"))
	require.Equal(t, 1, a.notes.Count(notify.TemplateContract))

	rec = a.do(http.MethodPost, "/contract/approve/", renter, fmt.Sprintf(`{"booking_id":"%d"}`, b.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "Civic")

	rec = a.do(http.MethodPost, "/contract/approve/", other, fmt.Sprintf(`{"booking_id":%d}`, b.ID))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/contract/%d/pdf", b.ID), renter, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestForeignBookingActionsAnswerNotFound(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)
	other := testutil.CreateUser(t, a.db, "other", models.RoleUser)
	owner := testutil.CreateUser(t, a.db, "owner", models.RoleOwner)
	car := testutil.CreateCar(t, a.db, owner, "Civic", 2022, 50)
	pending := testutil.CreateBooking(t, a.db, renter, car, "2024-06-01", "2024-06-05", models.BookingPending)
	approved := testutil.CreateBooking(t, a.db, renter, car, "2024-07-01", "2024-07-05", models.BookingApproved)

	tests := []struct {
		name   string
		user   *models.User
		target string
	}{
		{"renter approves", other, fmt.Sprintf("/booking/%d/approve/", pending.ID)},
		{"own renter approves", renter, fmt.Sprintf("/booking/%d/approve/", pending.ID)},
		{"renter approves unknown", renter, "/booking/9999/approve/"},
		{"renter rejects", other, fmt.Sprintf("/booking/%d/reject/", pending.ID)},
		{"owner pays", owner, fmt.Sprintf("/pay/%d/", approved.ID)},
		{"other renter pays", other, fmt.Sprintf("/pay/%d/", approved.ID)},
		{"renter pays unknown", renter, "/pay/9999/"},
		{"owner comments", owner, fmt.Sprintf("/comment/%d/", approved.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, tt.target, tt.user, `{}`)
			require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			require.Equal(t, httpx.StatusError, envelope(t, rec).Status)
		})
	}

	var b models.Booking
	require.NoError(t, a.db.First(&b, pending.ID).Error)
	require.Equal(t, models.BookingPending, b.Status)
}

func TestSessionCookieResolvedAndLogged(t *testing.T) {
	a := newTestApp(t)
	renter := testutil.CreateUser(t, a.db, "renter", models.RoleUser)

	login := httptest.NewRecorder()
	auth.CreateSession(login, renter.ID)

	req := httptest.NewRequest(http.MethodGet, "/profile/", nil)
	req.Header.Set("Accept", "application/json")
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entry := a.logs.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "/profile/", entry.Data["path"])
	require.Equal(t, renter.ID, entry.Data["user_id"])
}

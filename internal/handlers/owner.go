package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/storage"
)

// OwnerHandler serves the owner dashboard and fleet management.
type OwnerHandler struct {
	*Base
	Catalog  *services.CatalogService
	Bookings *services.BookingService
}

func NewOwnerHandler(base *Base, catalog *services.CatalogService, bookings *services.BookingService) *OwnerHandler {
	return &OwnerHandler{Base: base, Catalog: catalog, Bookings: bookings}
}

// Dashboard lists the owner's cars and the bookings made on them.
func (h *OwnerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	if !u.IsOwner() {
		h.fail(w, r, PathHome, apperrors.Forbidden("Only owners have a dashboard"))
		return
	}
	oc, err := h.Catalog.ListByOwner(r.Context(), u.ID)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListForOwner(r.Context(), u.ID)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	cars := make([]carView, 0, len(oc.Cars))
	for i := range oc.Cars {
		cars = append(cars, carView{Car: oc.Cars[i], Image: h.Catalog.ImageURL(&oc.Cars[i])})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cars": cars, "bookings": bookings})
}

// carForm reads a car from a multipart form (with optional "image" file) or a JSON body.
func carForm(w http.ResponseWriter, r *http.Request) (services.CarInput, *services.Upload, func(), error) {
	var in services.CarInput
	noop := func() {}
	if httpx.IsJSONBody(r) {
		err := httpx.Decode(w, r, &in, nil)
		return in, nil, noop, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return in, nil, noop, apperrors.Validation("Image is too large", map[string]string{"image": "too_large"})
			}
			return in, nil, noop, apperrors.Validation("Malformed form body", nil)
		}
	} else if err := r.ParseForm(); err != nil {
		return in, nil, noop, apperrors.Validation("Malformed form body", nil)
	}

	in.Name = r.FormValue("name")
	in.Transmission = r.FormValue("transmission")
	in.Mileage = r.FormValue("mileage")
	in.Description = r.FormValue("description")
	v := map[string]string{}
	if s := strings.TrimSpace(r.FormValue("year")); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			v["year"] = "not_a_number"
		}
		in.Year = year
	}
	if s := strings.TrimSpace(r.FormValue("price")); s != "" {
		price, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v["price"] = "not_a_number"
		}
		in.Price = price
	}
	if len(v) > 0 {
		return in, nil, noop, apperrors.Validation("Please correct the car details", v)
	}

	if r.MultipartForm == nil {
		return in, nil, noop, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, nil
	}
	if err != nil {
		return in, nil, noop, apperrors.Validation("Unreadable image", map[string]string{"image": "invalid"})
	}
	return in, &services.Upload{Filename: header.Filename, Body: file}, func() { _ = file.Close() }, nil
}

func (h *OwnerHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		h.fail(w, r, PathLogin, err)
		return
	}
	in, img, closeImg, err := carForm(w, r)
	if err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	defer closeImg()

	car, err := h.Catalog.AddCar(r.Context(), u, in, img)
	if err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{
			"status":  httpx.StatusSuccess,
			"message": "Car added successfully.",
			"car":     carView{Car: *car, Image: h.Catalog.ImageURL(car)},
		})
		return
	}
	h.done(w, r, PathDashboard, "Car added successfully.", "")
}

func (h *OwnerHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
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
	in, img, closeImg, err := carForm(w, r)
	if err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	defer closeImg()

	if _, err := h.Catalog.UpdateCar(r.Context(), u, id, in, img); err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	h.done(w, r, PathDashboard, "Car updated.", "")
}

func (h *OwnerHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Catalog.DeleteCar(r.Context(), u, id); err != nil {
		h.fail(w, r, PathDashboard, err)
		return
	}
	h.done(w, r, PathDashboard, "Car removed.", "")
}

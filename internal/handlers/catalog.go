package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// CatalogHandler serves the public listings.
type CatalogHandler struct {
	*Base
	Catalog *services.CatalogService
}

func NewCatalogHandler(base *Base, catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{Base: base, Catalog: catalog}
}

type carView struct {
	models.Car
	Image string `json:"image"`
}

func (h *CatalogHandler) views(cars []models.Car) []carView {
	out := make([]carView, 0, len(cars))
	for i := range cars {
		out = append(out, carView{Car: cars[i], Image: h.Catalog.ImageURL(&cars[i])})
	}
	return out
}

// Index lists the cars and the approved rental companies.
func (h *CatalogHandler) Index(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.ListCars(r.Context())
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	owners, err := h.Catalog.ListCompanies(r.Context())
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cars": h.views(cars), "owners": owners})
}

func (h *CatalogHandler) Cars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.ListCars(r.Context())
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cars": h.views(cars)})
}

func (h *CatalogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	d, err := h.Catalog.GetCar(r.Context(), id)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Search answers {"results": [...]}.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.Catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *CatalogHandler) Companies(w http.ResponseWriter, r *http.Request) {
	owners, err := h.Catalog.ListCompanies(r.Context())
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owners": owners})
}

// OwnerCars serves both /owner/{owner_id}/cars/ and /owner/{owner_id}/.
func (h *CatalogHandler) OwnerCars(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "owner_id")
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	oc, err := h.Catalog.ListByOwner(r.Context(), id)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owner": oc.Owner, "cars": h.views(oc.Cars)})
}

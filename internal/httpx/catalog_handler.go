package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/catalog"
)

type CatalogHandler struct {
	Catalog *catalog.Store
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/services", h.listServices)
		r.Post("/services", h.createService)
		r.Get("/items", h.listItems)
		r.Post("/items", h.createItem)
		r.Get("/prices", h.listPrices)
		r.Post("/prices", h.upsertPrice)
		r.Delete("/prices/{priceID}", h.deactivatePrice)
	})
}

// shopScope picks which shop's catalog to read: staff and owners see their
// own, anyone else must name one.
func shopScope(r *http.Request) (string, error) {
	actor := ActorFrom(r)
	if actor.ShopID != "" {
		return actor.ShopID, nil
	}
	if shopID := r.URL.Query().Get("shop_id"); shopID != "" {
		return shopID, nil
	}
	return "", apperr.New(apperr.KindValidation, "shop_id query parameter is required")
}

func requireOwner(r *http.Request) (access.Actor, error) {
	actor := ActorFrom(r)
	if actor.Role != access.RoleShopOwner || actor.ShopID == "" {
		return actor, apperr.New(apperr.KindForbidden, "only the shop owner can manage the catalog")
	}
	return actor, nil
}

type namedReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *CatalogHandler) createService(w http.ResponseWriter, r *http.Request) {
	actor, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req namedReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sv := &catalog.Service{ID: uuid.NewString(), ShopID: actor.ShopID, Name: req.Name, Description: req.Description, Active: true}
	if err := h.Catalog.CreateService(r.Context(), sv); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

func (h *CatalogHandler) createItem(w http.ResponseWriter, r *http.Request) {
	actor, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req namedReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	it := &catalog.Item{ID: uuid.NewString(), ShopID: actor.ShopID, Name: req.Name, Description: req.Description, Active: true}
	if err := h.Catalog.CreateItem(r.Context(), it); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

type priceReq struct {
	ServiceID  string `json:"service_id" validate:"required"`
	ItemID     string `json:"item_id" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
}

func (h *CatalogHandler) upsertPrice(w http.ResponseWriter, r *http.Request) {
	actor, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req priceReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sp := &catalog.ServicePrice{
		ID:         uuid.NewString(),
		ShopID:     actor.ShopID,
		ServiceID:  req.ServiceID,
		ItemID:     req.ItemID,
		PriceCents: req.PriceCents,
		Active:     true,
	}
	if err := h.Catalog.UpsertPrice(r.Context(), sp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *CatalogHandler) deactivatePrice(w http.ResponseWriter, r *http.Request) {
	actor, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Catalog.DeactivatePrice(r.Context(), actor.ShopID, chi.URLParam(r, "priceID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	shopID, err := shopScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Catalog.ListServices(r.Context(), shopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) listItems(w http.ResponseWriter, r *http.Request) {
	shopID, err := shopScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Catalog.ListItems(r.Context(), shopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) listPrices(w http.ResponseWriter, r *http.Request) {
	shopID, err := shopScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Catalog.ListPrices(r.Context(), shopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

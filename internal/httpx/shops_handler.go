package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/shops"
)

type ShopsHandler struct {
	Shops *shops.Store
}

func (h *ShopsHandler) Register(r chi.Router) {
	r.Post("/shops", h.createShop)
	r.Get("/shops/staff", h.listStaff)
	r.Post("/shops/staff", h.addStaff)
	r.Delete("/shops/staff/{staffID}", h.removeStaff)
}

type createShopReq struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *ShopsHandler) createShop(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if actor.Role != access.RoleShopOwner {
		writeError(w, apperr.New(apperr.KindForbidden, "only shop owners can create a shop"))
		return
	}
	if actor.ShopID != "" {
		writeError(w, apperr.New(apperr.KindValidation, "this account already owns a shop"))
		return
	}
	var req createShopReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sh := &shops.Shop{
		ID:      uuid.NewString(),
		OwnerID: actor.UserID,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  true,
	}
	if err := h.Shops.Create(r.Context(), sh); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

type addStaffReq struct {
	UserID               string `json:"user_id" validate:"required"`
	Position             string `json:"position"`
	CanTakeOrders        bool   `json:"can_take_orders"`
	CanUpdateOrders      bool   `json:"can_update_orders"`
	CanRegisterCustomers bool   `json:"can_register_customers"`
}

func (h *ShopsHandler) addStaff(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if actor.Role != access.RoleShopOwner || actor.ShopID == "" {
		writeError(w, apperr.New(apperr.KindForbidden, "only the shop owner can manage staff"))
		return
	}
	var req addStaffReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	st := &shops.Staff{
		ID:                   uuid.NewString(),
		ShopID:               actor.ShopID,
		UserID:               req.UserID,
		Position:             req.Position,
		Active:               true,
		CanTakeOrders:        req.CanTakeOrders,
		CanUpdateOrders:      req.CanUpdateOrders,
		CanRegisterCustomers: req.CanRegisterCustomers,
	}
	if err := h.Shops.AddStaff(r.Context(), st); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *ShopsHandler) removeStaff(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if actor.Role != access.RoleShopOwner || actor.ShopID == "" {
		writeError(w, apperr.New(apperr.KindForbidden, "only the shop owner can manage staff"))
		return
	}
	if err := h.Shops.DeactivateStaff(r.Context(), actor.ShopID, chi.URLParam(r, "staffID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *ShopsHandler) listStaff(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if actor.ShopID == "" || (actor.Role != access.RoleShopOwner && actor.Role != access.RoleStaff) {
		writeError(w, apperr.New(apperr.KindForbidden, "no shop associated with this account"))
		return
	}
	staff, err := h.Shops.ListStaff(r.Context(), actor.ShopID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

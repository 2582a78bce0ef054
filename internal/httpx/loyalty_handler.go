package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/ledger"
)

type LoyaltyHandler struct {
	Ledger *ledger.Service
}

func (h *LoyaltyHandler) Register(r chi.Router) {
	r.Route("/loyalty", func(r chi.Router) {
		r.Get("/balance", h.balance)
		r.Get("/history", h.history)
		r.Post("/redeem", h.redeem)
	})
}

func requireCustomer(r *http.Request) (access.Actor, error) {
	actor := ActorFrom(r)
	if actor.Role != access.RoleCustomer {
		return actor, apperr.New(apperr.KindForbidden, "loyalty points belong to customer accounts")
	}
	return actor, nil
}

func (h *LoyaltyHandler) balance(w http.ResponseWriter, r *http.Request) {
	actor, err := requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := h.Ledger.Balance(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": points})
}

func (h *LoyaltyHandler) history(w http.ResponseWriter, r *http.Request) {
	actor, err := requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.Ledger.History(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type redeemReq struct {
	Points      int     `json:"points" validate:"required,gt=0"`
	Description string  `json:"description"`
	OrderID     *string `json:"order_id"`
}

func (h *LoyaltyHandler) redeem(w http.ResponseWriter, r *http.Request) {
	actor, err := requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req redeemReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.Ledger.Redeem(r.Context(), actor.UserID, req.Points, req.Description, req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

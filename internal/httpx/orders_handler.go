package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/metrics"
	"github.com/pressline/dryclean-api/internal/orders"
	"github.com/pressline/dryclean-api/internal/redisx"
)

type OrdersHandler struct {
	Engine *orders.Engine
	Redis  *redis.Client
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{orderID}", h.get)
		r.Get("/{orderID}/status", h.status)
		r.Patch("/{orderID}/status", h.transition)
		r.Post("/{orderID}/items", h.addItem)
		r.Delete("/{orderID}/items/{itemID}", h.removeItem)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "invalid json body"))
		return
	}
	o, err := h.Engine.Create(r.Context(), ActorFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.OrdersCreated.Inc()
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":     o.ID,
		"order_number": o.Number,
		"total_cents":  o.TotalCents,
		"status":       o.Status,
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	status := orders.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, apperr.Newf(apperr.KindValidation, "unknown status %q", status))
		return
	}
	out, err := h.Engine.List(r.Context(), ActorFrom(r), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.Get(r.Context(), ActorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// status serves the hot status lookup from redis and only falls back to the
// engine on a cache miss. The fallback repopulates the cache.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if cached, err := h.Redis.Get(r.Context(), fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Result(); err == nil {
		// The cache is shared, so visibility still has to be checked.
		if _, err := h.Engine.Get(r.Context(), ActorFrom(r), orderID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": cached})
		return
	}
	o, err := h.Engine.Get(r.Context(), ActorFrom(r), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusOK, map[string]string{"order_id": o.ID, "status": string(o.Status)})
}

type transitionReq struct {
	Status orders.Status `json:"status" validate:"required"`
	Note   string        `json:"note"`
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Engine.Transition(r.Context(), ActorFrom(r), chi.URLParam(r, "orderID"), req.Status, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.OrderTransitions.WithLabelValues(string(o.Status)).Inc()
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusOK, map[string]any{"order_id": o.ID, "status": o.Status})
}

func (h *OrdersHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var line orders.LineInput
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "invalid json body"))
		return
	}
	o, err := h.Engine.AddItem(r.Context(), ActorFrom(r), chi.URLParam(r, "orderID"), line)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.RemoveItem(r.Context(), ActorFrom(r),
		chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cacheStatus(r *http.Request, o *orders.Order) {
	err := h.Redis.Set(r.Context(), fmt.Sprintf(redisx.KeyOrderStatus, o.ID), string(o.Status), redisx.TTLStatusCache).Err()
	if err != nil {
		log.WithError(err).WithField("order_id", o.ID).Warn("status cache write failed")
	}
}

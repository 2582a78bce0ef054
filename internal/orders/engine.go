package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/catalog"
	"github.com/pressline/dryclean-api/internal/ledger"
)

// Store is the durable order state. Every method that mutates must be atomic:
// either the whole effect lands or none of it does.
type Store interface {
	// Create assigns the shop-scoped sequential order number and inserts the
	// order and its items in one transaction.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByShop(ctx context.Context, shopID string, status Status) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	// UpdateStatus compares-and-swaps the status, appends the history row, and
	// inserts the accrual entry (if any) in one transaction. A CAS miss on a
	// still-existing order returns ConcurrencyConflict.
	UpdateStatus(ctx context.Context, orderID string, from, to Status, change *StatusChange, accrual *ledger.Entry, completedAt *time.Time) error
	// AddItem re-checks the order is still modifiable under a row lock, inserts
	// the item, and recomputes the total in one transaction.
	AddItem(ctx context.Context, orderID string, it *OrderItem) error
	// RemoveItem rejects removing the last remaining item with EmptyOrder.
	RemoveItem(ctx context.Context, orderID, itemID string) error
}

// Pricer is the read-only pricing view of the catalog.
type Pricer interface {
	PriceFor(ctx context.Context, shopID, serviceID, itemID string) (*catalog.ServicePrice, error)
}

type Engine struct {
	Store  Store
	Pricer Pricer
	Ledger *ledger.Service
	Events EventSink
	Name   string // producer name stamped on events

	Now func() time.Time // test hook
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

type LineInput struct {
	ServiceID string `json:"service_id"`
	ItemID    string `json:"item_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type CreateInput struct {
	ShopID              string      `json:"shop_id"`
	CustomerID          string      `json:"customer_id"` // only honored for staff/owner
	Priority            Priority    `json:"priority"`
	PickupAt            time.Time   `json:"pickup_at"`
	DeliveryAt          time.Time   `json:"delivery_at"`
	SpecialInstructions string      `json:"special_instructions"`
	Items               []LineInput `json:"items"`
}

// Create validates the input, snapshots unit prices from the catalog, assigns
// the order number, and persists everything atomically. Customers order for
// themselves; staff with the take-orders capability may order on behalf of a
// customer at their own shop.
func (e *Engine) Create(ctx context.Context, actor access.Actor, in CreateInput) (*Order, error) {
	customerID := in.CustomerID
	switch actor.Role {
	case access.RoleCustomer:
		customerID = actor.UserID
	default:
		if !actor.Can(access.CapTakeOrders) || !actor.WorksAt(in.ShopID) {
			return nil, apperr.New(apperr.KindForbidden, "not allowed to take orders for this shop")
		}
		if customerID == "" {
			return nil, apperr.New(apperr.KindValidation, "customer_id is required").
				WithField("customer_id", "required when ordering on behalf of a customer")
		}
	}

	now := e.now()
	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperr.New(apperr.KindValidation, "unknown priority").
			WithField("priority", "must be normal, high or urgent")
	}

	order := &Order{
		ID:                  uuid.NewString(),
		ShopID:              in.ShopID,
		CustomerID:          customerID,
		Status:              StatusReceived,
		Priority:            priority,
		PickupAt:            in.PickupAt,
		DeliveryAt:          in.DeliveryAt,
		SpecialInstructions: in.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// Validation order is deliberate: pricing, quantity, emptiness, schedule.
	for _, line := range in.Items {
		sp, err := e.Pricer.PriceFor(ctx, in.ShopID, line.ServiceID, line.ItemID)
		if err != nil {
			return nil, err
		}
		if line.Quantity <= 0 {
			return nil, apperr.Newf(apperr.KindInvalidQuantity,
				"quantity must be a positive integer, got %d", line.Quantity)
		}
		order.Items = append(order.Items, OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ServicePriceID: sp.ID,
			ServiceID:      line.ServiceID,
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			UnitPriceCents: sp.PriceCents,
			TotalCents:     sp.PriceCents * int64(line.Quantity),
			Notes:          line.Notes,
		})
	}
	if len(order.Items) == 0 {
		return nil, apperr.New(apperr.KindEmptyOrder, "order must contain at least one item")
	}
	if in.PickupAt.After(in.DeliveryAt) || !in.PickupAt.After(now) || !in.DeliveryAt.After(now) {
		return nil, apperr.New(apperr.KindInvalidSchedule,
			"pickup must precede delivery and both must be in the future")
	}
	order.RecomputeTotal()

	if err := e.Store.Create(ctx, order); err != nil {
		if apperr.Is(err, apperr.KindConcurrencyConflict) {
			// one retry with a fresh sequence draw
			if retryErr := e.Store.Create(ctx, order); retryErr != nil {
				return nil, retryErr
			}
		} else {
			return nil, err
		}
	}

	e.emit(EventOrderCreated, order.ID, OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		ShopID:      order.ShopID,
		CustomerID:  order.CustomerID,
		TotalCents:  order.TotalCents,
	})
	return order, nil
}

// Transition moves the order to target, recording history and, on completion,
// accruing loyalty points atomically with the status write. A concurrent
// status change is retried once against the re-read state.
func (e *Engine) Transition(ctx context.Context, actor access.Actor, orderID string, target Status, note string) (*Order, error) {
	if !target.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", target).
			WithField("status", "not a known order status")
	}

	order, err := e.transitionOnce(ctx, actor, orderID, target, note)
	if apperr.Is(err, apperr.KindConcurrencyConflict) {
		order, err = e.transitionOnce(ctx, actor, orderID, target, note)
	}
	return order, err
}

func (e *Engine) transitionOnce(ctx context.Context, actor access.Actor, orderID string, target Status, note string) (*Order, error) {
	order, err := e.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(access.CapUpdateOrders) || !actor.WorksAt(order.ShopID) {
		return nil, apperr.New(apperr.KindForbidden, "not allowed to update orders for this shop")
	}
	if !CanTransition(order.Status, target) {
		return nil, apperr.Newf(apperr.KindInvalidTransition,
			"cannot transition from %s to %s", order.Status, target)
	}

	now := e.now()
	change := &StatusChange{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Old:       order.Status,
		New:       target,
		ChangedBy: actor.UserID,
		Note:      note,
		ChangedAt: now,
	}

	var accrual *ledger.Entry
	var completedAt *time.Time
	if target == StatusCompleted {
		accrual = e.Ledger.AccrualEntry(order.CustomerID, order.ID, order.TotalCents)
		completedAt = &now
	}

	if err := e.Store.UpdateStatus(ctx, order.ID, order.Status, target, change, accrual, completedAt); err != nil {
		return nil, err
	}

	old := order.Status
	order.Status = target
	order.UpdatedAt = now
	order.CompletedAt = completedAt
	order.History = append([]StatusChange{*change}, order.History...)

	if accrual != nil {
		log.WithFields(log.Fields{
			"order_id": order.ID,
			"customer": order.CustomerID,
			"points":   accrual.Points,
		}).Info("loyalty points accrued")
	}

	e.emit(EventOrderStatusChanged, order.ID, OrderStatusChangedPayload{
		OrderID:   order.ID,
		OldStatus: old,
		NewStatus: target,
		ChangedAt: now,
	})
	return order, nil
}

// AddItem appends a line item while the order is still modifiable, pricing it
// from the current catalog. The store recomputes the total in the same
// transaction as the insert.
func (e *Engine) AddItem(ctx context.Context, actor access.Actor, orderID string, line LineInput) (*Order, error) {
	order, err := e.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := e.canModify(actor, order); err != nil {
		return nil, err
	}
	if !order.Status.Modifiable() {
		return nil, apperr.Newf(apperr.KindInvalidTransition,
			"items cannot be changed once the order is %s", order.Status)
	}

	sp, err := e.Pricer.PriceFor(ctx, order.ShopID, line.ServiceID, line.ItemID)
	if err != nil {
		return nil, err
	}
	if line.Quantity <= 0 {
		return nil, apperr.Newf(apperr.KindInvalidQuantity,
			"quantity must be a positive integer, got %d", line.Quantity)
	}

	item := &OrderItem{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		ServicePriceID: sp.ID,
		ServiceID:      line.ServiceID,
		ItemID:         line.ItemID,
		Quantity:       line.Quantity,
		UnitPriceCents: sp.PriceCents,
		TotalCents:     sp.PriceCents * int64(line.Quantity),
		Notes:          line.Notes,
	}
	if err := e.Store.AddItem(ctx, order.ID, item); err != nil {
		return nil, err
	}
	return e.Store.Get(ctx, order.ID)
}

// RemoveItem deletes a line item; the store rejects removing the last one.
func (e *Engine) RemoveItem(ctx context.Context, actor access.Actor, orderID, itemID string) (*Order, error) {
	order, err := e.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := e.canModify(actor, order); err != nil {
		return nil, err
	}
	if !order.Status.Modifiable() {
		return nil, apperr.Newf(apperr.KindInvalidTransition,
			"items cannot be changed once the order is %s", order.Status)
	}
	if err := e.Store.RemoveItem(ctx, order.ID, itemID); err != nil {
		return nil, err
	}
	return e.Store.Get(ctx, order.ID)
}

// Get returns the order if the actor may see it: customers their own orders,
// owners and staff their shop's.
func (e *Engine) Get(ctx context.Context, actor access.Actor, orderID string) (*Order, error) {
	order, err := e.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !e.canSee(actor, order) {
		// do not leak existence of other shops' orders
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	return order, nil
}

// List returns the actor's role-scoped order list, optionally filtered by
// status (empty status means all).
func (e *Engine) List(ctx context.Context, actor access.Actor, status Status) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", status).
			WithField("status", "not a known order status")
	}
	switch actor.Role {
	case access.RoleShopOwner, access.RoleStaff:
		if actor.ShopID == "" {
			return nil, apperr.New(apperr.KindForbidden, "no shop associated with this account")
		}
		return e.Store.ListByShop(ctx, actor.ShopID, status)
	default:
		return e.Store.ListByCustomer(ctx, actor.UserID)
	}
}

func (e *Engine) canSee(actor access.Actor, o *Order) bool {
	if actor.Role == access.RoleAdmin {
		return true
	}
	if actor.Role == access.RoleCustomer {
		return o.CustomerID == actor.UserID
	}
	return actor.WorksAt(o.ShopID)
}

func (e *Engine) canModify(actor access.Actor, o *Order) error {
	if actor.Role == access.RoleCustomer {
		if o.CustomerID != actor.UserID {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil
	}
	if !actor.Can(access.CapTakeOrders) || !actor.WorksAt(o.ShopID) {
		return apperr.New(apperr.KindForbidden, "not allowed to modify orders for this shop")
	}
	return nil
}

func (e *Engine) emit(eventType, orderID string, payload any) {
	if e.Events == nil {
		return
	}
	e.Events.Emit(NewEnvelope(e.Name, eventType, orderID, payload))
}

package orders

import "time"

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Order struct {
	ID                  string     `json:"id"`
	ShopID              string     `json:"shop_id"`
	CustomerID          string     `json:"customer_id"`
	Number              string     `json:"order_number"`
	Status              Status     `json:"status"`
	Priority            Priority   `json:"priority"`
	PickupAt            time.Time  `json:"pickup_at"`
	DeliveryAt          time.Time  `json:"delivery_at"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	TotalCents          int64      `json:"total_cents"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`

	Items   []OrderItem    `json:"items,omitempty"`
	History []StatusChange `json:"status_history,omitempty"`
}

// OrderItem snapshots the catalog price at creation time. UnitPriceCents is
// immutable afterwards; later ServicePrice edits never touch it.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	ServicePriceID string `json:"service_price_id"`
	ServiceID      string `json:"service_id"`
	ItemID         string `json:"item_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
	Notes          string `json:"notes,omitempty"`
}

type StatusChange struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Old       Status    `json:"old_status"`
	New       Status    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// RecomputeTotal derives the order total from its line items.
func (o *Order) RecomputeTotal() {
	var total int64
	for _, it := range o.Items {
		total += it.TotalCents
	}
	o.TotalCents = total
}

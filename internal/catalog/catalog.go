// Package catalog holds the per-shop reference data: services offered, item
// types accepted, and the price for each (service, item) pair. The order
// engine reads prices from here; it never writes.
package catalog

import "time"

type Service struct {
	ID          string    `json:"id"`
	ShopID      string    `json:"shop_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Item struct {
	ID          string    `json:"id"`
	ShopID      string    `json:"shop_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ServicePrice is the shop-scoped price for applying a service to an item.
// Unique per (shop, service, item). Orders snapshot PriceCents at creation;
// later edits never touch existing orders.
type ServicePrice struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shop_id"`
	ServiceID  string    `json:"service_id"`
	ItemID     string    `json:"item_id"`
	PriceCents int64     `json:"price_cents"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

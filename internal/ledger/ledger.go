// Package ledger is the customer loyalty ledger. A customer's balance is
// always derived by summing non-expired entries; there is no cached balance
// column to drift out of sync.
package ledger

import (
	"context"
	"time"
)

type Reason string

const (
	ReasonEarned     Reason = "earned"
	ReasonRedeemed   Reason = "redeemed"
	ReasonExpired    Reason = "expired"
	ReasonAdjustment Reason = "adjustment"
)

// Entry is one signed movement of points. Earned entries may carry an expiry.
type Entry struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	Points      int        `json:"points"`
	Reason      Reason     `json:"reason"`
	Description string     `json:"description"`
	OrderID     *string    `json:"order_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Store interface {
	// Balance sums non-expired entries as of now.
	Balance(ctx context.Context, customerID string, now time.Time) (int, error)
	// Redeem appends a negative entry after verifying the balance covers it,
	// atomically. Returns InsufficientPoints without writing otherwise.
	Redeem(ctx context.Context, e *Entry) error
	History(ctx context.Context, customerID string) ([]Entry, error)
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pressline/dryclean-api/internal/apperr"
)

// Policy is the loyalty accrual configuration. EarnPercent is applied to the
// order total in whole currency units; ExpiryDays of 0 disables expiry.
type Policy struct {
	EarnPercent int
	ExpiryDays  int
}

type Service struct {
	Store  Store
	Policy Policy

	Now func() time.Time // test hook
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// PointsFor converts an order total in cents into earned points, rounding
// down: percent of the whole-currency-unit total.
func (s *Service) PointsFor(totalCents int64) int {
	return int(totalCents * int64(s.Policy.EarnPercent) / 100 / 100)
}

// AccrualEntry builds the earned entry for a completed order. The caller
// inserts it in the same transaction as the status change.
func (s *Service) AccrualEntry(customerID, orderID string, totalCents int64) *Entry {
	points := s.PointsFor(totalCents)
	if points <= 0 {
		return nil
	}
	e := &Entry{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Points:      points,
		Reason:      ReasonEarned,
		Description: "Points earned on order completion",
		OrderID:     &orderID,
		CreatedAt:   s.now(),
	}
	if s.Policy.ExpiryDays > 0 {
		exp := s.now().AddDate(0, 0, s.Policy.ExpiryDays)
		e.ExpiresAt = &exp
	}
	return e
}

func (s *Service) Balance(ctx context.Context, customerID string) (int, error) {
	return s.Store.Balance(ctx, customerID, s.now())
}

// Redeem deducts points from the customer's balance. The store performs the
// balance check and the entry insert atomically.
func (s *Service) Redeem(ctx context.Context, customerID string, points int, description string, orderID *string) (*Entry, error) {
	if points <= 0 {
		return nil, apperr.New(apperr.KindValidation, "points must be positive").
			WithField("points", "must be a positive integer")
	}
	if description == "" {
		description = "Points redeemed"
	}
	e := &Entry{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Points:      -points,
		Reason:      ReasonRedeemed,
		Description: description,
		OrderID:     orderID,
		CreatedAt:   s.now(),
	}
	if err := s.Store.Redeem(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) History(ctx context.Context, customerID string) ([]Entry, error) {
	return s.Store.History(ctx, customerID)
}

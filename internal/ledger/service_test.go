package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/dryclean-api/internal/apperr"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// memLedger enforces the same atomic balance check as the real store.
type memLedger struct {
	entries []Entry
}

func (m *memLedger) Balance(ctx context.Context, customerID string, now time.Time) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.CustomerID != customerID {
			continue
		}
		if e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
			continue
		}
		total += e.Points
	}
	return total, nil
}

func (m *memLedger) Redeem(ctx context.Context, e *Entry) error {
	bal, _ := m.Balance(ctx, e.CustomerID, testNow)
	if bal+e.Points < 0 {
		return apperr.Newf(apperr.KindInsufficientPoints,
			"balance %d does not cover %d points", bal, -e.Points)
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLedger) History(ctx context.Context, customerID string) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService(store Store) *Service {
	return &Service{
		Store:  store,
		Policy: Policy{EarnPercent: 5, ExpiryDays: 365},
		Now:    func() time.Time { return testNow },
	}
}

func TestPointsFor(t *testing.T) {
	svc := newTestService(nil)

	assert.Equal(t, 5, svc.PointsFor(10000))  // $100.00
	assert.Equal(t, 7, svc.PointsFor(15000))  // rounds down from 7.5
	assert.Equal(t, 0, svc.PointsFor(1999))   // below one point
	assert.Equal(t, 0, svc.PointsFor(0))
	assert.Equal(t, 50, svc.PointsFor(100000))
}

func TestAccrualEntry(t *testing.T) {
	svc := newTestService(nil)

	e := svc.AccrualEntry("cust-1", "order-1", 15000)
	require.NotNil(t, e)
	assert.Equal(t, 7, e.Points)
	assert.Equal(t, ReasonEarned, e.Reason)
	require.NotNil(t, e.OrderID)
	assert.Equal(t, "order-1", *e.OrderID)
	require.NotNil(t, e.ExpiresAt)
	assert.Equal(t, testNow.AddDate(0, 0, 365), *e.ExpiresAt)

	assert.Nil(t, svc.AccrualEntry("cust-1", "order-2", 500), "sub-point totals accrue nothing")
}

func TestAccrualEntryWithoutExpiry(t *testing.T) {
	svc := newTestService(nil)
	svc.Policy.ExpiryDays = 0

	e := svc.AccrualEntry("cust-1", "order-1", 10000)
	require.NotNil(t, e)
	assert.Nil(t, e.ExpiresAt)
}

func TestRedeem(t *testing.T) {
	store := &memLedger{}
	svc := newTestService(store)

	store.entries = append(store.entries, *svc.AccrualEntry("cust-1", "order-1", 100000)) // 50 points

	e, err := svc.Redeem(context.Background(), "cust-1", 30, "discount on next order", nil)
	require.NoError(t, err)
	assert.Equal(t, -30, e.Points)
	assert.Equal(t, ReasonRedeemed, e.Reason)

	bal, err := svc.Balance(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 20, bal)
}

func TestRedeemInsufficientLeavesBalanceUnchanged(t *testing.T) {
	store := &memLedger{}
	svc := newTestService(store)

	store.entries = append(store.entries, *svc.AccrualEntry("cust-1", "order-1", 20000)) // 10 points

	_, err := svc.Redeem(context.Background(), "cust-1", 11, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientPoints))

	bal, err := svc.Balance(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 10, bal)

	hist, err := svc.History(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Len(t, hist, 1, "no redemption entry written on failure")
}

func TestRedeemRejectsNonPositivePoints(t *testing.T) {
	svc := newTestService(&memLedger{})

	_, err := svc.Redeem(context.Background(), "cust-1", 0, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Redeem(context.Background(), "cust-1", -5, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestExpiredPointsDoNotCount(t *testing.T) {
	store := &memLedger{}
	svc := newTestService(store)

	expired := testNow.Add(-time.Hour)
	store.entries = append(store.entries,
		Entry{CustomerID: "cust-1", Points: 40, Reason: ReasonEarned, ExpiresAt: &expired},
		Entry{CustomerID: "cust-1", Points: 15, Reason: ReasonEarned},
	)

	bal, err := svc.Balance(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 15, bal)

	_, err = svc.Redeem(context.Background(), "cust-1", 20, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientPoints))
}

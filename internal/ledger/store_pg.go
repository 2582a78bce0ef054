package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
)

type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Balance(ctx context.Context, customerID string, now time.Time) (int, error) {
	var balance int
	err := s.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM loyalty_entries
		WHERE customer_id=$1 AND (expires_at IS NULL OR expires_at > $2)`,
		customerID, now).Scan(&balance)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStorageFailure, "balance", err)
	}
	return balance, nil
}

// Redeem locks the customer row so concurrent redemptions serialize, then
// checks the non-expired balance and appends the negative entry in the same
// transaction. A shortfall rolls everything back.
func (s *PgStore) Redeem(ctx context.Context, e *Entry) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "begin redeem", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, e.CustomerID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return apperr.New(apperr.KindNotFound, "customer not found")
		}
		return apperr.Wrap(apperr.KindStorageFailure, "lock customer", err)
	}

	var balance int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM loyalty_entries
		WHERE customer_id=$1 AND (expires_at IS NULL OR expires_at > $2)`,
		e.CustomerID, e.CreatedAt).Scan(&balance); err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "balance", err)
	}
	if balance+e.Points < 0 {
		return apperr.Newf(apperr.KindInsufficientPoints,
			"balance %d is less than %d requested", balance, -e.Points)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO loyalty_entries(id, customer_id, points, reason, description, order_id, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.CustomerID, e.Points, e.Reason, e.Description, e.OrderID, e.ExpiresAt, e.CreatedAt); err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "insert entry", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "commit redeem", err)
	}
	return nil
}

func (s *PgStore) History(ctx context.Context, customerID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, customer_id, points, reason, description, order_id, expires_at, created_at
		FROM loyalty_entries WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "history", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Points, &e.Reason, &e.Description,
			&e.OrderID, &e.ExpiresAt, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "scan entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

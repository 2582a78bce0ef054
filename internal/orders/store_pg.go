package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/ledger"
)

type PgStore struct{ DB *pgxpool.Pool }

// Create draws the next (shop, year) sequence and inserts the order and its
// items in one transaction. The counter row write serializes concurrent
// creations for the same shop; a rollback releases the drawn number so the
// sequence stays gapless.
func (s *PgStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	year := o.CreatedAt.Year()
	var seq int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO order_counters(shop_id, year, seq) VALUES ($1, $2, 1)
		ON CONFLICT (shop_id, year) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`, o.ShopID, year).Scan(&seq); err != nil {
		return storageErr("next sequence", err)
	}
	o.Number = FormatNumber(year, seq)

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, shop_id, customer_id, order_number, status, priority,
			pickup_at, delivery_at, special_instructions, total_cents, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
		o.ID, o.ShopID, o.CustomerID, o.Number, o.Status, o.Priority,
		o.PickupAt, o.DeliveryAt, o.SpecialInstructions, o.TotalCents, o.CreatedAt); err != nil {
		return storageErr("insert order", err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, service_price_id, service_id, item_id,
				quantity, unit_price_cents, total_cents, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, o.ID, it.ServicePriceID, it.ServiceID, it.ItemID,
			it.Quantity, it.UnitPriceCents, it.TotalCents, it.Notes); err != nil {
			return storageErr("insert item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit create", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, shop_id, customer_id, order_number, status, priority,
			pickup_at, delivery_at, special_instructions, total_cents,
			created_at, updated_at, completed_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ShopID, &o.CustomerID, &o.Number, &o.Status, &o.Priority,
			&o.PickupAt, &o.DeliveryAt, &o.SpecialInstructions, &o.TotalCents,
			&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	if err != nil {
		return nil, storageErr("get order", err)
	}

	items, err := s.items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	history, err := s.history(ctx, id)
	if err != nil {
		return nil, err
	}
	o.History = history
	return &o, nil
}

func (s *PgStore) items(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, service_price_id, service_id, item_id,
			quantity, unit_price_cents, total_cents, notes
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServicePriceID, &it.ServiceID, &it.ItemID,
			&it.Quantity, &it.UnitPriceCents, &it.TotalCents, &it.Notes); err != nil {
			return nil, storageErr("scan item", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PgStore) history(ctx context.Context, orderID string) ([]StatusChange, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, old_status, new_status, changed_by, note, changed_at
		FROM order_status_history WHERE order_id=$1 ORDER BY changed_at DESC`, orderID)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	defer rows.Close()

	var out []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.Old, &c.New, &c.ChangedBy, &c.Note, &c.ChangedAt); err != nil {
			return nil, storageErr("scan history", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateStatus CASes the status column. Zero rows affected on an existing
// order means someone else moved it first: ConcurrencyConflict, safe to retry.
func (s *PgStore) UpdateStatus(ctx context.Context, orderID string, from, to Status, change *StatusChange, accrual *ledger.Entry, completedAt *time.Time) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin status update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=$4, completed_at=COALESCE($5, completed_at)
		WHERE id=$1 AND status=$2`,
		orderID, from, to, change.ChangedAt, completedAt)
	if err != nil {
		return storageErr("update status", err)
	}
	if ct.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		if err != nil {
			return storageErr("check status", err)
		}
		return apperr.Newf(apperr.KindConcurrencyConflict,
			"order status changed concurrently (now %s)", current)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history(id, order_id, old_status, new_status, changed_by, note, changed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		change.ID, change.OrderID, change.Old, change.New, change.ChangedBy, change.Note, change.ChangedAt); err != nil {
		return storageErr("insert history", err)
	}

	if accrual != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO loyalty_entries(id, customer_id, points, reason, description, order_id, expires_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			accrual.ID, accrual.CustomerID, accrual.Points, accrual.Reason,
			accrual.Description, accrual.OrderID, accrual.ExpiresAt, accrual.CreatedAt); err != nil {
			return storageErr("insert accrual", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit status update", err)
	}
	return nil
}

func (s *PgStore) AddItem(ctx context.Context, orderID string, it *OrderItem) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin add item", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !status.Modifiable() {
		return apperr.Newf(apperr.KindInvalidTransition,
			"items cannot be changed once the order is %s", status)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, service_price_id, service_id, item_id,
			quantity, unit_price_cents, total_cents, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		it.ID, orderID, it.ServicePriceID, it.ServiceID, it.ItemID,
		it.Quantity, it.UnitPriceCents, it.TotalCents, it.Notes); err != nil {
		return storageErr("insert item", err)
	}
	if err := recomputeTotal(ctx, tx, orderID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit add item", err)
	}
	return nil
}

func (s *PgStore) RemoveItem(ctx context.Context, orderID, itemID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin remove item", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !status.Modifiable() {
		return apperr.Newf(apperr.KindInvalidTransition,
			"items cannot be changed once the order is %s", status)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id=$1`, orderID).Scan(&count); err != nil {
		return storageErr("count items", err)
	}
	if count <= 1 {
		return apperr.New(apperr.KindEmptyOrder, "an order must keep at least one item")
	}

	ct, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id=$1 AND order_id=$2`, itemID, orderID)
	if err != nil {
		return storageErr("delete item", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "order item not found")
	}
	if err := recomputeTotal(ctx, tx, orderID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit remove item", err)
	}
	return nil
}

func (s *PgStore) ListByShop(ctx context.Context, shopID string, status Status) ([]Order, error) {
	q := `SELECT id, shop_id, customer_id, order_number, status, priority,
			pickup_at, delivery_at, special_instructions, total_cents,
			created_at, updated_at, completed_at
		FROM orders WHERE shop_id=$1`
	args := []any{shopID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	return s.list(ctx, q, args...)
}

func (s *PgStore) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.list(ctx, `
		SELECT id, shop_id, customer_id, order_number, status, priority,
			pickup_at, delivery_at, special_instructions, total_cents,
			created_at, updated_at, completed_at
		FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (s *PgStore) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ShopID, &o.CustomerID, &o.Number, &o.Status, &o.Priority,
			&o.PickupAt, &o.DeliveryAt, &o.SpecialInstructions, &o.TotalCents,
			&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt); err != nil {
			return nil, storageErr("scan order", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func lockOrder(ctx context.Context, tx pgx.Tx, orderID string) (Status, error) {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.New(apperr.KindNotFound, "order not found")
	}
	if err != nil {
		return "", storageErr("lock order", err)
	}
	return Status(status), nil
}

func recomputeTotal(ctx context.Context, tx pgx.Tx, orderID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET
			total_cents = (SELECT COALESCE(SUM(total_cents), 0) FROM order_items WHERE order_id=$1),
			updated_at = now()
		WHERE id=$1`, orderID); err != nil {
		return storageErr("recompute total", err)
	}
	return nil
}

// storageErr classifies driver errors: serialization failures, deadlocks and
// unique violations are retryable ConcurrencyConflict, the rest is fatal.
func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return apperr.Wrap(apperr.KindConcurrencyConflict, op, err)
		}
	}
	return apperr.Wrap(apperr.KindStorageFailure, op, err)
}

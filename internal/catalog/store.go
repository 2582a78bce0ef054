package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
)

type Store struct{ DB *pgxpool.Pool }

func (s *Store) CreateService(ctx context.Context, sv *Service) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO services(id, shop_id, name, description, active)
		VALUES ($1,$2,$3,$4,TRUE)`, sv.ID, sv.ShopID, sv.Name, sv.Description)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "create service", err)
	}
	return nil
}

func (s *Store) CreateItem(ctx context.Context, it *Item) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO items(id, shop_id, name, description, active)
		VALUES ($1,$2,$3,$4,TRUE)`, it.ID, it.ShopID, it.Name, it.Description)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "create item", err)
	}
	return nil
}

// UpsertPrice creates or updates the price for a (service, item) pair. The
// (shop, service, item) unique constraint is the serialization point.
func (s *Store) UpsertPrice(ctx context.Context, sp *ServicePrice) error {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO service_prices(id, shop_id, service_id, item_id, price_cents, active)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		ON CONFLICT (shop_id, service_id, item_id)
		DO UPDATE SET price_cents = EXCLUDED.price_cents, active = TRUE, updated_at = now()
		RETURNING id`, sp.ID, sp.ShopID, sp.ServiceID, sp.ItemID, sp.PriceCents).Scan(&sp.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "upsert price", err)
	}
	return nil
}

func (s *Store) DeactivatePrice(ctx context.Context, shopID, priceID string) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE service_prices SET active=FALSE, updated_at=now()
		WHERE id=$1 AND shop_id=$2`, priceID, shopID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "deactivate price", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "service price not found")
	}
	return nil
}

// PriceFor returns the active price for the pair, or PricingNotFound.
func (s *Store) PriceFor(ctx context.Context, shopID, serviceID, itemID string) (*ServicePrice, error) {
	var sp ServicePrice
	err := s.DB.QueryRow(ctx, `
		SELECT id, shop_id, service_id, item_id, price_cents, active, created_at, updated_at
		FROM service_prices
		WHERE shop_id=$1 AND service_id=$2 AND item_id=$3 AND active`,
		shopID, serviceID, itemID).
		Scan(&sp.ID, &sp.ShopID, &sp.ServiceID, &sp.ItemID, &sp.PriceCents, &sp.Active, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindPricingNotFound,
			"no active price for service %s on item %s", serviceID, itemID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "price lookup", err)
	}
	return &sp, nil
}

func (s *Store) ListServices(ctx context.Context, shopID string) ([]Service, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, shop_id, name, description, active, created_at
		FROM services WHERE shop_id=$1 ORDER BY name`, shopID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "list services", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var sv Service
		if err := rows.Scan(&sv.ID, &sv.ShopID, &sv.Name, &sv.Description, &sv.Active, &sv.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "scan service", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *Store) ListItems(ctx context.Context, shopID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, shop_id, name, description, active, created_at
		FROM items WHERE shop_id=$1 ORDER BY name`, shopID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "list items", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ShopID, &it.Name, &it.Description, &it.Active, &it.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "scan item", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) ListPrices(ctx context.Context, shopID string) ([]ServicePrice, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, shop_id, service_id, item_id, price_cents, active, created_at, updated_at
		FROM service_prices WHERE shop_id=$1 ORDER BY created_at`, shopID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "list prices", err)
	}
	defer rows.Close()

	var out []ServicePrice
	for rows.Next() {
		var sp ServicePrice
		if err := rows.Scan(&sp.ID, &sp.ShopID, &sp.ServiceID, &sp.ItemID, &sp.PriceCents, &sp.Active, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "scan price", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

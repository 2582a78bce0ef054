package shops

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
)

type Shop struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Staff records a user working at a shop together with the order-related
// capabilities granted to them.
type Staff struct {
	ID                   string    `json:"id"`
	ShopID               string    `json:"shop_id"`
	UserID               string    `json:"user_id"`
	Position             string    `json:"position"`
	Active               bool      `json:"active"`
	CanTakeOrders        bool      `json:"can_take_orders"`
	CanUpdateOrders      bool      `json:"can_update_orders"`
	CanRegisterCustomers bool      `json:"can_register_customers"`
	CreatedAt            time.Time `json:"created_at"`
}

type Store struct{ DB *pgxpool.Pool }

func (s *Store) Create(ctx context.Context, sh *Shop) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO shops(id, owner_id, name, address, phone, active)
		VALUES ($1,$2,$3,$4,$5,TRUE)`,
		sh.ID, sh.OwnerID, sh.Name, sh.Address, sh.Phone)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "create shop", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Shop, error) {
	var sh Shop
	err := s.DB.QueryRow(ctx, `
		SELECT id, owner_id, name, address, phone, active, created_at
		FROM shops WHERE id=$1`, id).
		Scan(&sh.ID, &sh.OwnerID, &sh.Name, &sh.Address, &sh.Phone, &sh.Active, &sh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "shop not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "get shop", err)
	}
	return &sh, nil
}

func (s *Store) AddStaff(ctx context.Context, st *Staff) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO shop_staff(id, shop_id, user_id, position, active,
			can_take_orders, can_update_orders, can_register_customers)
		VALUES ($1,$2,$3,$4,TRUE,$5,$6,$7)`,
		st.ID, st.ShopID, st.UserID, st.Position,
		st.CanTakeOrders, st.CanUpdateOrders, st.CanRegisterCustomers)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "add staff", err)
	}
	return nil
}

func (s *Store) DeactivateStaff(ctx context.Context, shopID, staffID string) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE shop_staff SET active=FALSE WHERE id=$1 AND shop_id=$2`, staffID, shopID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "deactivate staff", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "staff member not found")
	}
	return nil
}

func (s *Store) ListStaff(ctx context.Context, shopID string) ([]Staff, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, shop_id, user_id, position, active,
			can_take_orders, can_update_orders, can_register_customers, created_at
		FROM shop_staff WHERE shop_id=$1 ORDER BY created_at`, shopID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "list staff", err)
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var st Staff
		if err := rows.Scan(&st.ID, &st.ShopID, &st.UserID, &st.Position, &st.Active,
			&st.CanTakeOrders, &st.CanUpdateOrders, &st.CanRegisterCustomers, &st.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "scan staff", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

package access

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
)

// Store resolves actors from the users / shops / shop_staff tables.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) Resolve(ctx context.Context, userID string) (Actor, error) {
	var role string
	err := s.DB.QueryRow(ctx, `SELECT role FROM users WHERE id=$1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return Actor{}, apperr.Wrap(apperr.KindStorageFailure, "resolve user", err)
	}

	switch Role(role) {
	case RoleShopOwner:
		var shopID string
		err := s.DB.QueryRow(ctx, `SELECT id FROM shops WHERE owner_id=$1 AND active`, userID).Scan(&shopID)
		if errors.Is(err, pgx.ErrNoRows) {
			// owner account without a shop yet
			return NewActor(userID, RoleShopOwner, ""), nil
		}
		if err != nil {
			return Actor{}, apperr.Wrap(apperr.KindStorageFailure, "resolve shop", err)
		}
		return NewActor(userID, RoleShopOwner, shopID), nil

	case RoleStaff:
		var shopID string
		var take, update, register bool
		err := s.DB.QueryRow(ctx, `
			SELECT shop_id, can_take_orders, can_update_orders, can_register_customers
			FROM shop_staff WHERE user_id=$1 AND active`, userID).
			Scan(&shopID, &take, &update, &register)
		if errors.Is(err, pgx.ErrNoRows) {
			return NewActor(userID, RoleStaff, ""), nil
		}
		if err != nil {
			return Actor{}, apperr.Wrap(apperr.KindStorageFailure, "resolve staff", err)
		}
		var caps []Capability
		if take {
			caps = append(caps, CapTakeOrders)
		}
		if update {
			caps = append(caps, CapUpdateOrders)
		}
		if register {
			caps = append(caps, CapRegisterCustomers)
		}
		return NewActor(userID, RoleStaff, shopID, caps...), nil

	case RoleAdmin:
		return NewActor(userID, RoleAdmin, ""), nil

	default:
		return NewActor(userID, RoleCustomer, ""), nil
	}
}

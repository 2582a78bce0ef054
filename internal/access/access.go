// Package access resolves the calling user into a typed role and capability
// set. The order engine consults it before every mutating operation.
package access

import "context"

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleStaff     Role = "staff"
	RoleShopOwner Role = "shop_owner"
	RoleAdmin     Role = "admin"
)

type Capability string

const (
	CapTakeOrders        Capability = "take_orders"
	CapUpdateOrders      Capability = "update_orders"
	CapRegisterCustomers Capability = "register_customers"
)

// Actor is the resolved identity of an authenticated caller. ShopID is the
// shop the actor owns or works at; empty for customers.
type Actor struct {
	UserID string
	Role   Role
	ShopID string
	caps   map[Capability]bool
}

func NewActor(userID string, role Role, shopID string, caps ...Capability) Actor {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return Actor{UserID: userID, Role: role, ShopID: shopID, caps: m}
}

// Can reports whether the actor holds the capability. Shop owners and admins
// implicitly hold every capability.
func (a Actor) Can(c Capability) bool {
	if a.Role == RoleShopOwner || a.Role == RoleAdmin {
		return true
	}
	return a.caps[c]
}

// WorksAt reports whether the actor owns or staffs the given shop.
func (a Actor) WorksAt(shopID string) bool {
	return a.ShopID != "" && a.ShopID == shopID
}

type Resolver interface {
	Resolve(ctx context.Context, userID string) (Actor, error)
}

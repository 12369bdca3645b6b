package auth

import (
	"slices"

	"github.com/storeframe/orderd/internal/domain/user"
)

// Identity is the authenticated caller as established by the gateway. The
// order engine trusts the user id as given and performs no checks itself.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return slices.Contains(id.Roles, user.RoleAdmin)
}

// CanAccessOrder is the single ownership predicate applied by the gateway
// before delegating order reads and mutations: an order is visible and
// modifiable by its owner or by an admin.
func CanAccessOrder(actor Identity, ownerID string) bool {
	return actor.IsAdmin() || actor.UserID == ownerID
}

package middleware

// identity.go defines the authenticated identity that JWTAuth attaches to
// the request and the accessors handlers use to read it.  Handlers receive
// the identity as a value from these helpers instead of poking at raw
// context keys.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookletify-api/internal/model"
)

const (
	identityKey = "identity"
	userKey     = "auth_user"
)

// Identity is who the request is acting as.
type Identity struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// setIdentity stores the identity and the loaded user on the context.
func setIdentity(c echo.Context, u model.User) {
	c.Set(identityKey, Identity{UserID: u.ID, Role: u.Role})
	c.Set(userKey, u)
}

// IdentityFrom returns the identity attached by JWTAuth.  ok is false on
// routes that are not behind JWTAuth.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// CurrentUser returns the user record JWTAuth loaded for this request.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

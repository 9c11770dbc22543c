package middleware

import "github.com/labstack/echo/v4"

const identityKey = "identity"

// Identity is the authenticated caller attached to a request by JWTAuth.
type Identity struct {
	UserID string
	Email  string
}

// IdentityFrom returns the identity stored by JWTAuth.  ok is false on
// routes that are not guarded.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

func setIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }

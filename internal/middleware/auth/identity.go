package auth

import "github.com/labstack/echo/v4"

const identityKey = "identity"

// Identity is the trusted request-scoped principal, populated only from a
// fully verified token. Client-supplied fields never reach it.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func SetIdentity(c echo.Context, id *Identity) {
	c.Set(identityKey, id)
}

func IdentityFrom(c echo.Context) *Identity {
	if v, ok := c.Get(identityKey).(*Identity); ok {
		return v
	}
	return nil
}

package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

var ErrForbidden = errors.New("forbidden")

// UniformForbiddenMessage deliberately reveals nothing about ownership.
const UniformForbiddenMessage = "Access denied. Insufficient permissions."

// RequireRole allows when the identity exists and its role is in the set.
func RequireRole(identity *Identity, roles ...string) error {
	if identity == nil || identity.ID == 0 {
		return ErrForbidden
	}
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// RequireOwnerOrAdmin allows the recorded owner of a resource, or any admin.
func RequireOwnerOrAdmin(identity *Identity, ownerID uint) error {
	if identity == nil || identity.ID == 0 {
		return ErrForbidden
	}
	if identity.Role == models.RoleAdmin {
		return nil
	}
	if identity.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// RequireRoles is the middleware form of RequireRole for route groups;
// mount it after RequireAuth.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := RequireRole(IdentityFrom(c), roles...); err != nil {
				return echo.NewHTTPError(http.StatusForbidden, UniformForbiddenMessage)
			}
			return next(c)
		}
	}
}

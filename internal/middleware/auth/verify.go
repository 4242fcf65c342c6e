package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/WanDrewBerry/mall-map-backend/internal/blocklist"
	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
)

var (
	ErrMissingToken     = errors.New("missing or malformed authorization header")
	ErrBlocklistedToken = errors.New("token has been revoked")
	ErrMalformedToken   = errors.New("token structure is invalid")
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidToken     = errors.New("token invalid")

	// ErrRegistryUnavailable means the revocation registry could not be
	// consulted. It is an infrastructure failure, not a verdict on the
	// token, and maps to a 500 rather than the uniform 401.
	ErrRegistryUnavailable = errors.New("revocation registry unavailable")
)

// UniformAuthMessage is the only thing a client ever learns about why its
// token was rejected. The specific kind stays in the logs.
const UniformAuthMessage = "Invalid or expired session. Please log in again."

const bearerPrefix = "Bearer "

// Verifier validates presented access tokens. The blocklist is consulted
// before any decoding, so revoked-but-well-formed tokens die on the same
// cheap path as garbage.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	Blocklist blocklist.Blocklist
}

// ExtractBearer pulls the raw token out of an Authorization header value.
func ExtractBearer(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Verify runs the ordered validation pipeline and maps the claims onto a
// trusted Identity. Each step short-circuits.
func (v *Verifier) Verify(ctx context.Context, header string) (*Identity, error) {
	raw := ExtractBearer(header)
	if raw == "" {
		return nil, ErrMissingToken
	}

	blocked, err := v.Blocklist.Contains(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if blocked {
		return nil, ErrBlocklistedToken
	}

	// structural decode without signature verification
	unverified := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, unverified); err != nil {
		return nil, ErrMalformedToken
	}

	// audience pre-check before the expensive full verification
	aud, err := unverified.GetAudience()
	if err != nil || !containsAudience(aud, v.Audience) {
		return nil, ErrAudienceMismatch
	}

	claims, err := tokens.AccessClaimsFromToken(raw, v.Secret, v.Issuer, v.Audience)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// self-revoke so a replay of this exact token takes the
			// blocklist path next time
			if addErr := v.Blocklist.Add(ctx, raw); addErr != nil {
				logging.FromContext(ctx).Error("blocklist add failed", "error", addErr)
			}
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if identity.ID == 0 {
		return nil, ErrInvalidToken
	}
	return identity, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

// RequireAuth gates a route group on a verified access token. Every failure
// is answered with the same 401 body.
func (v *Verifier) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		identity, err := v.Verify(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, ErrRegistryUnavailable) {
				logging.FromContext(ctx).Error("auth_registry_unavailable", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Service temporarily unavailable.")
			}
			logging.FromContext(ctx).Warn("auth_rejected", "kind", err.Error())
			return echo.NewHTTPError(http.StatusUnauthorized, UniformAuthMessage)
		}
		SetIdentity(c, identity)
		return next(c)
	}
}

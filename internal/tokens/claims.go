package tokens

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of a short-lived bearer token. Issuer and
// audience live in the registered claims only, never as custom fields.
type AccessClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries the subject id and nothing else. The role is
// re-fetched at exchange time, never trusted from a week-old token.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

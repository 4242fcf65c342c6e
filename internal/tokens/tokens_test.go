package tokens

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

func testIssuer() *Issuer {
	return &Issuer{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		IssuerName:    "mall-map",
		Audience:      "mall-map-clients",
		AccessTTL:     15 * time.Minute,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := testIssuer()
	user := &models.User{Username: "alice", Role: models.RoleAdmin}
	user.ID = 42

	raw, exp, err := iss.AccessToken(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(iss.AccessTTL), exp, 5*time.Second)

	claims, err := AccessClaimsFromToken(raw, iss.AccessSecret, iss.IssuerName, iss.Audience)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestAccessTokenRejectedOnMismatch(t *testing.T) {
	iss := testIssuer()
	user := &models.User{Username: "alice", Role: models.RoleUser}
	user.ID = 1

	raw, _, err := iss.AccessToken(user)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(raw, []byte("wrong-secret"), iss.IssuerName, iss.Audience)
	require.Error(t, err)

	_, err = AccessClaimsFromToken(raw, iss.AccessSecret, "someone-else", iss.Audience)
	require.Error(t, err)

	_, err = AccessClaimsFromToken(raw, iss.AccessSecret, iss.IssuerName, "other-clients")
	require.Error(t, err)
}

func TestAccessTokenExpiry(t *testing.T) {
	iss := testIssuer()
	iss.AccessTTL = -time.Minute
	user := &models.User{Username: "alice"}
	user.ID = 1

	raw, _, err := iss.AccessToken(user)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(raw, iss.AccessSecret, iss.IssuerName, iss.Audience)
	require.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	iss := testIssuer()

	raw, exp, err := iss.RefreshToken(7)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(RefreshTTL), exp, 5*time.Second)

	claims, err := RefreshClaimsFromToken(raw, iss.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	// a second token from the same subject gets a distinct jti
	raw2, _, err := iss.RefreshToken(7)
	require.NoError(t, err)
	claims2, err := RefreshClaimsFromToken(raw2, iss.RefreshSecret)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, claims2.ID)
}

func TestRefreshCookieAttributes(t *testing.T) {
	exp := time.Now().Add(RefreshTTL)
	c := RefreshCookie("opaque", exp, true)

	assert.Equal(t, RefreshCookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Greater(t, c.MaxAge, 0)

	del := DeleteRefreshCookie(false)
	assert.Equal(t, RefreshCookieName, del.Name)
	assert.Equal(t, -1, del.MaxAge)
	assert.False(t, del.Secure)
}

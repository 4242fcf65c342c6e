package tokens

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

const RefreshTTL = 7 * 24 * time.Hour

// Issuer mints access and refresh tokens. Access tokens carry denormalized
// identity claims; refresh tokens carry only the subject id and a jti.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	IssuerName    string
	Audience      string
	AccessTTL     time.Duration
}

func (i *Issuer) AccessToken(u *models.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(i.AccessTTL)
	claims := AccessClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			Issuer:    i.IssuerName,
			Audience:  jwt.ClaimStrings{i.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i *Issuer) RefreshToken(userID uint) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(RefreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

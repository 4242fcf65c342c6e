package repo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/models"
	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
)

var ErrRefreshInvalid = errors.New("refresh token expired, revoked or unknown")

// StoreRefresh persists the sha256 digest of a freshly issued refresh token
// so logout and rotation can actually invalidate it.
func (r *GormRepo) StoreRefresh(ctx context.Context, rawToken string, refreshSecret []byte) error {
	claims, err := tokens.RefreshClaimsFromToken(rawToken, refreshSecret)
	if err != nil {
		return err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return err
	}

	record := models.RefreshToken{
		Token:     tokens.Sha256Hex(rawToken),
		JTI:       claims.ID,
		UserID:    uint(userID),
		ExpiresAt: claims.ExpiresAt.Time.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&record).Error
}

func (r *GormRepo) RevokeRefreshByToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) refreshUsable(db *gorm.DB, jti string) error {
	var record models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRefreshInvalid
		}
		return err
	}
	if record.Revoked || record.ExpiresAt < time.Now().Unix() {
		return ErrRefreshInvalid
	}
	return nil
}

// RotateRefresh revokes the old entry and stores the new token in one
// transaction, so a raced double-exchange cannot mint two live refresh
// tokens from the same parent.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldJTI, newRawToken string, refreshSecret []byte) error {
	claims, err := tokens.RefreshClaimsFromToken(newRawToken, refreshSecret)
	if err != nil {
		return err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.refreshUsable(tx, oldJTI); err != nil {
			return err
		}
		if err := tx.Model(&models.RefreshToken{}).
			Where("jti = ?", oldJTI).
			Update("revoked", true).Error; err != nil {
			return err
		}
		record := models.RefreshToken{
			Token:     tokens.Sha256Hex(newRawToken),
			JTI:       claims.ID,
			UserID:    uint(userID),
			ExpiresAt: claims.ExpiresAt.Time.Unix(),
		}
		return tx.Create(&record).Error
	})
}

// RefreshUsable reports whether the stored entry for jti is live.
func (r *GormRepo) RefreshUsable(ctx context.Context, jti string) error {
	return r.refreshUsable(r.DB.WithContext(ctx), jti)
}

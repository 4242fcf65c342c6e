package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/hash"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

var (
	ErrDuplicateIdentity = errors.New("username or email already registered")
	ErrNotFound          = errors.New("account not found")
	ErrBadCredential     = errors.New("invalid credential")
)

// CreateUser registers an account. The email uniqueness check is
// case-insensitive; the username check is exact.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.TrimSpace(u.Email)

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", u.Email).
		Or("username = ?", u.Username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateIdentity
	}

	return r.DB.WithContext(ctx).Create(u).Error
}

// VerifyCredentials authenticates a login attempt. ErrNotFound and
// ErrBadCredential stay distinct so logs can tell them apart; callers
// collapse both into one client-facing message.
func (r *GormRepo) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, strings.TrimSpace(password)) {
		return nil, ErrBadCredential
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, id uint) error {
	now := time.Now()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", &now).Error
}

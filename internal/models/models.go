package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/hash"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string     `gorm:"uniqueIndex;not null"     json:"email"`
	Password     string     `gorm:"-"                        json:"-"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	Role         string     `gorm:"not null;default:user"    json:"role"`
	Status       string     `gorm:"not null;default:active"  json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeSave re-hashes the secret whenever the plaintext field is set, and
// only then. Unrelated updates leave the stored hash untouched.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	h, err := hash.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = h
	u.Password = ""
	return nil
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

type Mall struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Address     string    `gorm:"not null"                 json:"address"`
	Description string    `json:"description"`
	Latitude    float64   `gorm:"not null"                 json:"lat"`
	Longitude   float64   `gorm:"not null"                 json:"lng"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	OpenTime    string    `json:"open_time,omitempty"`
	CloseTime   string    `json:"close_time,omitempty"`
	CreatedBy   uint      `gorm:"index"                    json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Stores  []Store     `gorm:"constraint:OnDelete:CASCADE" json:"stores,omitempty"`
	Reviews []Review    `gorm:"constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	Images  []MallImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

type Store struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MallID   uint   `gorm:"index;not null"           json:"mall_id"`
	Name     string `gorm:"not null"                 json:"name"`
	Category string `json:"category"`
	Floor    int    `json:"floor"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MallID    uint      `gorm:"index;not null"           json:"mall_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MallImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MallID    uint      `gorm:"index;not null"           json:"mall_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	FileName  string    `gorm:"not null"                 json:"file_name"`
	URL       string    `gorm:"not null"                 json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ID     uint `gorm:"primaryKey;autoIncrement"                  json:"id"`
	UserID uint `gorm:"uniqueIndex:idx_fav_user_mall;not null"    json:"user_id"`
	MallID uint `gorm:"uniqueIndex:idx_fav_user_mall;not null"    json:"mall_id"`
}

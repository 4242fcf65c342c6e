package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

type Config struct {
	Port        int
	Env         string
	LogLevel    string
	DatabaseURL string

	JWTSecret     []byte
	RefreshSecret []byte
	SessionSecret []byte

	TokenIssuer    string
	TokenAudience  string
	AccessTokenTTL time.Duration

	ClientURL string
	RedisAddr string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	UploadDir string
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using system environment: %v", err)
	}

	cfg := &Config{
		Port:        EnvIntDefault("PORT", 8080),
		Env:         EnvDefault("APP_ENV", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),

		TokenIssuer:    EnvDefault("TOKEN_ISSUER", "mall-map"),
		TokenAudience:  EnvDefault("TOKEN_AUDIENCE", "mall-map-clients"),
		AccessTokenTTL: EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),

		ClientURL: os.Getenv("CLIENT_URL"),
		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_ADDRESS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		UploadDir: EnvDefault("UPLOAD_DIR", "uploads"),
	}

	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	MustNonEmptyBytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")
	MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	return cfg
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Mall{},
		&models.Store{},
		&models.Review{},
		&models.MallImage{},
		&models.Favorite{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

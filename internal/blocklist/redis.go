package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
)

// Redis is the production backend: entries expire with the token TTL so
// memory cannot grow unboundedly, and revocations survive process restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) key(token string) string {
	// digest, not the raw token: keys show up in SCAN and monitoring
	return fmt.Sprintf("blocklist:token:%s", tokens.Sha256Hex(token))
}

func (r *Redis) Add(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key(token), "1", r.ttl).Err()
}

func (r *Redis) Contains(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Package blocklist holds revoked access tokens. Membership is checked
// before any token decoding, so a revoked-but-valid token is rejected on
// the same path as a forged one.
package blocklist

import (
	"context"
	"sync"
	"time"
)

type Blocklist interface {
	// Add revokes a token. Adding a token twice is a no-op.
	Add(ctx context.Context, token string) error
	// Contains reports whether a token has been revoked.
	Contains(ctx context.Context, token string) (bool, error)
}

// Memory is the in-process backend. Entries carry a TTL aligned with the
// access-token lifetime and are expunged lazily, so the set stays bounded
// by the number of tokens revoked within one TTL window.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

func (m *Memory) Add(_ context.Context, token string) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.entries {
		if now.After(exp) {
			delete(m.entries, k)
		}
	}
	m.entries[token] = now.Add(m.ttl)
	return nil
}

func (m *Memory) Contains(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	exp, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return time.Now().Before(exp), nil
}

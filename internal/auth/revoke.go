package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers signed-out token ids until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker shares revocations between server instances.
type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NewRevoker connects to Redis when url is set and falls back to an in-process
// revoker otherwise.
func NewRevoker(ctx context.Context, url string) (Revoker, error) {
	if url == "" {
		return NewMemoryRevoker(), nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisRevoker(client), nil
}

// MemoryRevoker keeps revocations in process, for single-instance and CLI use.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	if until.After(m.now()) {
		m.revoked[tokenID] = until
	}
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	return ok && until.After(m.now()), nil
}

func (m *MemoryRevoker) prune() {
	now := m.now()
	for id, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, id)
		}
	}
}

package api

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper stores create idempotency keys in Redis so all instances see
// the same retry history.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(k string) string {
	return "idempotency:" + k
}

// Lookup returns the task id recorded for the key, if present.
func (r *RedisDeduper) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Remember records key -> taskID unless the key is already taken; the first
// writer wins so concurrent retries settle on one task.
func (r *RedisDeduper) Remember(ctx context.Context, key, taskID string) error {
	return r.client.SetNX(ctx, r.key(key), taskID, r.ttl).Err()
}

// MemoryDeduper is the single-instance fallback used when no Redis is
// configured.
type MemoryDeduper struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryDedupEntry
}

type memoryDedupEntry struct {
	taskID  string
	expires time.Time
}

// NewMemoryDeduper creates an in-process deduper with the given TTL.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		ttl:     ttl,
		entries: make(map[string]memoryDedupEntry),
	}
}

func (m *MemoryDeduper) Lookup(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(e.expires) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.taskID, true, nil
}

func (m *MemoryDeduper) Remember(ctx context.Context, key, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && time.Now().Before(e.expires) {
		return nil
	}
	m.entries[key] = memoryDedupEntry{taskID: taskID, expires: time.Now().Add(m.ttl)}
	return nil
}

// Package cache provides the dual-strategy cache that keeps credit reads
// from hitting the billing provider on every turn. It also provides key
// helpers for bearer-token and due-vocab entries, which nothing caches
// today. Redis is primary; an in-memory map is the fallback when Redis is
// unreachable at startup.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is the interface every caller depends on; callers never know
// whether they're talking to Redis or the in-memory fallback.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryCache is the in-process fallback. Session goroutines hit it
// concurrently, so unlike a single-request-scoped cache it needs its own
// lock.
type MemoryCache struct {
	mu    sync.Mutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	Value      []byte
	Expiration time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry)}
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	entry, exists := m.store[key]
	if exists && time.Now().After(entry.Expiration) {
		delete(m.store, key)
		exists = false
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("key not found: %s", key)
	}
	return json.Unmarshal(entry.Value, dest)
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.store[key] = cacheEntry{Value: data, Expiration: time.Now().Add(expiration)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.store, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.store = make(map[string]cacheEntry)
	m.mu.Unlock()
	return nil
}

// RedisCache is the primary cache, backed by a shared *redis.Client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found: %s", key)
		}
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// AuthCacheKey keys the cache entry backing a validated bearer token.
func AuthCacheKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "auth:" + hex.EncodeToString(hash[:])[:24]
}

// CreditCacheKey keys a user's cached credit snapshot.
func CreditCacheKey(userID string) string {
	return "billing:" + userID
}

// DueVocabCacheKey keys a short-lived memoization of a chatmate's due-vocab read.
func DueVocabCacheKey(chatmateID string) string {
	return "due_vocab:" + chatmateID
}

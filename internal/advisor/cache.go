package advisor

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
)

// Cache stores completions by prompt key. A cached answer makes repeated identical
// prompts return identical decisions.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CacheOptions configures NewCache.
type CacheOptions struct {
	Type string `mapstructure:"type"` // "memory", "redis" or "none"

	// Size bounds the in-memory cache.
	Size int `mapstructure:"size"`

	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewCache builds a cache from loosely typed options. A nil or empty map disables caching.
func NewCache(raw map[string]any) (Cache, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var opts CacheOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for cache options: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode cache options: %w", err)
	}

	switch opts.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(opts.Size), nil
	case "redis":
		if opts.Addr == "" {
			return nil, fmt.Errorf("redis cache requires addr")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		return NewRedisCache(client, opts.Prefix, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache type '%s'", opts.Type)
	}
}

// Key derives the cache key of a prompt.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

type memoryEntry struct {
	key   string
	value string
}

// MemoryCache is a size bounded LRU cache.
type MemoryCache struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
}

func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return "", false, nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*memoryEntry).value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*memoryEntry).value = value
		c.order.MoveToFront(el)
		return nil
	}
	c.items[key] = c.order.PushFront(&memoryEntry{key: key, value: value})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// RedisCache stores completions in redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "triage:completion:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

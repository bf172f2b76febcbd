package corroborate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/brandlens/pkg/logging"
)

// Cache stores judgments keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (*Judgment, bool, error)
	Set(ctx context.Context, key string, j *Judgment, ttl time.Duration) error
}

// CacheKey identifies a judgment by provider, target, and text.
func CacheKey(provider, target, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, target, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "brandlens:judgment:" + hex.EncodeToString(h.Sum(nil))
}

// RedisCache keeps judgments in Redis with a TTL.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached judgment, or false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*Judgment, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var j Judgment
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, false, fmt.Errorf("decode cached judgment: %w", err)
	}
	return &j, true, nil
}

// Set stores j under key. A zero ttl keeps the entry until evicted.
func (c *RedisCache) Set(ctx context.Context, key string, j *Judgment, ttl time.Duration) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode judgment: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CachedProvider consults a Cache before calling the wrapped Provider.
// Cache failures are logged and never fail the judgment.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewCachedProvider wraps next with cache.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, logger logging.Logger) *CachedProvider {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// Judge returns a cached judgment when present, otherwise asks the wrapped
// provider and caches the answer.
func (p *CachedProvider) Judge(ctx context.Context, text, target string) (*Judgment, error) {
	key := CacheKey(p.next.Name(), target, text)

	if j, ok, err := p.cache.Get(ctx, key); err != nil {
		p.logger.Warn("judgment cache read failed", logging.Err(err))
	} else if ok {
		return j, nil
	}

	j, err := p.next.Judge(ctx, text, target)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, j, p.ttl); err != nil {
		p.logger.Warn("judgment cache write failed", logging.Err(err))
	}
	return j, nil
}

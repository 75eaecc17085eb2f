package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-management-api/internal/domain/user"
)

// UsersListKey is the Redis key holding the cached GET /users result.
const UsersListKey = "users:all"

// UsersGenerationKey counts list invalidations. A list read from the database
// is only stored while the generation it started under is still current.
const UsersGenerationKey = "users:all:gen"

// UserListCache defines the interface for caching the full user list.
type UserListCache interface {
	// Get returns the cached list.
	// Returns nil if nothing is cached; an empty cached list is returned as an empty slice.
	Get(ctx context.Context) ([]domain.User, error)

	// Generation returns the current invalidation generation (0 when never invalidated).
	Generation(ctx context.Context) (int64, error)

	// Set stores the list with the configured TTL if gen is still the current generation.
	// It reports whether the list was stored.
	Set(ctx context.Context, gen int64, users []domain.User) (bool, error)

	// Invalidate drops the cached list and advances the generation.
	Invalidate(ctx context.Context) error
}

// setIfGeneration writes KEYS[1] only when KEYS[2] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisUserCache implements UserListCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user list cache.
func NewRedisUserCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get retrieves the user list from Redis.
func (c *RedisUserCache) Get(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, UsersListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("key", UsersListKey))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", UsersListKey), zap.Error(err))
		return nil, err
	}

	users := []domain.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		c.log.Error("failed to unmarshal cached users", zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int("count", len(users)))
	return users, nil
}

// Generation reads the invalidation counter.
func (c *RedisUserCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, UsersGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.log.Error("failed to read cache generation", zap.String("key", UsersGenerationKey), zap.Error(err))
		return 0, err
	}
	return gen, nil
}

// Set stores the user list in Redis with TTL, unless the list was invalidated after gen was read.
func (c *RedisUserCache) Set(ctx context.Context, gen int64, users []domain.User) (bool, error) {
	if users == nil {
		users = []domain.User{}
	}

	data, err := json.Marshal(users)
	if err != nil {
		c.log.Error("failed to marshal users for cache", zap.Error(err))
		return false, err
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{UsersListKey, UsersGenerationKey},
		gen, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.log.Error("failed to set cache", zap.String("key", UsersListKey), zap.Error(err))
		return false, err
	}

	if stored == 0 {
		c.log.Debug("skipped caching stale users", zap.Int64("generation", gen))
		return false, nil
	}

	c.log.Debug("cached users", zap.Int("count", len(users)), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Invalidate removes the cached list from Redis and bumps the generation.
func (c *RedisUserCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, UsersGenerationKey)
		pipe.Del(ctx, UsersListKey)
		return nil
	})
	if err != nil {
		c.log.Error("failed to invalidate cache", zap.String("key", UsersListKey), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated cache", zap.String("key", UsersListKey))
	return nil
}

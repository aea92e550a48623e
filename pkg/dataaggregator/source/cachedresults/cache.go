package cachedresults

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache keeps raw upstream responses in redis. A Cache without a client is a
// no-op so sources can use it unconditionally.
type Cache struct {
	Prefix     string
	Expiration time.Duration

	cache *cache.Cache[string]
}

func New(client *redis.Client, prefix string, expiration time.Duration) *Cache {
	c := &Cache{
		Prefix:     prefix,
		Expiration: expiration,
	}

	if client != nil && expiration > 0 {
		redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))
		c.cache = cache.New[string](redisStore)
	}

	return c
}

func (c *Cache) Enabled() bool {
	return c != nil && c.cache != nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	value, err := c.cache.Get(ctx, c.Prefix+key)
	if err != nil {
		return "", false
	}

	return value, true
}

func (c *Cache) Set(ctx context.Context, key string, value string) {
	if !c.Enabled() {
		return
	}

	if err := c.cache.Set(ctx, c.Prefix+key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to store cached result")
	}
}

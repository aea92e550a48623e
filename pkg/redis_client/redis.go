package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/config"
)

var Client *redis.Client
var QueueConnection rmq.Connection

// Connect is a no-op when no redis address is configured, callers check
// Enabled before relying on Client
func Connect(cfg config.RedisConfig) error {
	if !cfg.Enabled() {
		log.Info().Msg("Redis not configured, running standalone")
		return nil
	}

	options := &redis.Options{
		Addr: cfg.Address,
		DB:   cfg.Database,
	}
	if cfg.Password != "" {
		options.Password = cfg.Password
	}

	Client = redis.NewClient(options)

	statusCmd := Client.Ping(context.Background())
	err := statusCmd.Err()
	if err != nil {
		return err
	}

	QueueConnection, err = rmq.OpenConnectionWithRedisClient("departureboard", Client, nil)
	if err != nil {
		return err
	}

	log.Info().Str("address", cfg.Address).Int("database", cfg.Database).Msg("Connected to Redis")

	return nil
}

func Enabled() bool {
	return Client != nil
}

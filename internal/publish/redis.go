package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// RedisConfig holds Redis publisher configuration.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password for authentication (optional).
	Password string

	// DB is the database number.
	DB int

	// Channel is the pub/sub channel swap events are published to.
	Channel string

	// PoolSize is the connection pool size.
	PoolSize int
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Channel:  "dexrelay:swaps",
		PoolSize: 10,
	}
}

// Redis publishes swap events to a Redis pub/sub channel. The whole batch is
// queued on one pipeline so it needs a single round trip.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis creates the publisher. The connection is established lazily; use
// CheckHealth to verify reachability at startup.
func NewRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return &Redis{client: client, channel: cfg.Channel}
}

// PublishBatch pipelines one PUBLISH per event.
func (p *Redis) PublishBatch(ctx context.Context, events []*model.SwapEvent) error {
	pipe := p.client.Pipeline()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fault.Serialization("", fmt.Errorf("encode event %s: %w", ev.ID, err))
		}
		pipe.Publish(ctx, p.channel, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fault.Sink(fmt.Errorf("pipeline exec: %w", err))
	}
	return nil
}

// CheckHealth pings the server.
func (p *Redis) CheckHealth(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fault.Sink(err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Redis) Close() error {
	return p.client.Close()
}

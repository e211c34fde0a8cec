// Package publish delivers canonical swap events to the downstream broker.
// Delivery is at-least-once: a failed batch is retried whole by the caller,
// so consumers must tolerate duplicates.
package publish

import (
	"context"
	"fmt"

	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// Publisher is the sink contract the pollers depend on.
type Publisher interface {
	// PublishBatch delivers every event in the batch or fails the batch as a
	// whole. Partial delivery may have happened when an error is returned.
	PublishBatch(ctx context.Context, events []*model.SwapEvent) error

	// CheckHealth verifies the sink connection is usable.
	CheckHealth(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// Backend names for configuration.
const (
	BackendNATS  = "nats"
	BackendRedis = "redis"
)

// New constructs the publisher selected by backend.
func New(backend string, natsCfg NATSConfig, redisCfg RedisConfig) (Publisher, error) {
	switch backend {
	case BackendNATS:
		return NewNATS(natsCfg)
	case BackendRedis:
		return NewRedis(redisCfg), nil
	default:
		return nil, fmt.Errorf("unknown publisher backend %q", backend)
	}
}

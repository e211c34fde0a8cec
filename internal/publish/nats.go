package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// NATSConfig holds NATS publisher configuration.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject is the subject swap events are published to.
	Subject string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultNATSConfig returns a NATSConfig with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "dexrelay.swaps",
		Name:          "dexrelay-collector",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATS publishes swap events to a NATS subject, one message per event.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the server and returns the publisher.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATS{conn: conn, subject: cfg.Subject}, nil
}

// PublishBatch publishes each event as one JSON message and flushes the
// connection so broker rejection surfaces here, not on a later cycle.
func (p *NATS) PublishBatch(ctx context.Context, events []*model.SwapEvent) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return fault.Serialization("", fmt.Errorf("encode event %s: %w", ev.ID, err))
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fault.Sink(fmt.Errorf("publish event %s: %w", ev.ID, err))
		}
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fault.Sink(fmt.Errorf("flush: %w", err))
	}
	return nil
}

// CheckHealth verifies the connection with a round trip to the server.
func (p *NATS) CheckHealth(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fault.Sink(fmt.Errorf("not connected to %s", p.conn.Opts.Url))
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fault.Sink(err)
	}
	return nil
}

// Close drains the connection, letting buffered messages out first.
func (p *NATS) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

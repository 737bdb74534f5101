package redisadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb/geojson"
	"github.com/redis/go-redis/v9"
)

// Publisher broadcasts each feature collection on a Redis pub/sub channel and
// stores it under a snapshot key so late subscribers can read the current
// state. It implements pipeline.Emitter.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher creates a Publisher. The client connects lazily on first use.
func NewPublisher(opts *redis.Options, channel string, logger *slog.Logger) *Publisher {
	return &Publisher{client: redis.NewClient(opts), channel: channel, logger: logger}
}

// SnapshotKey returns the key holding the most recent collection published on
// channel.
func SnapshotKey(channel string) string {
	return channel + ":latest"
}

// Ping checks that the server is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Emit stores the snapshot and publishes it in one MULTI/EXEC transaction.
func (p *Publisher) Emit(ctx context.Context, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("serialize feature collection: %w", err)
	}

	var receivers *redis.IntCmd
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SnapshotKey(p.channel), data, 0)
		receivers = pipe.Publish(ctx, p.channel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}

	p.logger.Debug("feature collection published",
		"channel", p.channel,
		"features", len(fc.Features),
		"receivers", receivers.Val(),
	)
	return nil
}

// Close releases the client's connections.
func (p *Publisher) Close() error {
	return p.client.Close()
}

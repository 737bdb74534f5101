package natsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/paulmach/orb/geojson"
)

type conn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher sends each feature collection as a single NATS message.
// It implements pipeline.Emitter.
type Publisher struct {
	conn    conn
	subject string
	variant string
	logger  *slog.Logger
}

// NewPublisher connects to NATS. The connection retries in the background, so
// a server that is down at startup is picked up once it becomes reachable.
func NewPublisher(url, subject, variant string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("hazard-etl"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, subject: subject, variant: variant, logger: logger}, nil
}

// Emit publishes fc and waits for the server to acknowledge the flush, so a
// run only succeeds once the message has left the client buffer.
func (p *Publisher) Emit(ctx context.Context, fc *geojson.FeatureCollection) error {
	msg, err := newMessage(p.subject, p.variant, domain.RunID(ctx), fc)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", p.subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	p.logger.Debug("feature collection published", "subject", p.subject, "features", len(fc.Features))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}

func newMessage(subject, variant, runID string, fc *geojson.FeatureCollection) (*nats.Msg, error) {
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("serialize feature collection: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Variant", variant)
	msg.Header.Set("Run-Id", runID)
	msg.Header.Set("Emitted-At", domain.Now().Format(time.RFC3339))
	msg.Header.Set("Feature-Count", fmt.Sprint(len(fc.Features)))
	return msg, nil
}

package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrBusUnavailable is returned when an envelope cannot be handed to the
// bus: the exchange was never declared or the connection is down.
var ErrBusUnavailable = errors.New("event bus unavailable")

// Publisher hands envelopes to the bus. Publishing is fire-and-forget:
// the call returns once the bus has accepted the envelope and never
// waits for a consumer.
type Publisher struct {
	client   *redis.Client
	topology *Topology
}

// NewPublisher constructs a publisher over an established connection.
func NewPublisher(client *redis.Client, topology *Topology) *Publisher {
	return &Publisher{client: client, topology: topology}
}

// Publish delivers payload to every queue bound to exchange with a
// pattern matching routingKey. Fails with ErrBusUnavailable when the
// bus cannot accept the envelope.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, payload map[string]any) error {
	declared, err := p.client.Exists(ctx, exchangeKeyPrefix+exchange).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBusUnavailable, err)
	}
	if declared == 0 {
		return fmt.Errorf("%w: exchange %s not declared", ErrBusUnavailable, exchange)
	}

	bindings, err := p.topology.Bindings(ctx, exchange)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBusUnavailable, err)
	}

	env := NewEnvelope(exchange, routingKey, payload)
	body, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	for _, b := range bindings {
		if !MatchPattern(b.Pattern, routingKey) {
			continue
		}
		err := p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: b.Queue,
			Values: map[string]interface{}{"envelope": body},
		}).Err()
		if err != nil {
			return fmt.Errorf("%w: xadd to %s: %v", ErrBusUnavailable, b.Queue, err)
		}
	}
	return nil
}

// TryPublish publishes best-effort: failures are logged and swallowed so
// the caller's business operation never fails or rolls back because an
// event could not be delivered.
func (p *Publisher) TryPublish(ctx context.Context, exchange, routingKey string, payload map[string]any) {
	if err := p.Publish(ctx, exchange, routingKey, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"exchange":    exchange,
			"routing_key": routingKey,
		}).WithError(err).Warn("event publish failed, continuing")
	}
}

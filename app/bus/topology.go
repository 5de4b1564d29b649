package bus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrTopologyConflict is returned when a declaration contradicts an
// existing one (same name, different durability). Startup treats it as
// fatal: the process must not serve traffic against a disputed topology.
var ErrTopologyConflict = errors.New("topology conflict")

// ConsumerGroup is the consumer group receiving deliveries on every
// declared queue stream.
const ConsumerGroup = "dispatchers"

const (
	exchangeKeyPrefix = "bus:exchange:"
	queueKeyPrefix    = "bus:queue:"
	bindingKeyPrefix  = "bus:bindings:"
)

// Binding routes envelopes from an exchange to a queue by pattern.
type Binding struct {
	Queue   string
	Pattern string
}

// Topology declares exchanges, queues, and bindings on the bus. All
// declarations are idempotent and shared across processes through Redis,
// so the publisher side sees bindings declared by the consumer side.
// Declarations must complete before the first publish or consume.
type Topology struct {
	client *redis.Client
}

// NewTopology constructs a topology bound to a Redis connection.
func NewTopology(client *redis.Client) *Topology {
	return &Topology{client: client}
}

// DeclareExchange declares a durable topic exchange. Re-declaring an
// identical exchange is a no-op; changing durability fails.
func (t *Topology) DeclareExchange(ctx context.Context, name string, durable bool) error {
	return t.declare(ctx, exchangeKeyPrefix+name, map[string]any{
		"type":    "topic",
		"durable": strconv.FormatBool(durable),
	})
}

// DeclareQueue declares a durable queue and its backing stream plus
// consumer group. Re-declaring an identical queue is a no-op.
func (t *Topology) DeclareQueue(ctx context.Context, name string, durable bool) error {
	if err := t.declare(ctx, queueKeyPrefix+name, map[string]any{
		"durable": strconv.FormatBool(durable),
	}); err != nil {
		return err
	}

	err := t.client.XGroupCreateMkStream(ctx, name, ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create stream for queue %s: %w", name, err)
	}
	return nil
}

// Bind routes envelopes published to exchange with a routing key
// matching pattern into queue. Identical re-binds are no-ops.
func (t *Topology) Bind(ctx context.Context, queue, exchange, pattern string) error {
	member := queue + "|" + pattern
	if err := t.client.SAdd(ctx, bindingKeyPrefix+exchange, member).Err(); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}
	return nil
}

// Bindings returns the declared bindings for an exchange.
func (t *Topology) Bindings(ctx context.Context, exchange string) ([]Binding, error) {
	members, err := t.client.SMembers(ctx, bindingKeyPrefix+exchange).Result()
	if err != nil {
		return nil, fmt.Errorf("load bindings for %s: %w", exchange, err)
	}

	bindings := make([]Binding, 0, len(members))
	for _, m := range members {
		queue, pattern, ok := strings.Cut(m, "|")
		if !ok {
			continue
		}
		bindings = append(bindings, Binding{Queue: queue, Pattern: pattern})
	}
	return bindings, nil
}

// declare writes declaration metadata if absent and verifies it matches
// if already present.
func (t *Topology) declare(ctx context.Context, key string, want map[string]any) error {
	existing, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read declaration %s: %w", key, err)
	}

	if len(existing) > 0 {
		for field, value := range want {
			if existing[field] != fmt.Sprint(value) {
				return fmt.Errorf("%w: %s %s=%s, declared %v", ErrTopologyConflict, key, field, existing[field], value)
			}
		}
		return nil
	}

	if err := t.client.HSet(ctx, key, want).Err(); err != nil {
		return fmt.Errorf("write declaration %s: %w", key, err)
	}
	return nil
}

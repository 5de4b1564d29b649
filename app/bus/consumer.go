package bus

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Handler processes one delivered envelope. A nil return acknowledges
// the envelope; any other error rejects it without requeue. Returning
// ErrDeferred leaves the delivery pending for another attempt.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }

// ErrDeferred signals that an envelope is being handled elsewhere and
// must stay pending instead of being acked or rejected.
var ErrDeferred = errors.New("delivery deferred")

// QueueConsumer pulls envelopes off one queue and feeds them to a
// handler one at a time, in delivery order. Queues are independent
// streams; run one consumer per queue for interleaved processing.
//
// Rejected envelopes are removed, never requeued: a malformed payload
// fails identically on redelivery, and transient transport failures are
// accepted as lost notifications. There is no per-envelope timeout; a
// hung handler blocks further delivery on its queue.
type QueueConsumer struct {
	client       *redis.Client
	queue        string
	handler      Handler
	consumerName string
	log          *logrus.Entry
}

// NewQueueConsumer constructs a consumer for one declared queue.
func NewQueueConsumer(client *redis.Client, queue string, handler Handler, consumerName string) *QueueConsumer {
	return &QueueConsumer{
		client:       client,
		queue:        queue,
		handler:      handler,
		consumerName: consumerName,
		log:          logrus.WithFields(logrus.Fields{"queue": queue, "consumer": consumerName}),
	}
}

// Run starts the consume loop and blocks until context cancellation.
func (c *QueueConsumer) Run(ctx context.Context) error {
	c.log.Info("consumer started")

	// First drain deliveries left pending by a previous run, then
	// switch to reading new ones.
	startID := "0"
	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer shutting down")
			return nil
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{c.queue, startID},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				if startID == "0" {
					startID = ">"
				}
				continue
			}
			if ctx.Err() != nil {
				c.log.Info("consumer shutting down")
				return nil
			}
			c.log.WithError(err).Error("xreadgroup failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			if len(stream.Messages) == 0 && startID == "0" {
				startID = ">"
				continue
			}
			for _, msg := range stream.Messages {
				deferred := c.processDelivery(ctx, msg)
				if deferred && startID == "0" {
					// A deferred delivery stays pending and would be
					// re-read immediately while draining; pause before
					// retrying so the held lock has a chance to clear.
					time.Sleep(time.Second)
				}
			}
		}
	}
}

// processDelivery decodes and handles a single delivery, then acks or
// rejects it based on the handler outcome. It reports true when the
// delivery was deferred and left pending.
func (c *QueueConsumer) processDelivery(ctx context.Context, msg redis.XMessage) bool {
	body, _ := msg.Values["envelope"].(string)

	env, err := DecodeEnvelope([]byte(body))
	if err != nil {
		c.log.WithError(err).WithField("delivery_id", msg.ID).Error("malformed envelope rejected")
		c.reject(ctx, msg.ID)
		return false
	}

	log := c.log.WithFields(logrus.Fields{"delivery_id": msg.ID, "routing_key": env.RoutingKey})

	if err := c.handler.Handle(ctx, env); err != nil {
		if errors.Is(err, ErrDeferred) {
			log.Warn("delivery deferred, left pending")
			return true
		}
		log.WithError(err).Error("envelope rejected without requeue")
		c.reject(ctx, msg.ID)
		return false
	}

	c.ack(ctx, msg.ID)
	return false
}

// ack marks a delivery fully processed so it is never redelivered.
func (c *QueueConsumer) ack(ctx context.Context, deliveryID string) {
	if err := c.client.XAck(ctx, c.queue, ConsumerGroup, deliveryID).Err(); err != nil {
		c.log.WithError(err).WithField("delivery_id", deliveryID).Error("ack failed")
	}
}

// reject removes a delivery without requeueing it.
func (c *QueueConsumer) reject(ctx context.Context, deliveryID string) {
	if err := c.client.XAck(ctx, c.queue, ConsumerGroup, deliveryID).Err(); err != nil {
		c.log.WithError(err).WithField("delivery_id", deliveryID).Error("reject failed")
	}
}

// Package dispatcher turns delivered domain events into outbound email
// notifications. Routing keys map statically to templates; there is no
// dynamic handler registration.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-eventrouter/app/bus"
	"github.com/vibast-solutions/ms-go-eventrouter/app/events"
	"github.com/vibast-solutions/ms-go-eventrouter/app/lock"
	"github.com/vibast-solutions/ms-go-eventrouter/app/mailer"
)

// route binds a routing key to the template it renders and the payload
// field carrying the recipient address.
type route struct {
	template       string
	recipientField string
}

var routes = map[string]route{
	events.KeyUserCreated:        {template: mailer.TemplateWelcome, recipientField: "email"},
	events.KeyOrderCreated:       {template: mailer.TemplateOrderConfirmation, recipientField: "userEmail"},
	events.KeyOrderStatusUpdated: {template: mailer.TemplateOrderStatusUpdate, recipientField: "userEmail"},
	events.KeyPaymentCompleted:   {template: mailer.TemplatePaymentConfirmation, recipientField: "userEmail"},
}

const handleLockTTL = 2 * time.Minute

type Dispatcher struct {
	mailer *mailer.Mailer
	locker lock.Locker
	log    *logrus.Entry
}

// NewDispatcher builds the notification dispatcher.
func NewDispatcher(m *mailer.Mailer, locker lock.Locker) *Dispatcher {
	return &Dispatcher{
		mailer: m,
		locker: locker,
		log:    logrus.WithField("component", "dispatcher"),
	}
}

// Handle processes one envelope. A nil return acknowledges it; an error
// rejects it without requeue, since redelivering a malformed payload or
// a failed render cannot change the outcome.
func (d *Dispatcher) Handle(ctx context.Context, env bus.Envelope) error {
	log := d.log.WithFields(logrus.Fields{"routing_key": env.RoutingKey, "envelope_id": env.ID})

	r, ok := routes[env.RoutingKey]
	if !ok {
		// A bound queue delivering an unmapped key is a configuration
		// error; ack without side effect rather than requeue.
		log.Error("no route for routing key, acknowledging without side effect")
		return nil
	}

	recipient, ok := env.Payload[r.recipientField].(string)
	if !ok || recipient == "" {
		return fmt.Errorf("payload field %s missing or not a string", r.recipientField)
	}

	lockKey := "events:delivery:" + env.ID
	if err := d.locker.Acquire(ctx, lockKey, handleLockTTL); err != nil {
		if errors.Is(err, lock.ErrNotAcquired) || errors.Is(err, lock.ErrAlreadyHeld) {
			return fmt.Errorf("%w: envelope %s handled elsewhere", bus.ErrDeferred, env.ID)
		}
		return fmt.Errorf("acquire handle lock: %w", err)
	}
	defer func() {
		_ = d.locker.Release(context.Background(), lockKey)
	}()

	outcome := d.mailer.SendOne(ctx, mailer.SendRequest{
		To:       recipient,
		Template: r.template,
		Data:     env.Payload,
	})
	if !outcome.Success {
		return fmt.Errorf("send %s to %s: %w", r.template, recipient, outcome.Err)
	}

	log.WithFields(logrus.Fields{"recipient": recipient, "message_id": outcome.MessageID}).Info("notification dispatched")
	return nil
}

// Consumers builds one queue consumer per notification queue, all
// feeding this dispatcher. Handling within a queue is serialized; the
// queues themselves are independent streams.
func (d *Dispatcher) Consumers(client *redis.Client, consumerName string) []*bus.QueueConsumer {
	consumers := make([]*bus.QueueConsumer, 0, len(events.NotificationQueues))
	for _, queue := range events.NotificationQueues {
		consumers = append(consumers, bus.NewQueueConsumer(client, queue, d, consumerName))
	}
	return consumers
}

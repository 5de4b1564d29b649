package events

import (
	"context"

	"github.com/vibast-solutions/ms-go-eventrouter/app/bus"
)

// Exchanges carrying domain events.
const (
	ExchangeUser    = "user_events"
	ExchangeOrder   = "order_events"
	ExchangePayment = "payment_events"
)

// Routing keys published by the domain services.
const (
	KeyUserCreated        = "user.created"
	KeyOrderCreated       = "order.created"
	KeyOrderStatusUpdated = "order.status_updated"
	KeyPaymentCompleted   = "payment.completed"
)

// Queues feeding the notification dispatcher.
const (
	QueueUserNotifications    = "notifications.user"
	QueueOrderNotifications   = "notifications.order"
	QueuePaymentNotifications = "notifications.payment"
)

// NotificationQueues lists every queue the dispatcher consumes.
var NotificationQueues = []string{
	QueueUserNotifications,
	QueueOrderNotifications,
	QueuePaymentNotifications,
}

// DeclareTopology declares the exchanges, queues, and bindings of the
// event backbone. Safe to call from every process at startup.
func DeclareTopology(ctx context.Context, t *bus.Topology) error {
	for _, exchange := range []string{ExchangeUser, ExchangeOrder, ExchangePayment} {
		if err := t.DeclareExchange(ctx, exchange, true); err != nil {
			return err
		}
	}

	for _, queue := range NotificationQueues {
		if err := t.DeclareQueue(ctx, queue, true); err != nil {
			return err
		}
	}

	bindings := []struct {
		queue    string
		exchange string
		pattern  string
	}{
		{QueueUserNotifications, ExchangeUser, "user.created"},
		{QueueOrderNotifications, ExchangeOrder, "order.*"},
		{QueuePaymentNotifications, ExchangePayment, "payment.completed"},
	}
	for _, b := range bindings {
		if err := t.Bind(ctx, b.queue, b.exchange, b.pattern); err != nil {
			return err
		}
	}
	return nil
}

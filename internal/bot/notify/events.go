package notify

import (
	"context"
	"fmt"

	"coursebot/internal/core/ports"
)

// SubscribeOutcomes wires payment outcome events to user-facing
// notifications. Publishers (webhooks, the admin panel, chat
// confirmations) only publish, this is the single place that talks
// back to the user.
func SubscribeOutcomes(bus ports.EventBus, n ports.Notifier) {
	bus.Subscribe(ports.TopicPaymentSucceeded, func(ctx context.Context, event ports.Event) error {
		outcome, ok := event.Data.(ports.PaymentOutcome)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", event.Data, event.Topic)
		}
		return n.PaymentSuccess(ctx, outcome.ChatID)
	})

	bus.Subscribe(ports.TopicPaymentFailed, func(ctx context.Context, event ports.Event) error {
		outcome, ok := event.Data.(ports.PaymentOutcome)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", event.Data, event.Topic)
		}
		return n.PaymentFailed(ctx, outcome.ChatID)
	})

	bus.Subscribe(ports.TopicManualGrant, func(ctx context.Context, event ports.Event) error {
		grant, ok := event.Data.(ports.ManualGrant)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", event.Data, event.Topic)
		}
		return n.ManualGrant(ctx, grant.ChatID, grant.DurationDays)
	})
}

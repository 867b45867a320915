package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventBus is the in-process message bus connecting mutation commits to
// the notifier. It wraps watermill's gochannel Pub/Sub: cross-process
// fan-out is out of scope for this service, but per-topic FIFO ordering
// and the publisher/subscriber decoupling still matter.
type EventBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// New creates an in-process event bus.
func New(logger *slog.Logger) *EventBus {
	watermillLogger := watermill.NewSlogLogger(logger)

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			// Room for bursts of count updates between the ledger commit
			// and the notifier picking them up.
			OutputChannelBuffer: 64,
		},
		watermillLogger,
	)

	return &EventBus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publish marshals the payload and publishes it on the topic. Publish
// order is preserved per topic, which is what gives watchers commit
// order per event.
func (b *EventBus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	b.logger.Debug("published message",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)

	return nil
}

// Subscribe returns the message stream for a topic. The stream closes
// when the context ends or the bus is closed.
func (b *EventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return messages, nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *EventBus) Close() error {
	return b.pubsub.Close()
}

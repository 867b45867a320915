package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// CountUpdatedTopic is the internal bus topic the ledger publishes to
// after a subscription commit.
const CountUpdatedTopic = "schedule.count.updated"

// Notifier consumes count updates off the internal bus and fans them out
// to every attached observer. A single consuming goroutine preserves the
// per-event commit order the bus delivers.
type Notifier struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
}

// NewNotifier builds a notifier over the given registry.
func NewNotifier(registry *Registry, logger *slog.Logger, metrics *Metrics) *Notifier {
	return &Notifier{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run drains the given message stream until the context ends or the
// channel closes. Malformed messages are acked and skipped; they would
// never become deliverable.
func (n *Notifier) Run(ctx context.Context, messages <-chan *message.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("count update subscription closed")
			}

			var update CountUpdate
			if err := json.Unmarshal(msg.Payload, &update); err != nil {
				n.logger.Error("discarding malformed count update",
					slog.String("message_id", msg.UUID),
					slog.Any("error", err),
				)
				msg.Ack()
				continue
			}

			n.Broadcast(update)
			msg.Ack()
		}
	}
}

// Broadcast delivers the update to every attached observer. Delivery is
// best effort: a full observer buffer drops the update for that observer
// only, so one slow or dead client never delays the healthy ones and
// never fails the mutation that triggered the broadcast.
func (n *Notifier) Broadcast(update CountUpdate) {
	observers := n.registry.Snapshot()

	delivered := 0
	for _, o := range observers {
		select {
		case o.ch <- update:
			delivered++
		default:
			o.drops.Add(1)
			n.metrics.DroppedUpdates.WithLabelValues(o.id.String()).Inc()
			n.logger.Warn("dropped count update for slow observer",
				slog.String("observer_id", o.id.String()),
				slog.Int64("event_id", update.EventID),
				slog.Int("round", int(update.Round)),
				slog.Int64("observer_drops", o.Drops()),
			)
		}
	}

	n.metrics.BroadcastsTotal.Inc()
	n.metrics.DeliveredUpdates.Add(float64(delivered))
	n.logger.Debug("broadcast complete",
		slog.Int64("event_id", update.EventID),
		slog.Int("round", int(update.Round)),
		slog.Int64("count", update.Count),
		slog.Int("delivered", delivered),
		slog.Int("observers", len(observers)),
	)
}

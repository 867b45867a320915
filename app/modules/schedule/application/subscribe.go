package scheduleservice

import (
	"context"
	"fmt"
	"log/slog"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
	"github.com/polp-online/schedule-service/app/stream"
)

// SubscribeToEvents atomically replaces the user's subscriptions with
// the requested event set. Position i in the list is the user's choice
// for round i+1. Every subscription the user held before the call is
// removed, whatever its round; this mirrors the sign-up flow where the
// client always submits the full selection.
//
// After the commit, the subscriber count for every affected (event,
// round) pair is recomputed and published for broadcast. That includes
// the pairs the user just left, so watchers see those counts drop.
func (s *ScheduleService) SubscribeToEvents(ctx context.Context, userID int64, eventIDs []int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive", ErrInvalidRequest)
	}
	if len(eventIDs) == 0 {
		return fmt.Errorf("%w: event id list is empty", ErrInvalidRequest)
	}
	for _, id := range eventIDs {
		if id <= 0 {
			return fmt.Errorf("%w: event id must be positive", ErrInvalidRequest)
		}
	}

	removed, err := s.ScheduleDB.ReplaceSubscriptions(ctx, userID, eventIDs)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user subscribed to events",
		slog.Int64("user_id", userID),
		slog.Any("event_ids", eventIDs),
		slog.Int("replaced", len(removed)),
	)

	affected := affectedPairs(removed, eventIDs)

	counts, err := s.ScheduleDB.CountSubscribers(ctx, affected)
	if err != nil {
		// The subscription itself committed; surface the count failure so
		// the caller knows watchers were not updated.
		return fmt.Errorf("failed to recompute subscriber counts: %w", err)
	}

	for _, count := range counts {
		update := stream.CountUpdate{
			EventID: count.EventID,
			Round:   count.Round,
			Count:   count.Count,
		}
		if err := s.Publisher.Publish(stream.CountUpdatedTopic, update); err != nil {
			// Delivery failures are isolated from the mutation: the
			// subscription succeeded, so log and keep going.
			s.logger.ErrorContext(ctx, "failed to publish count update",
				slog.Int64("event_id", count.EventID),
				slog.Int("round", int(count.Round)),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// affectedPairs merges the pairs the user left with the pairs they now
// occupy, deduplicated, preserving first-seen order.
func affectedPairs(removed []scheduledb.EventUser, eventIDs []int64) []scheduledb.EventRound {
	seen := make(map[scheduledb.EventRound]struct{}, len(removed)+len(eventIDs))
	pairs := make([]scheduledb.EventRound, 0, len(removed)+len(eventIDs))

	add := func(pair scheduledb.EventRound) {
		if _, ok := seen[pair]; ok {
			return
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}

	for _, row := range removed {
		add(scheduledb.EventRound{EventID: row.EventID, Round: row.Round})
	}
	for i, eventID := range eventIDs {
		add(scheduledb.EventRound{EventID: eventID, Round: int32(i + 1)})
	}

	return pairs
}

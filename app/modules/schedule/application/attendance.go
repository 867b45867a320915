package scheduleservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// JoinEvent marks the user as physically present at the event. The
// subscription must already exist. Calling it again just refreshes the
// timestamp. Counts derive from subscription existence, so no broadcast
// happens here.
func (s *ScheduleService) JoinEvent(ctx context.Context, userID, eventID int64) error {
	if userID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: user id and event id must be positive", ErrInvalidRequest)
	}

	err := s.ScheduleDB.SetJoinedAt(ctx, userID, eventID, s.now())
	if err != nil {
		if errors.Is(err, scheduledb.ErrSubscriptionNotFound) {
			return ErrNotSubscribed
		}
		return err
	}

	s.logger.InfoContext(ctx, "user joined event",
		slog.Int64("user_id", userID),
		slog.Int64("event_id", eventID),
	)

	return nil
}

// LeaveEvent marks the user as having left the event. Same preconditions
// and idempotency as JoinEvent.
func (s *ScheduleService) LeaveEvent(ctx context.Context, userID, eventID int64) error {
	if userID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: user id and event id must be positive", ErrInvalidRequest)
	}

	err := s.ScheduleDB.SetLeftAt(ctx, userID, eventID, s.now())
	if err != nil {
		if errors.Is(err, scheduledb.ErrSubscriptionNotFound) {
			return ErrNotSubscribed
		}
		return err
	}

	s.logger.InfoContext(ctx, "user left event",
		slog.Int64("user_id", userID),
		slog.Int64("event_id", eventID),
	)

	return nil
}

package scheduleservice

import (
	"context"
	"fmt"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// ListEvents returns every event with its per-round capacities.
func (s *ScheduleService) ListEvents(ctx context.Context) ([]scheduledb.Event, error) {
	return s.ScheduleDB.ListEvents(ctx)
}

// EventUsersStatus lists the users subscribed to the event for the
// round, with their presence timestamps.
func (s *ScheduleService) EventUsersStatus(ctx context.Context, eventID int64, round int32) ([]scheduledb.EventUserStatus, error) {
	if eventID <= 0 || round <= 0 {
		return nil, fmt.Errorf("%w: event id and round must be positive", ErrInvalidRequest)
	}
	return s.ScheduleDB.EventUsersStatus(ctx, eventID, round)
}

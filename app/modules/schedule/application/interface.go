package scheduleservice

import (
	"context"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// Service is the surface the transport handlers depend on.
type Service interface {
	ListEvents(ctx context.Context) ([]scheduledb.Event, error)
	SubscribeToEvents(ctx context.Context, userID int64, eventIDs []int64) error
	JoinEvent(ctx context.Context, userID, eventID int64) error
	LeaveEvent(ctx context.Context, userID, eventID int64) error
	EventUsersStatus(ctx context.Context, eventID int64, round int32) ([]scheduledb.EventUserStatus, error)
}

var _ Service = (*ScheduleService)(nil)

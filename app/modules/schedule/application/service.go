package scheduleservice

import (
	"log/slog"
	"time"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(topic string, payload any) error
}

// ScheduleService implements the subscription ledger, the attendance
// tracker and the read queries behind the RPC surface.
type ScheduleService struct {
	ScheduleDB scheduledb.Repository
	Publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewScheduleService creates the service. The store handle arrives
// already open; the service never touches configuration.
func NewScheduleService(db scheduledb.Repository, publisher Publisher, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{
		ScheduleDB: db,
		Publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

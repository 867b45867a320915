package scheduledb

import (
	"context"
	"time"
)

// Repository is the data access surface consumed by the schedule service.
type Repository interface {
	ListEvents(ctx context.Context) ([]Event, error)

	// ReplaceSubscriptions deletes every subscription row for the user and
	// inserts one row per requested event, assigning rounds by list
	// position. The whole operation runs in a single transaction. It
	// returns the rows that were deleted so the caller can recompute
	// counts for the pairs the user left.
	ReplaceSubscriptions(ctx context.Context, userID int64, eventIDs []int64) ([]EventUser, error)

	// SetJoinedAt and SetLeftAt stamp presence on an existing
	// subscription. Both return ErrSubscriptionNotFound when the (user,
	// event) pair has no row.
	SetJoinedAt(ctx context.Context, userID, eventID int64, at time.Time) error
	SetLeftAt(ctx context.Context, userID, eventID int64, at time.Time) error

	// CountSubscribers returns the current subscriber count for each
	// given pair, including zero counts.
	CountSubscribers(ctx context.Context, pairs []EventRound) ([]EventRoundCount, error)

	EventUsersStatus(ctx context.Context, eventID int64, round int32) ([]EventUserStatus, error)
	SubscriptionsForUser(ctx context.Context, userID int64) ([]EventUser, error)
}

// UserRepository is the identity surface consumed by the auth module.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
}

// EventRoundCount is a derived subscriber count for one (event, round)
// pair at a point in time. Never stored.
type EventRoundCount struct {
	EventID int64 `json:"event_id"`
	Round   int32 `json:"round"`
	Count   int64 `json:"count"`
}

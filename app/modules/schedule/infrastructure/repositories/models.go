package scheduledb

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a scheduled activity that users subscribe to round by round.
// Rows are immutable at runtime; they are written by the seed tooling only.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	Name           string `bun:"name,notnull" json:"name"`
	Description    string `bun:"description,notnull" json:"description"`
	Room           string `bun:"room,notnull" json:"room"`
	Zone           string `bun:"zone,notnull" json:"zone"`
	Floor          string `bun:"floor,notnull" json:"floor"`
	MinimumSection int32  `bun:"minimum_section,notnull,default:0" json:"minimum_section"`

	Capacities []*RoundMaxUsers `bun:"rel:has-many,join:id=event_id" json:"capacities,omitempty"`
}

// User is a participant identity. Created once per email.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              int64   `bun:"id,pk,autoincrement" json:"id"`
	Name            *string `bun:"name" json:"name,omitempty"`
	Email           string  `bun:"email,unique,notnull" json:"email"`
	InteractiveDone bool    `bun:"interactive_done,notnull,default:false" json:"interactive_done"`
	Section         int32   `bun:"section,notnull,default:1" json:"section"`
	Class           *string `bun:"class" json:"class,omitempty"`
	Admin           bool    `bun:"admin,notnull,default:false" json:"admin"`
}

// EventUser is a user's subscription to one event for one round. The
// composite primary key (user_id, round) is what enforces the one
// subscription per round invariant at the store level.
type EventUser struct {
	bun.BaseModel `bun:"table:event_users,alias:eu"`

	EventID  int64      `bun:"event_id,notnull" json:"event_id"`
	UserID   int64      `bun:"user_id,pk,notnull" json:"user_id"`
	Round    int32      `bun:"round,pk,notnull" json:"round"`
	JoinedAt *time.Time `bun:"joined_at" json:"joined_at,omitempty"`
	LeftAt   *time.Time `bun:"left_at" json:"left_at,omitempty"`
}

// RoundMaxUsers caps the number of concurrent subscribers for an event in
// one round. Seeded from the activity workbook; read-only at runtime.
type RoundMaxUsers struct {
	bun.BaseModel `bun:"table:round_max_users,alias:rmu"`

	Round    int32 `bun:"round,pk,notnull" json:"round"`
	EventID  int64 `bun:"event_id,pk,notnull" json:"event_id"`
	MaxUsers int32 `bun:"max_users,notnull" json:"max_users"`
}

// EventRound identifies one (event, round) pair whose subscriber count is
// affected by a mutation.
type EventRound struct {
	EventID int64 `json:"event_id"`
	Round   int32 `json:"round"`
}

// EventUserStatus is the query projection behind the per-event status
// listing: who chose the event for a round and their presence timestamps.
type EventUserStatus struct {
	UserID   int64      `bun:"user_id" json:"user_id"`
	Name     *string    `bun:"name" json:"name,omitempty"`
	Email    string     `bun:"email" json:"email"`
	Section  int32      `bun:"section" json:"section"`
	Class    *string    `bun:"class" json:"class,omitempty"`
	JoinedAt *time.Time `bun:"joined_at" json:"joined_at,omitempty"`
	LeftAt   *time.Time `bun:"left_at" json:"left_at,omitempty"`
}

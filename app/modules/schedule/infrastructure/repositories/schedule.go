package scheduledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUserNotFound         = errors.New("user not found")
)

// ScheduleDBImpl is the bun-backed repository for events, users and
// subscriptions.
type ScheduleDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*ScheduleDBImpl)(nil)
var _ UserRepository = (*ScheduleDBImpl)(nil)

// ListEvents returns all events with their per-round capacities.
func (db *ScheduleDBImpl) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	err := db.DB.NewSelect().
		Model(&events).
		Relation("Capacities").
		Order("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ReplaceSubscriptions atomically swaps the user's subscriptions for the
// requested event set. The delete and the inserts share one transaction
// so a concurrent reader never observes the user with no rows at all.
func (db *ScheduleDBImpl) ReplaceSubscriptions(ctx context.Context, userID int64, eventIDs []int64) ([]EventUser, error) {
	var removed []EventUser

	err := db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model(&removed).
			Where("user_id = ?", userID).
			Returning("event_id, user_id, round, joined_at, left_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete prior subscriptions: %w", err)
		}

		rows := make([]EventUser, 0, len(eventIDs))
		for i, eventID := range eventIDs {
			rows = append(rows, EventUser{
				EventID: eventID,
				UserID:  userID,
				Round:   int32(i + 1),
			})
		}

		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert subscriptions: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// SetJoinedAt stamps physical check-in on an existing subscription.
// Calling it again just moves the timestamp.
func (db *ScheduleDBImpl) SetJoinedAt(ctx context.Context, userID, eventID int64, at time.Time) error {
	return db.stampSubscription(ctx, userID, eventID, "joined_at", at)
}

// SetLeftAt stamps check-out on an existing subscription.
func (db *ScheduleDBImpl) SetLeftAt(ctx context.Context, userID, eventID int64, at time.Time) error {
	return db.stampSubscription(ctx, userID, eventID, "left_at", at)
}

func (db *ScheduleDBImpl) stampSubscription(ctx context.Context, userID, eventID int64, column string, at time.Time) error {
	result, err := db.DB.NewUpdate().
		Model((*EventUser)(nil)).
		Set("? = ?", bun.Ident(column), at).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// CountSubscribers computes the live subscriber count for each pair. A
// pair with no rows yields an explicit zero so downstream watchers see
// the event drain.
func (db *ScheduleDBImpl) CountSubscribers(ctx context.Context, pairs []EventRound) ([]EventRoundCount, error) {
	counts := make([]EventRoundCount, 0, len(pairs))

	for _, pair := range pairs {
		n, err := db.DB.NewSelect().
			Model((*EventUser)(nil)).
			Where("event_id = ? AND round = ?", pair.EventID, pair.Round).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count subscribers for event %d round %d: %w", pair.EventID, pair.Round, err)
		}
		counts = append(counts, EventRoundCount{
			EventID: pair.EventID,
			Round:   pair.Round,
			Count:   int64(n),
		})
	}

	return counts, nil
}

// EventUsersStatus lists every user subscribed to the event for the
// round with their presence timestamps.
func (db *ScheduleDBImpl) EventUsersStatus(ctx context.Context, eventID int64, round int32) ([]EventUserStatus, error) {
	var statuses []EventUserStatus
	err := db.eventUsersStatusQuery(eventID, round).Scan(ctx, &statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query event users status: %w", err)
	}
	return statuses, nil
}

// eventUsersStatusQuery builds the status projection. The alias on u.id
// must go through ColumnExpr: Column arguments are identifiers and would
// quote the whole "id AS user_id" string.
func (db *ScheduleDBImpl) eventUsersStatusQuery(eventID int64, round int32) *bun.SelectQuery {
	return db.DB.NewSelect().
		Model((*EventUser)(nil)).
		ColumnExpr("u.id AS user_id").
		Column("u.name", "u.email", "u.section", "u.class").
		ColumnExpr("eu.joined_at, eu.left_at").
		Join("JOIN users AS u ON u.id = eu.user_id").
		Where("eu.event_id = ? AND eu.round = ?", eventID, round).
		Order("u.id ASC")
}

// SubscriptionsForUser returns the user's current rows across all rounds.
func (db *ScheduleDBImpl) SubscriptionsForUser(ctx context.Context, userID int64) ([]EventUser, error) {
	var subs []EventUser
	err := db.DB.NewSelect().
		Model(&subs).
		Where("user_id = ?", userID).
		Order("round ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return subs, nil
}

// GetUserByEmail fetches a user by their unique email.
func (db *ScheduleDBImpl) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := db.DB.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user row.
func (db *ScheduleDBImpl) CreateUser(ctx context.Context, user *User) error {
	if _, err := db.DB.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

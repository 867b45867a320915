package scheduleservice

import (
	"context"
	"sync"
	"time"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// ------------------------
// Fake Repository
// ------------------------

type FakeRepository struct {
	trace []string

	ListEventsFunc           func(ctx context.Context) ([]scheduledb.Event, error)
	ReplaceSubscriptionsFunc func(ctx context.Context, userID int64, eventIDs []int64) ([]scheduledb.EventUser, error)
	SetJoinedAtFunc          func(ctx context.Context, userID, eventID int64, at time.Time) error
	SetLeftAtFunc            func(ctx context.Context, userID, eventID int64, at time.Time) error
	CountSubscribersFunc     func(ctx context.Context, pairs []scheduledb.EventRound) ([]scheduledb.EventRoundCount, error)
	EventUsersStatusFunc     func(ctx context.Context, eventID int64, round int32) ([]scheduledb.EventUserStatus, error)
	SubscriptionsForUserFunc func(ctx context.Context, userID int64) ([]scheduledb.EventUser, error)
}

func (f *FakeRepository) Trace() []string {
	return f.trace
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) ListEvents(ctx context.Context) ([]scheduledb.Event, error) {
	f.record("ListEvents")
	if f.ListEventsFunc != nil {
		return f.ListEventsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeRepository) ReplaceSubscriptions(ctx context.Context, userID int64, eventIDs []int64) ([]scheduledb.EventUser, error) {
	f.record("ReplaceSubscriptions")
	if f.ReplaceSubscriptionsFunc != nil {
		return f.ReplaceSubscriptionsFunc(ctx, userID, eventIDs)
	}
	return nil, nil
}

func (f *FakeRepository) SetJoinedAt(ctx context.Context, userID, eventID int64, at time.Time) error {
	f.record("SetJoinedAt")
	if f.SetJoinedAtFunc != nil {
		return f.SetJoinedAtFunc(ctx, userID, eventID, at)
	}
	return nil
}

func (f *FakeRepository) SetLeftAt(ctx context.Context, userID, eventID int64, at time.Time) error {
	f.record("SetLeftAt")
	if f.SetLeftAtFunc != nil {
		return f.SetLeftAtFunc(ctx, userID, eventID, at)
	}
	return nil
}

func (f *FakeRepository) CountSubscribers(ctx context.Context, pairs []scheduledb.EventRound) ([]scheduledb.EventRoundCount, error) {
	f.record("CountSubscribers")
	if f.CountSubscribersFunc != nil {
		return f.CountSubscribersFunc(ctx, pairs)
	}
	counts := make([]scheduledb.EventRoundCount, 0, len(pairs))
	for _, pair := range pairs {
		counts = append(counts, scheduledb.EventRoundCount{EventID: pair.EventID, Round: pair.Round, Count: 1})
	}
	return counts, nil
}

func (f *FakeRepository) EventUsersStatus(ctx context.Context, eventID int64, round int32) ([]scheduledb.EventUserStatus, error) {
	f.record("EventUsersStatus")
	if f.EventUsersStatusFunc != nil {
		return f.EventUsersStatusFunc(ctx, eventID, round)
	}
	return nil, nil
}

func (f *FakeRepository) SubscriptionsForUser(ctx context.Context, userID int64) ([]scheduledb.EventUser, error) {
	f.record("SubscriptionsForUser")
	if f.SubscriptionsForUserFunc != nil {
		return f.SubscriptionsForUserFunc(ctx, userID)
	}
	return nil, nil
}

// ------------------------
// Fake Publisher
// ------------------------

type publishedMessage struct {
	Topic   string
	Payload any
}

type FakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage

	PublishFunc func(topic string, payload any) error
}

func (f *FakePublisher) Publish(topic string, payload any) error {
	f.mu.Lock()
	f.published = append(f.published, publishedMessage{Topic: topic, Payload: payload})
	f.mu.Unlock()

	if f.PublishFunc != nil {
		return f.PublishFunc(topic, payload)
	}
	return nil
}

func (f *FakePublisher) Published() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.published...)
}

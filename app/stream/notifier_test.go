package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*Notifier, *Registry) {
	t.Helper()
	registry := newTestRegistry(t)
	notifier := NewNotifier(registry, testLogger(), NewMetrics(prometheus.NewRegistry()))
	return notifier, registry
}

func TestNotifier_BroadcastFansOutToAllObservers(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	observers := []*Observer{registry.Attach(), registry.Attach(), registry.Attach()}

	update := CountUpdate{EventID: 7, Round: 2, Count: 13}
	notifier.Broadcast(update)

	for _, o := range observers {
		select {
		case got := <-o.Updates():
			assert.Equal(t, update, got)
		default:
			t.Fatalf("observer %s received nothing", o.ID())
		}
	}
}

func TestNotifier_SlowObserverDropsInsteadOfBlocking(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	slow := registry.Attach()
	healthy := registry.Attach()

	// Nobody drains the slow observer. Ten broadcasts must complete
	// promptly regardless, filling its buffer and dropping the rest.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			notifier.Broadcast(CountUpdate{EventID: 1, Round: 1, Count: int64(i)})
			// Drain the healthy observer so its buffer never fills.
			<-healthy.Updates()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcasts blocked on an undrained observer")
	}

	assert.Equal(t, int64(10-observerBuffer), slow.Drops())
	assert.Len(t, slow.ch, observerBuffer)
}

func TestNotifier_DetachedObserverDoesNotStallBroadcasts(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	dead := registry.Attach()
	registry.Detach(dead)
	live := registry.Attach()

	for i := 0; i < 10; i++ {
		notifier.Broadcast(CountUpdate{EventID: 2, Round: 1, Count: int64(i)})
	}

	// The detached observer is gone from the snapshot, so only the live
	// one accumulates updates, capped at its buffer.
	assert.Len(t, live.ch, observerBuffer)
	assert.Empty(t, dead.ch)
	assert.Zero(t, dead.Drops())
}

func TestNotifier_PreservesBroadcastOrderPerObserver(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	o := registry.Attach()

	for i := 1; i <= observerBuffer; i++ {
		notifier.Broadcast(CountUpdate{EventID: 5, Round: 1, Count: int64(i)})
	}

	for i := 1; i <= observerBuffer; i++ {
		got := <-o.Updates()
		assert.Equal(t, int64(i), got.Count)
	}
}

func TestNotifier_RunDeliversBusMessages(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	o := registry.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan *message.Message, 4)
	runDone := make(chan error, 1)
	go func() {
		runDone <- notifier.Run(ctx, messages)
	}()

	update := CountUpdate{EventID: 3, Round: 4, Count: 9}
	payload, err := json.Marshal(update)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	messages <- msg

	select {
	case got := <-o.Updates():
		assert.Equal(t, update, got)
	case <-time.After(2 * time.Second):
		t.Fatal("update never reached the observer")
	}

	select {
	case <-msg.Acked():
	case <-time.After(2 * time.Second):
		t.Fatal("message was not acked")
	}

	cancel()
	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestNotifier_RunSkipsMalformedMessages(t *testing.T) {
	notifier, registry := newTestNotifier(t)

	o := registry.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan *message.Message, 4)
	go func() {
		_ = notifier.Run(ctx, messages)
	}()

	bad := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	messages <- bad

	select {
	case <-bad.Acked():
	case <-time.After(2 * time.Second):
		t.Fatal("malformed message was not acked")
	}

	// A well-formed message after the bad one still flows.
	payload, err := json.Marshal(CountUpdate{EventID: 1, Round: 1, Count: 1})
	require.NoError(t, err)
	messages <- message.NewMessage(watermill.NewUUID(), payload)

	select {
	case got := <-o.Updates():
		assert.Equal(t, int64(1), got.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("valid update after a malformed one was not delivered")
	}
}

func TestNotifier_RunStopsWhenStreamCloses(t *testing.T) {
	notifier, _ := newTestNotifier(t)

	messages := make(chan *message.Message)
	close(messages)

	err := notifier.Run(context.Background(), messages)
	require.Error(t, err)
}

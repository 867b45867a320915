package stream

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// observerBuffer is the per-observer pending update capacity. Small on
// purpose: a client that cannot drain four updates is a slow consumer
// and starts losing updates rather than stalling everyone else.
const observerBuffer = 4

// CountUpdate is the payload pushed to every attached observer after a
// subscription commit changes an (event, round) subscriber count.
type CountUpdate struct {
	EventID int64 `json:"event_id"`
	Round   int32 `json:"round"`
	Count   int64 `json:"count"`
}

// Observer is the read side of one client's count stream. It lives as
// long as the client connection; the registry owns the write side.
type Observer struct {
	id    uuid.UUID
	ch    chan CountUpdate
	drops atomic.Int64
}

// ID returns the process-local identity of the observer.
func (o *Observer) ID() uuid.UUID {
	return o.id
}

// Updates returns the channel the client drains. The channel is never
// closed; consumers stop reading when their connection context ends.
func (o *Observer) Updates() <-chan CountUpdate {
	return o.ch
}

// Drops reports how many updates were discarded because this observer's
// buffer was full.
func (o *Observer) Drops() int64 {
	return o.drops.Load()
}

// Registry tracks the set of currently open observers. One mutex guards
// the set; every read and write path takes it, and holds it only long
// enough to copy or mutate the map.
type Registry struct {
	mu        sync.Mutex
	observers map[uuid.UUID]*Observer
	logger    *slog.Logger
	metrics   *Metrics
}

// NewRegistry builds an empty registry. One registry is constructed per
// server instance and injected into both the attach path and the notify
// path; there is no package-level instance.
func NewRegistry(logger *slog.Logger, metrics *Metrics) *Registry {
	return &Registry{
		observers: make(map[uuid.UUID]*Observer),
		logger:    logger,
		metrics:   metrics,
	}
}

// Attach registers a new observer and returns it to the caller as the
// long-lived read side of its stream.
func (r *Registry) Attach() *Observer {
	o := &Observer{
		id: uuid.New(),
		ch: make(chan CountUpdate, observerBuffer),
	}

	r.mu.Lock()
	r.observers[o.id] = o
	n := len(r.observers)
	r.mu.Unlock()

	r.metrics.ObserversAttached.Set(float64(n))
	r.logger.Debug("observer attached",
		slog.String("observer_id", o.id.String()),
		slog.Int("attached", n),
	)

	return o
}

// Detach removes the observer. Callers tie this to their connection
// context so a disconnect deterministically frees the registry slot.
// The observer's channel is left open: an in-flight broadcast that
// snapshotted before the detach may still send into it, which is
// harmless on an open buffered channel.
func (r *Registry) Detach(o *Observer) {
	r.mu.Lock()
	delete(r.observers, o.id)
	n := len(r.observers)
	r.mu.Unlock()

	r.metrics.ObserversAttached.Set(float64(n))
	r.metrics.DroppedUpdates.DeleteLabelValues(o.id.String())
	r.logger.Debug("observer detached",
		slog.String("observer_id", o.id.String()),
		slog.Int64("drops", o.Drops()),
		slog.Int("attached", n),
	)
}

// Snapshot copies the current observer set so broadcasting can happen
// without holding the lock.
func (r *Registry) Snapshot() []*Observer {
	r.mu.Lock()
	defer r.mu.Unlock()

	observers := make([]*Observer, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	return observers
}

// Len reports how many observers are attached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// Package state holds the shared, observable client-side copies of server data.
//
// Each store wraps a Container that publishes immutable snapshot pointers.
// Consumers read Snapshot or Subscribe for updates and never modify what they
// receive; only store methods publish.
package state

import (
	"sync"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
)

// slot identifies an independently fetched part of a snapshot (a list, a
// single record). Requests for different slots do not supersede each other.
type slot string

const (
	slotList   slot = "list"
	slotItem   slot = "item"
	slotMutate slot = "mutate"
)

// ticket is handed out when a request starts and checked when it resolves.
type ticket struct {
	slot slot
	gen  uint64
}

type subscriber[S any] struct {
	ch chan *S
}

// Container is a generic observable value with generation-checked updates.
type Container[S any] struct {
	name    string
	metrics *metrics.Metrics
	logger  *log.Logger

	mu      sync.Mutex
	snap    *S
	gen     uint64
	latest  map[slot]uint64
	pending map[slot]struct{}
	floor   uint64
	subs    map[*subscriber[S]]struct{}

	// loading, when set, points at the snapshot's Loading flag. It is kept
	// true while any slot has a request in flight.
	loading func(*S) *bool
}

// NewContainer returns a container publishing initial.
func NewContainer[S any](name string, initial S, m *metrics.Metrics, logger *log.Logger) *Container[S] {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Container[S]{
		name:    name,
		metrics: m,
		logger:  logger.With("container", name),
		snap:    &initial,
		latest:  make(map[slot]uint64),
		pending: make(map[slot]struct{}),
		subs:    make(map[*subscriber[S]]struct{}),
	}
}

// trackLoading derives the Loading flag at field from the set of in-flight
// slots, so one slot settling does not hide another that is still running.
func (c *Container[S]) trackLoading(field func(*S) *bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = field
}

// Name returns the container name used in logs and metrics.
func (c *Container[S]) Name() string {
	return c.name
}

// Snapshot returns the current snapshot. It must not be modified.
func (c *Container[S]) Snapshot() *S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe returns a channel that receives every newer snapshot. A slow
// reader only ever sees the latest one. Call the returned function to
// unsubscribe and close the channel; calling it again is a no-op.
func (c *Container[S]) Subscribe() (<-chan *S, func()) {
	sub := &subscriber[S]{ch: make(chan *S, 1)}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	n := len(c.subs)
	c.mu.Unlock()
	c.metrics.SetSubscribers(c.name, n)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, sub)
			close(sub.ch)
			n := len(c.subs)
			c.mu.Unlock()
			c.metrics.SetSubscribers(c.name, n)
		})
	}
	return sub.ch, unsub
}

// SubscriberCount returns the number of live subscriptions.
func (c *Container[S]) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// begin starts a request for s, publishing the loading state produced by
// mutate. Any earlier request for the same slot becomes stale.
func (c *Container[S]) begin(s slot, mutate func(*S)) ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.latest[s] = c.gen
	c.pending[s] = struct{}{}
	c.publishLocked(mutate)
	return ticket{slot: s, gen: c.gen}
}

// commit publishes the result of the request identified by t unless a newer
// request for the same slot (or a reset) superseded it. ok is recorded as the
// fetch outcome.
func (c *Container[S]) commit(t ticket, ok bool, mutate func(*S)) bool {
	c.mu.Lock()
	if t.gen <= c.floor || c.latest[t.slot] != t.gen {
		c.mu.Unlock()
		c.metrics.ObserveStale(c.name)
		c.logger.Debug("dropping stale response", "slot", string(t.slot), "generation", t.gen)
		return false
	}
	delete(c.pending, t.slot)
	c.publishLocked(mutate)
	c.mu.Unlock()

	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.metrics.ObserveFetch(c.name, outcome)
	return true
}

// fail publishes a local, request-less error for s (such as a missing key)
// and supersedes any in-flight request for that slot.
func (c *Container[S]) fail(s slot, mutate func(*S)) {
	c.mu.Lock()
	c.gen++
	c.latest[s] = c.gen
	delete(c.pending, s)
	c.publishLocked(mutate)
	c.mu.Unlock()
	c.metrics.ObserveFetch(c.name, "missing_key")
}

// set publishes mutate's result without touching generations.
func (c *Container[S]) set(mutate func(*S)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(mutate)
}

// reset publishes initial and makes every in-flight request stale.
func (c *Container[S]) reset(initial S) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.floor = c.gen
	clear(c.pending)
	c.publishLocked(func(s *S) { *s = initial })
}

func (c *Container[S]) publishLocked(mutate func(*S)) {
	next := *c.snap
	mutate(&next)
	if c.loading != nil {
		*c.loading(&next) = len(c.pending) > 0
	}
	c.snap = &next

	for sub := range c.subs {
		select {
		case sub.ch <- c.snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- c.snap
		}
	}
}

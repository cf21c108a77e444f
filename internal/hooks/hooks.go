// Package hooks binds consumers (commands, TUI views) to the shared state
// containers. A hook subscribes on construction, fetches in the background,
// refetches when its parameters change and unsubscribes on Close.
package hooks

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

// SessionReader is the read side of the session store.
type SessionReader interface {
	Read() (*session.Session, bool)
}

// Scope creates hooks against one set of stores and one session.
type Scope struct {
	stores  *state.Stores
	session SessionReader
	logger  *log.Logger
}

// NewScope returns a Scope. session may be nil, in which case empty
// parameters are never filled in.
func NewScope(stores *state.Stores, sess SessionReader, logger *log.Logger) *Scope {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Scope{stores: stores, session: sess, logger: logger}
}

func (sc *Scope) current() session.Session {
	if sc.session == nil {
		return session.Session{}
	}
	s, ok := sc.session.Read()
	if !ok {
		return session.Session{}
	}
	return *s
}

func (sc *Scope) teamOr(teamID string) string {
	if teamID != "" {
		return teamID
	}
	return sc.current().CurrentTeamID
}

func (sc *Scope) groupOr(groupID string) string {
	if groupID != "" {
		return groupID
	}
	return sc.current().GroupID
}

// base is the container-agnostic part of every hook.
type base[S any] struct {
	c       *state.Container[S]
	loading func(*S) bool
	fetch   func(ctx context.Context, params []string)
	resolve func(params []string) []string
	ctx     context.Context
	logger  *log.Logger

	updates <-chan *S
	unsub   func()

	mu     sync.Mutex
	params []string
	done   chan struct{}
	closed bool
}

func mount[S any](ctx context.Context, sc *Scope, c *state.Container[S], loading func(*S) bool,
	resolve func([]string) []string, fetch func(context.Context, []string), params ...string) *base[S] {
	if resolve == nil {
		resolve = func(p []string) []string { return p }
	}
	h := &base[S]{
		c:       c,
		loading: loading,
		fetch:   fetch,
		resolve: resolve,
		ctx:     ctx,
		logger:  sc.logger.With("hook", c.Name()),
	}
	h.updates, h.unsub = c.Subscribe()

	h.mu.Lock()
	h.params = resolve(params)
	h.startLocked()
	h.mu.Unlock()
	return h
}

// startLocked runs fetch for the current params in the background.
func (h *base[S]) startLocked() {
	done := make(chan struct{})
	h.done = done
	if h.fetch == nil {
		close(done)
		return
	}
	params := slices.Clone(h.params)
	go func() {
		defer close(done)
		h.fetch(h.ctx, params)
	}()
}

// setParams refetches when the resolved parameters differ from the last ones.
func (h *base[S]) setParams(params ...string) bool {
	resolved := h.resolve(params)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || slices.Equal(resolved, h.params) {
		return false
	}
	h.logger.Debug("parameters changed", "params", resolved)
	h.params = resolved
	h.startLocked()
	return true
}

// Snapshot returns the latest snapshot of the bound container.
func (h *base[S]) Snapshot() *S {
	return h.c.Snapshot()
}

// Updates delivers every newer snapshot until Close.
func (h *base[S]) Updates() <-chan *S {
	return h.updates
}

// Wait blocks until the hook's latest fetch has resolved and the container
// is not loading, and returns that snapshot.
func (h *base[S]) Wait(ctx context.Context) (*S, error) {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ch, unsub := h.c.Subscribe()
	defer unsub()
	for {
		snap := h.c.Snapshot()
		if !h.loading(snap) {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close unsubscribes. In-flight requests keep running and still land in the
// shared container. Calling Close more than once is a no-op.
func (h *base[S]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()
	h.unsub()
}

func asError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

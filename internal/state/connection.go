package state

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/status"
)

// ConnectionSnapshot is a consistent view of a Connection.
type ConnectionSnapshot[R, S any] struct {
	Lifecycle ConnectionLifecycle
	Status    status.Descriptor
}

// Connection holds the client↔daemon lifecycle and its status descriptor.
//
// A Connection has a single writer. Readers on other goroutines must use
// Snapshot to read the lifecycle and descriptor together.
type Connection[R, S any] struct {
	current   atomic.Pointer[ConnectionSnapshot[R, S]]
	graph     *Graph
	observers observers
	log       *slog.Logger
	now       func() time.Time
}

// NewConnection creates a connection in the Init state.
func NewConnection[R, S any](opts ...Option) *Connection[R, S] {
	o := newOptions(opts)
	c := &Connection[R, S]{
		log: o.log,
		now: o.now,
	}
	if o.graph {
		c.graph = NewConnectionGraph(c.Phase)
	}
	c.current.Store(&ConnectionSnapshot[R, S]{Lifecycle: Init{}, Status: status.Placeholder})
	c.ToInit()
	return c
}

// OnTransition registers a callback to be called after each transition.
func (c *Connection[R, S]) OnTransition(cb TransitionCallback) {
	c.observers.add(cb)
}

// Snapshot returns the current lifecycle and its descriptor.
func (c *Connection[R, S]) Snapshot() ConnectionSnapshot[R, S] {
	return *c.current.Load()
}

// Lifecycle returns the current lifecycle variant.
func (c *Connection[R, S]) Lifecycle() ConnectionLifecycle {
	return c.current.Load().Lifecycle
}

// Status returns the current status descriptor.
func (c *Connection[R, S]) Status() status.Descriptor {
	return c.current.Load().Status
}

// Phase returns the phase of the current lifecycle variant.
func (c *Connection[R, S]) Phase() Phase {
	return c.current.Load().Lifecycle.Phase()
}

// ToInit moves to Init, releasing any owned transport.
func (c *Connection[R, S]) ToInit() {
	c.apply(Init{}, TriggerToInit)
}

// ToDaemonBootingUp moves to DaemonBootingUp, releasing any owned transport.
func (c *Connection[R, S]) ToDaemonBootingUp(startTime time.Time) {
	c.apply(DaemonBootingUp{StartTime: startTime}, TriggerToDaemonBootingUp)
}

// ToConnectingToDaemon moves to ConnectingToDaemon, releasing any owned transport.
func (c *Connection[R, S]) ToConnectingToDaemon() {
	c.apply(ConnectingToDaemon{}, TriggerToConnectingToDaemon)
}

// ToRunning moves to Running and takes ownership of transport.
// A different transport owned by a previous Running is closed.
func (c *Connection[R, S]) ToRunning(transport Transport[R, S], sync SyncState) {
	c.apply(Running[R, S]{transport: transport, sync: sync}, TriggerToRunning)
}

// IsRunning returns true if the current variant is Running.
func (c *Connection[R, S]) IsRunning() bool {
	_, ok := c.current.Load().Lifecycle.(Running[R, S])
	return ok
}

// Transport returns the owned transport while Running.
// The returned handle must not be retained past the next transition.
func (c *Connection[R, S]) Transport() (Transport[R, S], bool) {
	r, ok := c.current.Load().Lifecycle.(Running[R, S])
	if !ok {
		return nil, false
	}
	return r.transport, true
}

// Sync returns the nested sync state while Running.
func (c *Connection[R, S]) Sync() (SyncState, bool) {
	r, ok := c.current.Load().Lifecycle.(Running[R, S])
	if !ok {
		return SyncNo, false
	}
	return r.sync, true
}

// SetSync replaces the sync state of the active Running variant.
// It returns false and changes nothing when not Running.
func (c *Connection[R, S]) SetSync(sync SyncState) bool {
	prev := c.current.Load()
	r, ok := prev.Lifecycle.(Running[R, S])
	if !ok {
		return false
	}
	r.sync = sync
	c.current.Store(&ConnectionSnapshot[R, S]{Lifecycle: r, Status: prev.Status})

	c.observers.notify(Transition{
		Kind:    KindConnection,
		From:    PhaseRunning,
		To:      PhaseRunning,
		Trigger: TriggerToRunning,
		Status:  prev.Status,
		At:      c.now(),
	})
	return true
}

func (c *Connection[R, S]) apply(next ConnectionLifecycle, trigger Trigger) {
	prev := c.current.Load()
	from := prev.Lifecycle.Phase()

	unexpected := false
	if c.graph != nil && !c.graph.Allows(context.Background(), trigger) {
		unexpected = true
		c.log.Warn("unexpected connection transition", "from", from, "trigger", trigger)
	}

	snap := &ConnectionSnapshot[R, S]{Lifecycle: next, Status: Describe(next.Phase())}
	c.current.Store(snap)

	c.release(prev.Lifecycle, next)

	c.observers.notify(Transition{
		Kind:       KindConnection,
		From:       from,
		To:         next.Phase(),
		Trigger:    trigger,
		Status:     snap.Status,
		Unexpected: unexpected,
		At:         c.now(),
	})
}

// release closes the transport owned by prev unless next keeps it.
func (c *Connection[R, S]) release(prev, next ConnectionLifecycle) {
	old, ok := prev.(Running[R, S])
	if !ok || old.transport == nil {
		return
	}
	if r, ok := next.(Running[R, S]); ok && sameTransport(old.transport, r.transport) {
		return
	}
	if err := old.transport.Close(); err != nil {
		c.log.Warn("failed to close transport", "error", err)
	}
}

package state

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/status"
)

// RegistrationSnapshot is a consistent view of a Registration.
type RegistrationSnapshot struct {
	Lifecycle RegistrationLifecycle
	Status    status.Descriptor
}

// Registration holds the pairing lifecycle and its status descriptor.
// It is independent of Connection.
type Registration[ID any] struct {
	current   atomic.Pointer[RegistrationSnapshot]
	graph     *Graph
	observers observers
	log       *slog.Logger
	now       func() time.Time
}

// NewRegistration creates a registration in the NotSent state.
func NewRegistration[ID any](opts ...Option) *Registration[ID] {
	o := newOptions(opts)
	r := &Registration[ID]{
		log: o.log,
		now: o.now,
	}
	if o.graph {
		r.graph = NewRegistrationGraph(r.Phase)
	}
	r.current.Store(&RegistrationSnapshot{Lifecycle: NotSent{}, Status: status.Placeholder})
	r.ToNotSent()
	return r
}

// OnTransition registers a callback to be called after each transition.
func (r *Registration[ID]) OnTransition(cb TransitionCallback) {
	r.observers.add(cb)
}

// Snapshot returns the current lifecycle and its descriptor.
func (r *Registration[ID]) Snapshot() RegistrationSnapshot {
	return *r.current.Load()
}

// Lifecycle returns the current lifecycle variant.
func (r *Registration[ID]) Lifecycle() RegistrationLifecycle {
	return r.current.Load().Lifecycle
}

// Status returns the current status descriptor.
func (r *Registration[ID]) Status() status.Descriptor {
	return r.current.Load().Status
}

// Phase returns the phase of the current lifecycle variant.
func (r *Registration[ID]) Phase() Phase {
	return r.current.Load().Lifecycle.Phase()
}

// ToNotSent resets the registration, dropping any identifier.
func (r *Registration[ID]) ToNotSent() {
	r.apply(NotSent{}, TriggerToNotSent)
}

// ToSent records an outstanding pairing request.
func (r *Registration[ID]) ToSent() {
	r.apply(Sent{}, TriggerToSent)
}

// ToConnected stores the identifier issued by the pairing service.
func (r *Registration[ID]) ToConnected(id ID) {
	r.apply(Connected[ID]{ID: id}, TriggerToConnected)
}

// IsConnected returns true if the current variant is Connected.
func (r *Registration[ID]) IsConnected() bool {
	_, ok := r.current.Load().Lifecycle.(Connected[ID])
	return ok
}

// ID returns the stored identifier while Connected.
func (r *Registration[ID]) ID() (ID, bool) {
	c, ok := r.current.Load().Lifecycle.(Connected[ID])
	if !ok {
		var zero ID
		return zero, false
	}
	return c.ID, true
}

func (r *Registration[ID]) apply(next RegistrationLifecycle, trigger Trigger) {
	from := r.current.Load().Lifecycle.Phase()

	unexpected := false
	if r.graph != nil && !r.graph.Allows(context.Background(), trigger) {
		unexpected = true
		r.log.Warn("unexpected registration transition", "from", from, "trigger", trigger)
	}

	snap := &RegistrationSnapshot{Lifecycle: next, Status: Describe(next.Phase())}
	r.current.Store(snap)

	r.observers.notify(Transition{
		Kind:       KindRegistration,
		From:       from,
		To:         next.Phase(),
		Trigger:    trigger,
		Status:     snap.Status,
		Unexpected: unexpected,
		At:         r.now(),
	})
}

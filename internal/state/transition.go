package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/status"
)

// Kind identifies which container produced a transition.
type Kind string

const (
	KindConnection   Kind = "connection"
	KindRegistration Kind = "registration"
)

// Transition describes an applied transition.
type Transition struct {
	Kind    Kind
	From    Phase
	To      Phase
	Trigger Trigger
	Status  status.Descriptor
	// Unexpected is set when the edge is outside the container's Graph.
	// The transition has been applied regardless.
	Unexpected bool
	At         time.Time
}

// TransitionCallback is called after a transition has been applied.
// It must not transition the container that invoked it.
type TransitionCallback func(t Transition)

// Option configures a container.
type Option func(*options)

type options struct {
	log   *slog.Logger
	now   func() time.Time
	graph bool
}

func newOptions(opts []Option) options {
	o := options{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for warnings.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock sets the clock used to timestamp transitions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithGraph checks every transition against the conventional order and flags
// edges outside it as unexpected. Transitions are applied either way.
func WithGraph() Option {
	return func(o *options) {
		o.graph = true
	}
}

type observers struct {
	mu        sync.RWMutex
	callbacks []TransitionCallback
}

func (o *observers) add(cb TransitionCallback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks = append(o.callbacks, cb)
}

func (o *observers) notify(t Transition) {
	o.mu.RLock()
	callbacks := make([]TransitionCallback, len(o.callbacks))
	copy(callbacks, o.callbacks)
	o.mu.RUnlock()

	for _, cb := range callbacks {
		cb(t)
	}
}

// Package state provides the client↔daemon connection and pairing registration lifecycles.
//
// Each container pairs one lifecycle variant with the status descriptor derived
// from it. Transitions replace both in a single atomic store, so a reader taking
// a Snapshot never sees a descriptor belonging to a previous variant.
package state

import "time"

// Phase names a lifecycle variant.
type Phase string

const (
	// Connection phases
	PhaseInit               Phase = "init"
	PhaseDaemonBootingUp    Phase = "daemon_booting_up"
	PhaseConnectingToDaemon Phase = "connecting_to_daemon"
	PhaseRunning            Phase = "running"

	// Registration phases
	PhaseNotSent   Phase = "not_sent"
	PhaseSent      Phase = "sent"
	PhaseConnected Phase = "connected"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsConnectionPhase returns true if the phase belongs to the connection lifecycle.
func (p Phase) IsConnectionPhase() bool {
	switch p {
	case PhaseInit, PhaseDaemonBootingUp, PhaseConnectingToDaemon, PhaseRunning:
		return true
	default:
		return false
	}
}

// IsRegistrationPhase returns true if the phase belongs to the registration lifecycle.
func (p Phase) IsRegistrationPhase() bool {
	switch p {
	case PhaseNotSent, PhaseSent, PhaseConnected:
		return true
	default:
		return false
	}
}

// ConnectionLifecycle is one variant of the connection lifecycle:
// Init, DaemonBootingUp, ConnectingToDaemon or Running.
type ConnectionLifecycle interface {
	Phase() Phase
	connectionLifecycle()
}

// Init is the entry point and reset variant.
type Init struct{}

func (Init) Phase() Phase { return PhaseInit }
func (Init) connectionLifecycle() {}

// DaemonBootingUp records when the daemon was observed to start booting.
type DaemonBootingUp struct {
	StartTime time.Time
}

func (DaemonBootingUp) Phase() Phase { return PhaseDaemonBootingUp }
func (DaemonBootingUp) connectionLifecycle() {}

// ConnectingToDaemon means a handshake is in progress outside this package.
type ConnectingToDaemon struct{}

func (ConnectingToDaemon) Phase() Phase { return PhaseConnectingToDaemon }
func (ConnectingToDaemon) connectionLifecycle() {}

// Running owns the live transport and the nested sync state.
// It can only be entered through Connection.ToRunning.
type Running[R, S any] struct {
	transport Transport[R, S]
	sync      SyncState
}

func (Running[R, S]) Phase() Phase { return PhaseRunning }
func (Running[R, S]) connectionLifecycle() {}

// Transport returns the owned transport. It must not be retained past the next transition.
func (r Running[R, S]) Transport() Transport[R, S] {
	return r.transport
}

// Sync returns the synchronization sub-state.
func (r Running[R, S]) Sync() SyncState {
	return r.sync
}

// RegistrationLifecycle is one variant of the registration lifecycle:
// NotSent, Sent or Connected.
type RegistrationLifecycle interface {
	Phase() Phase
	registrationLifecycle()
}

// NotSent means no pairing request has been sent.
type NotSent struct{}

func (NotSent) Phase() Phase { return PhaseNotSent }
func (NotSent) registrationLifecycle() {}

// Sent means a pairing request is outstanding.
type Sent struct{}

func (Sent) Phase() Phase { return PhaseSent }
func (Sent) registrationLifecycle() {}

// Connected holds the identifier issued by the pairing service.
type Connected[ID any] struct {
	ID ID
}

func (Connected[ID]) Phase() Phase { return PhaseConnected }
func (Connected[ID]) registrationLifecycle() {}

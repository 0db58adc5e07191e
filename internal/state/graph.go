package state

import (
	"context"

	"github.com/qmuntal/stateless"
)

// Graph describes the conventional order in which an orchestrator drives a
// container. It reads the container's current phase and never stores state of
// its own, so it cannot drift from the container it checks.
type Graph struct {
	sm *stateless.StateMachine
}

func newGraph(current func() Phase) *stateless.StateMachine {
	return stateless.NewStateMachineWithExternalStorage(
		func(_ context.Context) (stateless.State, error) {
			return current(), nil
		},
		func(_ context.Context, _ stateless.State) error {
			return nil
		},
		stateless.FiringImmediate,
	)
}

// NewConnectionGraph creates the graph for the connection lifecycle.
func NewConnectionGraph(current func() Phase) *Graph {
	sm := newGraph(current)

	// Configure Init state
	sm.Configure(PhaseInit).
		PermitReentry(TriggerToInit).
		Permit(TriggerToDaemonBootingUp, PhaseDaemonBootingUp).
		Permit(TriggerToConnectingToDaemon, PhaseConnectingToDaemon)

	// Configure DaemonBootingUp state
	sm.Configure(PhaseDaemonBootingUp).
		PermitReentry(TriggerToDaemonBootingUp).
		Permit(TriggerToConnectingToDaemon, PhaseConnectingToDaemon).
		Permit(TriggerToInit, PhaseInit)

	// Configure ConnectingToDaemon state
	sm.Configure(PhaseConnectingToDaemon).
		PermitReentry(TriggerToConnectingToDaemon).
		Permit(TriggerToRunning, PhaseRunning).
		Permit(TriggerToDaemonBootingUp, PhaseDaemonBootingUp).
		Permit(TriggerToInit, PhaseInit)

	// Configure Running state
	sm.Configure(PhaseRunning).
		PermitReentry(TriggerToRunning).
		Permit(TriggerToConnectingToDaemon, PhaseConnectingToDaemon).
		Permit(TriggerToDaemonBootingUp, PhaseDaemonBootingUp).
		Permit(TriggerToInit, PhaseInit)

	return &Graph{sm: sm}
}

// NewRegistrationGraph creates the graph for the registration lifecycle.
func NewRegistrationGraph(current func() Phase) *Graph {
	sm := newGraph(current)

	// A saved pairing is restored straight to Connected
	sm.Configure(PhaseNotSent).
		PermitReentry(TriggerToNotSent).
		Permit(TriggerToSent, PhaseSent).
		Permit(TriggerToConnected, PhaseConnected)

	sm.Configure(PhaseSent).
		PermitReentry(TriggerToSent).
		Permit(TriggerToConnected, PhaseConnected).
		Permit(TriggerToNotSent, PhaseNotSent)

	// Logout resets to NotSent
	sm.Configure(PhaseConnected).
		PermitReentry(TriggerToConnected).
		Permit(TriggerToNotSent, PhaseNotSent)

	return &Graph{sm: sm}
}

// Allows returns true if the trigger follows the conventional order from the current phase.
func (g *Graph) Allows(ctx context.Context, trigger Trigger) bool {
	ok, err := g.sm.CanFireCtx(ctx, trigger)
	return err == nil && ok
}

// Permitted returns the triggers allowed from the current phase.
func (g *Graph) Permitted(ctx context.Context) ([]Trigger, error) {
	triggers, err := g.sm.PermittedTriggersCtx(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Trigger, 0, len(triggers))
	for _, t := range triggers {
		out = append(out, t.(Trigger))
	}
	return out, nil
}

// Package store provides persistence for the transition journal and pairing state.
package store

import (
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/state"
)

// Transition represents a journaled state transition.
type Transition struct {
	ID         int64       `json:"id"`
	SessionID  string      `json:"session_id"`
	Kind       state.Kind  `json:"kind"`
	FromPhase  state.Phase `json:"from_phase"`
	ToPhase    state.Phase `json:"to_phase"`
	Label      string      `json:"label"`
	Color      string      `json:"color"`
	CadenceMs  uint32      `json:"cadence_ms"`
	Unexpected bool        `json:"unexpected"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewTransition builds a journal record from an applied transition.
func NewTransition(sessionID string, t state.Transition) *Transition {
	return &Transition{
		SessionID:  sessionID,
		Kind:       t.Kind,
		FromPhase:  t.From,
		ToPhase:    t.To,
		Label:      t.Status.Label(),
		Color:      t.Status.Color().String(),
		CadenceMs:  t.Status.CadenceMs(),
		Unexpected: t.Unexpected,
		Timestamp:  t.At,
	}
}

// Pairing is the identifier issued by the pairing service.
type Pairing struct {
	RemoteID  string    `json:"remote_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

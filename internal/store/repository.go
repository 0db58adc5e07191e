package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested item is not found.
var ErrNotFound = errors.New("not found")

// TransitionRepository defines operations for the transition journal.
type TransitionRepository interface {
	LogTransition(ctx context.Context, t *Transition) error
	GetTransitionHistory(ctx context.Context, limit int) ([]Transition, error)
	CountTransitions(ctx context.Context, sessionID string) (int, error)
}

// PairingRepository defines operations for pairing persistence.
type PairingRepository interface {
	SavePairing(ctx context.Context, remoteID string) error
	GetPairing(ctx context.Context) (*Pairing, error)
	ClearPairing(ctx context.Context) error
}

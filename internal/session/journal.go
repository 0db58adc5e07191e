package session

import (
	"context"

	"github.com/ihiteshgupta/daemonlink/internal/state"
	"github.com/ihiteshgupta/daemonlink/internal/store"
)

// observe logs, journals and counts every applied transition.
func (s *Session) observe(t state.Transition) {
	attrs := []any{
		"machine", t.Kind,
		"from", t.From,
		"to", t.To,
		"label", t.Status.Label(),
	}
	if t.Unexpected {
		s.log.Warn("unexpected state transition", attrs...)
	} else {
		s.log.Info("state transition", attrs...)
	}

	if s.transitions != nil {
		if err := s.transitions.LogTransition(context.Background(), store.NewTransition(s.id, t)); err != nil {
			s.log.Error("failed to log transition", "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(t)
	}
}

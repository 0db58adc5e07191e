// Package metrics exports lifecycle transitions as Prometheus metrics.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ihiteshgupta/daemonlink/internal/state"
)

var phasesByKind = map[state.Kind][]state.Phase{
	state.KindConnection: {
		state.PhaseInit,
		state.PhaseDaemonBootingUp,
		state.PhaseConnectingToDaemon,
		state.PhaseRunning,
	},
	state.KindRegistration: {
		state.PhaseNotSent,
		state.PhaseSent,
		state.PhaseConnected,
	},
}

// Recorder records transitions as Prometheus metrics.
type Recorder struct {
	registry    *prom.Registry
	transitions *prom.CounterVec
	unexpected  *prom.CounterVec
	phase       *prom.GaugeVec
	reconnects  prom.Counter
}

// NewRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "daemonlink",
			Name:      "transitions_total",
			Help:      "Applied lifecycle transitions by machine and target phase",
		}, []string{"machine", "to"}),
		unexpected: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "daemonlink",
			Name:      "unexpected_transitions_total",
			Help:      "Transitions applied outside the conventional order",
		}, []string{"machine", "from", "to"}),
		phase: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "daemonlink",
			Name:      "phase",
			Help:      "1 for the active phase of each machine, 0 otherwise",
		}, []string{"machine", "phase"}),
		reconnects: prom.NewCounter(prom.CounterOpts{
			Namespace: "daemonlink",
			Name:      "reconnects_total",
			Help:      "Reconnection attempts after losing or failing to reach the daemon",
		}),
	}
	reg.MustRegister(r.transitions, r.unexpected, r.phase, r.reconnects)
	return r
}

// ObserveTransition records an applied transition. It can be registered
// directly as a state.TransitionCallback.
func (r *Recorder) ObserveTransition(t state.Transition) {
	machine := string(t.Kind)
	r.transitions.WithLabelValues(machine, string(t.To)).Inc()
	if t.Unexpected {
		r.unexpected.WithLabelValues(machine, string(t.From), string(t.To)).Inc()
	}
	for _, p := range phasesByKind[t.Kind] {
		v := 0.0
		if p == t.To {
			v = 1
		}
		r.phase.WithLabelValues(machine, string(p)).Set(v)
	}
}

// IncReconnects counts a reconnection attempt.
func (r *Recorder) IncReconnects() {
	r.reconnects.Inc()
}

// Handler returns the HTTP handler exposing the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

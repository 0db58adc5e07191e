// Package session drives the connection and registration lifecycles against a running daemon.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ihiteshgupta/daemonlink/internal/config"
	"github.com/ihiteshgupta/daemonlink/internal/link"
	"github.com/ihiteshgupta/daemonlink/internal/metrics"
	"github.com/ihiteshgupta/daemonlink/internal/state"
	"github.com/ihiteshgupta/daemonlink/internal/status"
	"github.com/ihiteshgupta/daemonlink/internal/store"
)

var (
	// ErrNotRunning is returned when an operation needs a live daemon link.
	ErrNotRunning = errors.New("not connected to daemon")
	// ErrBootTimeout is returned when the daemon does not come up within the boot timeout.
	ErrBootTimeout = errors.New("daemon boot timed out")
	// ErrRetriesExhausted is returned after too many consecutive failed attempts.
	ErrRetriesExhausted = errors.New("reconnect retries exhausted")

	errDaemonBooting = errors.New("daemon is booting")
)

// Transport is the client side of the daemon link.
type Transport = state.Transport[link.DaemonMessage, link.ClientMessage]

// Connection is the connection lifecycle driven by a Session.
type Connection = state.Connection[link.DaemonMessage, link.ClientMessage]

// Dialer opens a transport to the daemon.
type Dialer func(ctx context.Context) (Transport, error)

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces the default socket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dial = d }
}

// WithStore journals transitions and persists the pairing in st.
func WithStore(st *store.SQLiteStore) Option {
	return func(s *Session) {
		s.transitions = st.Transitions
		s.pairing = st.Pairing
	}
}

// WithMetrics records transitions and reconnects in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Session) { s.metrics = rec }
}

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClock sets the clock used for boot timing and transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session owns one Connection and one Registration.
//
// Run is the only writer of the Connection. Registration writes from Run,
// RequestPairing and Logout are serialized.
type Session struct {
	id     string
	config *config.Config
	conn   *Connection
	reg    *state.Registration[string]

	dial        Dialer
	transitions store.TransitionRepository
	pairing     store.PairingRepository
	metrics     *metrics.Recorder
	reconnect   *reconnector
	log         *slog.Logger
	now         func() time.Time

	// bootStart is owned by Run.
	bootStart time.Time
	regMu     sync.Mutex
}

// New creates a session in Init / NotSent.
func New(cfg *config.Config, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		config:    cfg,
		log:       slog.Default(),
		now:       time.Now,
		reconnect: newReconnector(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay, cfg.ReconnectMaxRetries),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id)
	if s.dial == nil {
		s.dial = s.dialSocket
	}

	stateOpts := []state.Option{state.WithLogger(s.log), state.WithClock(s.now)}
	if cfg.TransitionWarnings {
		stateOpts = append(stateOpts, state.WithGraph())
	}
	s.conn = state.NewConnection[link.DaemonMessage, link.ClientMessage](stateOpts...)
	s.reg = state.NewRegistration[string](stateOpts...)

	s.conn.OnTransition(s.observe)
	s.reg.OnTransition(s.observe)

	return s
}

// ID returns the session identifier used in the transition journal.
func (s *Session) ID() string {
	return s.id
}

// Connection returns the connection lifecycle. Callers must only read it.
func (s *Session) Connection() *Connection {
	return s.conn
}

// Registration returns the registration lifecycle. Callers must only read it.
func (s *Session) Registration() *state.Registration[string] {
	return s.reg
}

// OnTransition registers cb on both lifecycles.
func (s *Session) OnTransition(cb state.TransitionCallback) {
	s.conn.OnTransition(cb)
	s.reg.OnTransition(cb)
}

// ConnectionStatus returns the connection descriptor.
func (s *Session) ConnectionStatus() status.Descriptor {
	return s.conn.Status()
}

// RegistrationStatus returns the registration descriptor.
func (s *Session) RegistrationStatus() status.Descriptor {
	return s.reg.Status()
}

// PairingID returns the identifier issued by the daemon while paired.
func (s *Session) PairingID() (string, bool) {
	return s.reg.ID()
}

// ReconnectCount returns how many times an established link was lost.
func (s *Session) ReconnectCount() int {
	return s.reconnect.reconnectCount()
}

// Run connects to the daemon and keeps the link alive until ctx is done,
// the daemon fails to boot in time, or the retries are exhausted.
// The connection is back in Init when Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info("session started", "network", s.config.DaemonNetwork, "address", s.config.DaemonAddress)
	defer s.log.Info("session stopped")

	for {
		if err := ctx.Err(); err != nil {
			s.conn.ToInit()
			return err
		}

		s.conn.ToConnectingToDaemon()

		t, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.conn.ToInit()
				return ctx.Err()
			}
			s.log.Warn("failed to connect to daemon", "error", err, "attempt", s.reconnect.attempts()+1)
			if err := s.retry(ctx, true); err != nil {
				s.conn.ToInit()
				return err
			}
			continue
		}

		err = s.serve(ctx, t)
		if ctx.Err() != nil {
			s.conn.ToInit()
			return ctx.Err()
		}

		booting := errors.Is(err, errDaemonBooting)
		if booting {
			s.log.Info("daemon is booting up")
		} else {
			s.log.Warn("daemon link lost", "error", err)
			s.conn.ToInit()
			// The daemon was up; a later boot is timed from scratch.
			s.bootStart = time.Time{}
		}
		s.reconnect.countReconnect()
		if s.metrics != nil {
			s.metrics.IncReconnects()
		}

		if err := s.retry(ctx, booting); err != nil {
			s.conn.ToInit()
			return err
		}
	}
}

// connect dials the daemon and moves to Running on success.
func (s *Session) connect(ctx context.Context) (Transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	t, err := s.dial(dialCtx)
	if err != nil {
		return nil, err
	}

	s.conn.ToRunning(t, state.SyncNo)
	s.reconnect.reset()
	s.log.Info("connected to daemon")

	s.restorePairing(ctx)

	return t, nil
}

// serve requests a sync and handles daemon messages until the link fails.
func (s *Session) serve(ctx context.Context, t Transport) error {
	if err := t.Send(ctx, link.ClientMessage{Type: link.ClientSyncRequest}); err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}
	s.conn.SetSync(state.SyncRequested)

	for {
		msg, err := t.Receive(ctx)
		if err != nil {
			return err
		}

		switch msg.Type {
		case link.DaemonSynced:
			s.bootStart = time.Time{}
			s.conn.SetSync(state.SyncYes)

		case link.DaemonBooting:
			return errDaemonBooting

		case link.DaemonPairPending:
			s.withRegistration(func(r *state.Registration[string]) { r.ToSent() })

		case link.DaemonPaired:
			if msg.ID == "" {
				s.log.Warn("ignoring pairing without identifier")
				continue
			}
			s.paired(ctx, msg.ID)

		case link.DaemonUnpaired:
			s.unpaired(ctx)

		case link.DaemonError:
			s.log.Warn("daemon reported an error", "error", msg.Error)

		default:
			s.log.Debug("ignoring unknown daemon message", "type", msg.Type)
		}
	}
}

// retry waits for the next attempt, in DaemonBootingUp when boot is set.
func (s *Session) retry(ctx context.Context, boot bool) error {
	if boot {
		if err := s.booting(); err != nil {
			return err
		}
	}

	delay, ok := s.reconnect.next()
	if !ok {
		s.log.Error("max reconnection retries exceeded", "max_retries", s.config.ReconnectMaxRetries)
		return ErrRetriesExhausted
	}

	s.log.Info("scheduling reconnect", "delay", delay, "attempt", s.reconnect.attempts())
	return wait(ctx, delay)
}

// booting moves to DaemonBootingUp, keeping the time the boot was first seen
// until the daemon reports a completed sync or an established link is lost.
func (s *Session) booting() error {
	now := s.now()
	if s.bootStart.IsZero() {
		s.bootStart = now
	}
	if _, ok := s.conn.Lifecycle().(state.DaemonBootingUp); !ok {
		s.conn.ToDaemonBootingUp(s.bootStart)
	}

	if now.Sub(s.bootStart) > s.config.BootTimeout {
		s.log.Error("daemon did not boot in time", "boot_timeout", s.config.BootTimeout)
		return ErrBootTimeout
	}
	return nil
}

// RequestPairing asks the daemon for a pairing identifier.
// The registration is Sent before the request goes out so that a reply
// arriving while Send is in flight is not overwritten.
func (s *Session) RequestPairing(ctx context.Context) error {
	t, ok := s.conn.Transport()
	if !ok {
		return ErrNotRunning
	}

	var prev state.RegistrationLifecycle
	s.withRegistration(func(r *state.Registration[string]) {
		prev = r.Lifecycle()
		r.ToSent()
	})

	if err := t.Send(ctx, link.ClientMessage{Type: link.ClientPairRequest}); err != nil {
		s.withRegistration(func(r *state.Registration[string]) {
			if r.Phase() != state.PhaseSent {
				return
			}
			if c, ok := prev.(state.Connected[string]); ok {
				r.ToConnected(c.ID)
			} else {
				r.ToNotSent()
			}
		})
		return fmt.Errorf("failed to send pair request: %w", err)
	}

	return nil
}

// Logout drops the pairing locally and, when connected, on the daemon.
func (s *Session) Logout(ctx context.Context) error {
	if t, ok := s.conn.Transport(); ok {
		id, _ := s.reg.ID()
		if err := t.Send(ctx, link.ClientMessage{Type: link.ClientUnpair, ID: id}); err != nil {
			return fmt.Errorf("failed to send unpair: %w", err)
		}
	}

	s.unpaired(ctx)
	return nil
}

func (s *Session) paired(ctx context.Context, id string) {
	s.withRegistration(func(r *state.Registration[string]) {
		r.ToConnected(id)
		if s.pairing == nil {
			return
		}
		if err := s.pairing.SavePairing(ctx, id); err != nil {
			s.log.Error("failed to save pairing", "error", err)
		}
	})
}

func (s *Session) unpaired(ctx context.Context) {
	s.withRegistration(func(r *state.Registration[string]) {
		r.ToNotSent()
		if s.pairing == nil {
			return
		}
		if err := s.pairing.ClearPairing(ctx); err != nil {
			s.log.Error("failed to clear pairing", "error", err)
		}
	})
}

// restorePairing moves to Connected with a previously saved identifier.
// The store read and the transition happen under the registration lock.
func (s *Session) restorePairing(ctx context.Context) {
	if s.pairing == nil {
		return
	}

	s.withRegistration(func(r *state.Registration[string]) {
		if r.IsConnected() {
			return
		}

		p, err := s.pairing.GetPairing(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.log.Error("failed to load pairing", "error", err)
			}
			return
		}

		s.log.Info("restored pairing", "remote_id", p.RemoteID)
		r.ToConnected(p.RemoteID)
	})
}

func (s *Session) withRegistration(fn func(r *state.Registration[string])) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	fn(s.reg)
}

func (s *Session) dialSocket(ctx context.Context) (Transport, error) {
	sock, err := link.Dial(ctx, s.config.DaemonNetwork, s.config.DaemonAddress, s.log)
	if err != nil {
		return nil, err
	}
	return sock, nil
}

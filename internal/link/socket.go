package link

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/state"
)

// ErrClosed is returned when using a closed socket.
var ErrClosed = errors.New("socket closed")

// Socket is a bidirectional channel of JSON messages, one per line.
// R is the received message type, S the sent message type.
type Socket[R, S any] struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	log    *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// ClientSocket is the client side of the daemon link.
type ClientSocket = Socket[DaemonMessage, ClientMessage]

// DaemonSocket is the daemon side of the link.
type DaemonSocket = Socket[ClientMessage, DaemonMessage]

// NewSocket wraps conn.
func NewSocket[R, S any](conn io.ReadWriteCloser, log *slog.Logger) *Socket[R, S] {
	if log == nil {
		log = slog.Default()
	}
	return &Socket[R, S]{
		conn:   conn,
		reader: bufio.NewReader(conn),
		log:    log,
		closed: make(chan struct{}),
	}
}

// Dial connects to the daemon.
func Dial(ctx context.Context, network, address string, log *slog.Logger) (*ClientSocket, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial daemon: %w", err)
	}
	return NewSocket[DaemonMessage, ClientMessage](conn, log), nil
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Receive reads the next message. It returns io.EOF when the peer closes the link.
func (s *Socket[R, S]) Receive(ctx context.Context) (R, error) {
	var msg R

	if err := s.check(ctx); err != nil {
		return msg, err
	}

	if dl, ok := s.conn.(readDeadliner); ok {
		_ = dl.SetReadDeadline(time.Time{})
		stop := context.AfterFunc(ctx, func() {
			_ = dl.SetReadDeadline(time.Now())
		})
		defer stop()
	}

	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return msg, ctxErr
		}
		if s.isClosed() {
			return msg, ErrClosed
		}
		if err == io.EOF {
			return msg, err
		}
		return msg, fmt.Errorf("failed to read message: %w", err)
	}

	s.log.Debug("received message", "raw", string(line))

	if err := json.Unmarshal(line, &msg); err != nil {
		return msg, fmt.Errorf("failed to parse message: %w", err)
	}

	return msg, nil
}

// Send writes a message followed by a newline.
func (s *Socket[R, S]) Send(ctx context.Context, msg S) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if dl, ok := s.conn.(writeDeadliner); ok {
		deadline, _ := ctx.Deadline()
		_ = dl.SetWriteDeadline(deadline)
	}

	s.log.Debug("sending message", "raw", string(data))

	if _, err := s.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Close closes the underlying connection. It is safe to call more than once.
func (s *Socket[R, S]) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Socket[R, S]) check(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *Socket[R, S]) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

var _ state.Transport[DaemonMessage, ClientMessage] = (*ClientSocket)(nil)

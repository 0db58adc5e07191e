package link

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipe(t *testing.T) (*ClientSocket, *DaemonSocket) {
	clientConn, daemonConn := net.Pipe()
	client := NewSocket[DaemonMessage, ClientMessage](clientConn, slog.Default())
	daemon := NewSocket[ClientMessage, DaemonMessage](daemonConn, slog.Default())
	t.Cleanup(func() {
		client.Close()
		daemon.Close()
	})
	return client, daemon
}

func TestSocket_SendReceive(t *testing.T) {
	client, daemon := newPipe(t)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Send(ctx, ClientMessage{Type: ClientPairRequest})
	}()

	msg, err := daemon.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClientMessage{Type: ClientPairRequest}, msg)
	require.NoError(t, <-errCh)

	go func() {
		errCh <- daemon.Send(ctx, DaemonMessage{Type: DaemonPaired, ID: "abc123"})
	}()

	reply, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, DaemonMessage{Type: DaemonPaired, ID: "abc123"}, reply)
	require.NoError(t, <-errCh)
}

func TestSocket_ReceiveEOF(t *testing.T) {
	client, daemon := newPipe(t)

	require.NoError(t, daemon.Close())

	_, err := client.Receive(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSocket_ReceiveCancelled(t *testing.T) {
	client, _ := newPipe(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Receive(ctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("receive did not return after cancellation")
	}
}

func TestSocket_ReceiveMalformed(t *testing.T) {
	clientConn, daemonConn := net.Pipe()
	client := NewSocket[DaemonMessage, ClientMessage](clientConn, nil)
	defer client.Close()
	defer daemonConn.Close()

	go func() {
		_, _ = daemonConn.Write([]byte("not json\n"))
	}()

	_, err := client.Receive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse message")
}

func TestSocket_CloseIsIdempotent(t *testing.T) {
	client, _ := newPipe(t)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	err := client.Send(context.Background(), ClientMessage{Type: ClientSyncRequest})
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = client.Receive(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestDial(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "daemon.sock")
	ln, err := net.Listen("unix", addr)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client, err := Dial(ctx, "unix", addr, nil)
	require.NoError(t, err)
	defer client.Close()

	conn := <-accepted
	daemon := NewSocket[ClientMessage, DaemonMessage](conn, nil)
	defer daemon.Close()

	go func() {
		_ = daemon.Send(ctx, DaemonMessage{Type: DaemonSynced})
	}()

	msg, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, DaemonSynced, msg.Type)
}

func TestDial_NoDaemon(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "missing.sock")

	_, err := Dial(context.Background(), "unix", addr, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dial daemon")
}

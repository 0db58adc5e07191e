package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ihiteshgupta/daemonlink/internal/config"
	"github.com/ihiteshgupta/daemonlink/internal/session"
	"github.com/ihiteshgupta/daemonlink/internal/status"
)

func TestAnsiColor(t *testing.T) {
	assert.Equal(t, "\033[31m", ansiColor(status.Alert))
	assert.Equal(t, "\033[33m", ansiColor(status.Pending))
	assert.Equal(t, "\033[32m", ansiColor(status.Success))
	assert.Equal(t, "\033[37m", ansiColor(status.Neutral))
}

func TestFormatStatus(t *testing.T) {
	d := status.New("Connecting...", status.Pending, 100)

	got := formatStatus("daemon", d, 1)
	assert.Equal(t, "⠙ daemon: \033[33mConnecting...\033[0m", got)

	// No cadence, no spinner
	got = formatStatus("daemon", status.Placeholder, 3)
	assert.Equal(t, "  daemon: \033[37m..\033[0m", got)
}

func TestAnimation_Advance(t *testing.T) {
	var a animation
	d := status.New("Connected", status.Success, 200)
	t0 := time.Now()

	assert.Equal(t, 1, a.advance(d, t0))
	assert.Equal(t, 1, a.advance(d, t0.Add(100*time.Millisecond)))
	assert.Equal(t, 2, a.advance(d, t0.Add(200*time.Millisecond)))

	// Zero cadence freezes the frame
	assert.Equal(t, 2, a.advance(status.Placeholder, t0.Add(time.Hour)))
}

func TestRenderer_Draw(t *testing.T) {
	s := session.New(config.DefaultConfig(), session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	var buf bytes.Buffer
	r := newRenderer(&buf, s)

	now := time.Now()
	r.draw(now)
	out := buf.String()
	assert.Contains(t, out, "Offline")
	assert.Contains(t, out, "Not yet sent")
	assert.Contains(t, out, ansiClearLine)

	// Unchanged line is not redrawn
	buf.Reset()
	r.draw(now)
	assert.Empty(t, buf.String())
}

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ihiteshgupta/daemonlink/internal/session"
	"github.com/ihiteshgupta/daemonlink/internal/status"
)

const (
	ansiReset     = "\033[0m"
	ansiClearLine = "\r\033[K"

	renderTick = 50 * time.Millisecond
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ansiColor maps a color class to a terminal color.
func ansiColor(c status.ColorClass) string {
	switch c {
	case status.Alert:
		return "\033[31m"
	case status.Pending:
		return "\033[33m"
	case status.Success:
		return "\033[32m"
	default:
		return "\033[37m"
	}
}

// animation advances a spinner at the cadence of the descriptor it shows.
type animation struct {
	frame int
	last  time.Time
}

func (a *animation) advance(d status.Descriptor, now time.Time) int {
	cadence := time.Duration(d.CadenceMs()) * time.Millisecond
	if cadence > 0 && now.Sub(a.last) >= cadence {
		a.frame++
		a.last = now
	}
	return a.frame
}

func formatStatus(name string, d status.Descriptor, frame int) string {
	spinner := " "
	if d.CadenceMs() > 0 {
		spinner = spinnerFrames[frame%len(spinnerFrames)]
	}
	return fmt.Sprintf("%s %s: %s%s%s", spinner, name, ansiColor(d.Color()), d.Label(), ansiReset)
}

// renderer redraws one status line for both lifecycles.
type renderer struct {
	w       io.Writer
	session *session.Session
	conn    animation
	reg     animation
	last    string
}

func newRenderer(w io.Writer, s *session.Session) *renderer {
	return &renderer{w: w, session: s}
}

func (r *renderer) line(now time.Time) string {
	conn := r.session.ConnectionStatus()
	reg := r.session.RegistrationStatus()
	return formatStatus("daemon", conn, r.conn.advance(conn, now)) + "   " +
		formatStatus("pairing", reg, r.reg.advance(reg, now))
}

func (r *renderer) draw(now time.Time) {
	line := r.line(now)
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprint(r.w, ansiClearLine+line)
}

func (r *renderer) run(ctx context.Context) {
	ticker := time.NewTicker(renderTick)
	defer ticker.Stop()

	r.draw(time.Now())
	for {
		select {
		case now := <-ticker.C:
			r.draw(now)
		case <-ctx.Done():
			r.draw(time.Now())
			fmt.Fprintln(r.w)
			return
		}
	}
}

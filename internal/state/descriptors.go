package state

import "github.com/ihiteshgupta/daemonlink/internal/status"

// descriptors is the only source of status descriptors for lifecycle variants.
var descriptors = map[Phase]status.Descriptor{
	PhaseInit:               status.New("Offline", status.Alert, 300),
	PhaseDaemonBootingUp:    status.New("Initializing", status.Pending, 300),
	PhaseConnectingToDaemon: status.New("Connecting...", status.Pending, 100),
	PhaseRunning:            status.New("Connected", status.Success, 200),

	PhaseNotSent:   status.New("Not yet sent", status.Alert, 300),
	PhaseSent:      status.New("Sent, waiting for a response", status.Pending, 100),
	PhaseConnected: status.New("Connected", status.Success, 100),
}

// Describe returns the status descriptor for a phase.
// Unknown phases map to status.Placeholder.
func Describe(p Phase) status.Descriptor {
	if d, ok := descriptors[p]; ok {
		return d
	}
	return status.Placeholder
}

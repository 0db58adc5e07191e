// Package link provides the newline-delimited JSON socket between the client and the daemon.
package link

// ClientMessageType identifies a message sent by the client.
type ClientMessageType string

const (
	ClientSyncRequest ClientMessageType = "sync_request"
	ClientPairRequest ClientMessageType = "pair_request"
	ClientUnpair      ClientMessageType = "unpair"
)

// ClientMessage is sent from the client to the daemon.
type ClientMessage struct {
	Type ClientMessageType `json:"type"`
	ID   string            `json:"id,omitempty"`
}

// DaemonMessageType identifies a message sent by the daemon.
type DaemonMessageType string

const (
	DaemonBooting     DaemonMessageType = "booting"
	DaemonSynced      DaemonMessageType = "synced"
	DaemonPairPending DaemonMessageType = "pair_pending"
	DaemonPaired      DaemonMessageType = "paired"
	DaemonUnpaired    DaemonMessageType = "unpaired"
	DaemonError       DaemonMessageType = "error"
)

// DaemonMessage is sent from the daemon to the client.
type DaemonMessage struct {
	Type  DaemonMessageType `json:"type"`
	ID    string            `json:"id,omitempty"`
	Error string            `json:"error,omitempty"`
}

package state

// SyncState tracks synchronization with the daemon while Running.
type SyncState int

const (
	SyncNo SyncState = iota
	SyncRequested
	SyncYes
)

// IsSynced returns true if the state is exactly SyncYes.
func (s SyncState) IsSynced() bool {
	return s == SyncYes
}

// IsRequested returns true if the state is exactly SyncRequested.
func (s SyncState) IsRequested() bool {
	return s == SyncRequested
}

// String returns the string representation of the sync state.
func (s SyncState) String() string {
	switch s {
	case SyncNo:
		return "no"
	case SyncRequested:
		return "requested"
	case SyncYes:
		return "yes"
	default:
		return "unknown"
	}
}

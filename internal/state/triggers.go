package state

// Trigger represents the transition operation applied to a container.
type Trigger string

const (
	TriggerToInit               Trigger = "to_init"
	TriggerToDaemonBootingUp    Trigger = "to_daemon_booting_up"
	TriggerToConnectingToDaemon Trigger = "to_connecting_to_daemon"
	TriggerToRunning            Trigger = "to_running"

	TriggerToNotSent   Trigger = "to_not_sent"
	TriggerToSent      Trigger = "to_sent"
	TriggerToConnected Trigger = "to_connected"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

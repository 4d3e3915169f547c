package engine

// State is a session's lifecycle state. It is the single source of truth
// for device connectivity; no component keeps a second connected flag.
type State int

// Lifecycle states.
const (
	// Idle: no session activity; the device is available for selection.
	Idle State = iota

	// Connecting: the initial probe is in progress.
	Connecting

	// Connected: probe succeeded, capabilities seeded, modes resolved;
	// polling not yet started.
	Connected

	// Active: polling is running.
	Active

	// Disconnecting: teardown in progress; polling already stopped.
	Disconnecting

	// Disconnected: session ended; equivalent to Idle for reuse.
	Disconnected

	// Faulted: unrecoverable condition; terminal until an explicit
	// caller-driven reconnect.
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Active:
		return "active"
	case Disconnecting:
		return "disconnecting"
	case Disconnected:
		return "disconnected"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// validTransition reports whether moving from one state to another is
// allowed by the lifecycle machine. Faulted is reachable from any
// non-idle state.
func validTransition(from, to State) bool {
	if to == Faulted {
		return from != Idle && from != Disconnected
	}
	switch from {
	case Idle, Disconnected:
		return to == Connecting
	case Connecting:
		return to == Connected
	case Connected:
		return to == Active || to == Disconnecting
	case Active:
		return to == Disconnecting
	case Disconnecting:
		return to == Disconnected
	case Faulted:
		return to == Connecting || to == Disconnecting
	default:
		return false
	}
}

package session

// State is the session lifecycle state.
type State int

const (
	// StateIdle is the initial state before any connect attempt.
	StateIdle State = iota

	// StateConnecting covers token exchange and channel dial.
	StateConnecting

	// StateConnected means the setup frame was sent and the channel
	// is live.
	StateConnected

	// StateDisconnected follows a deliberate disconnect or an
	// abnormal channel close. Connect may be called again.
	StateDisconnected

	// StateError follows a failed connect attempt.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

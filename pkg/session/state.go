// Package session owns the conversation lifecycle: it wires the
// capture pipeline, the remote Live connection, the playback
// scheduler, and the tool bridge together behind a Start/Stop API,
// and runs the state machine on a single event loop.
package session

// State is the session lifecycle state.
type State int32

const (
	// StateIdle means no session is open.
	StateIdle State = iota

	// StateConnecting means setup is in flight: microphone acquired,
	// handshake not yet complete.
	StateConnecting

	// StateListening means the session is open and capture windows are
	// streaming out; nothing is scheduled for playback.
	StateListening

	// StateSpeaking means at least one playback unit is outstanding.
	StateSpeaking

	// StateError means the session ended on a fatal error. Everything
	// is torn down; a new Start is allowed.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Open reports whether a session is currently established.
func (s State) Open() bool {
	return s == StateListening || s == StateSpeaking
}

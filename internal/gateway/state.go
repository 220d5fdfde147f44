package gateway

// State is a shard's position in the connection lifecycle.
type State int

const (
	// StateDisconnected is the initial state, before Start.
	StateDisconnected State = iota

	// StateConnecting means the transport dial is in flight.
	StateConnecting

	// StateAwaitingHello means the transport is open and the shard is
	// waiting for the server's hello frame.
	StateAwaitingHello

	// StateIdentifying means hello arrived and an identify (or resume)
	// has been queued.
	StateIdentifying

	// StateReady means the handshake completed and dispatch events are
	// flowing.
	StateReady

	// StateReconnecting means the connection dropped and a reconnect
	// is scheduled or in progress.
	StateReconnecting

	// StateStopped is terminal until Start is called again.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingHello:
		return "awaiting_hello"
	case StateIdentifying:
		return "identifying"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

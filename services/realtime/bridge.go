package realtime

// EventBridge relays published events between nodes so that participants
// connected to different instances of the server still converge. The
// single-node deployment runs without a bridge.
type EventBridge interface {
	// Start begins listening for remote events and delivers each one to
	// handler. Implementations may no-op.
	Start(handler func(Event)) error

	// Forward sends a locally published event to the other nodes.
	// Best-effort: failures are logged, never surfaced to publishers.
	Forward(ev Event)

	Close() error
}

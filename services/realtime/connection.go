package realtime

import (
	"errors"

	"github.com/devboardui/devboard/db"
)

// ErrTransportFailure reports that delivery to a single connection failed.
// It never propagates to the publisher or to other recipients; the failed
// connection is dropped from its project group instead.
var ErrTransportFailure = errors.New("connection transport failure")

// Connection is a live client transport handle. Send must not block the
// caller: implementations enqueue the event to a per-connection outbound
// queue drained by their own writer, so one slow recipient never delays
// the fan-out to the others.
type Connection interface {
	// ID uniquely identifies the connection for the lifetime of the
	// process.
	ID() string

	// User is the authenticated identity the connection is tagged with.
	User() db.User

	// Send enqueues an event for delivery in call order. It returns
	// ErrTransportFailure when the transport is gone or the outbound
	// queue overflowed.
	Send(ev Event) error

	// Alive reports whether the transport is still usable.
	Alive() bool

	// Close tears the transport down. Idempotent.
	Close()
}

package knx

import "errors"

// Sentinel errors returned by the transports. Callers can test for a
// specific failure with errors.Is.
var (
	// ErrConnectionTimeout is returned by open, send, readProperty and
	// writeProperty when the corresponding ACK/response does not arrive
	// within the configured timeout.
	ErrConnectionTimeout = errors.New("knx: timed out waiting for a response")

	// ErrConnectionRefused is returned when a CONNECT_RESPONSE carries a
	// non-zero status.
	ErrConnectionRefused = errors.New("knx: peer refused the connection")

	// ErrConnectionLost is the heartbeat error for a CONNECTIONSTATE_RESPONSE
	// that carries a non-zero status. A failed heartbeat (this error, or
	// ErrConnectionTimeout when no response arrives) is logged and the
	// transport closes itself: outstanding waiters then fail with ErrClosed
	// and the receive loop terminates.
	ErrConnectionLost = errors.New("knx: connection lost")

	// ErrNotConnected reports an operation on a connection that is not
	// open. The transports in this package do not return it: their
	// constructors return only an opened connection, and operations after
	// Close fail with ErrClosed or with the error of the closed socket.
	ErrNotConnected = errors.New("knx: not connected")

	// ErrInvalidMode is returned for operations that are not valid in the
	// transport's current mode, e.g. sending while in busmonitor layer.
	ErrInvalidMode = errors.New("knx: operation not valid in this mode")

	// ErrClosed is returned by outstanding operations when the owning
	// transport is closed.
	ErrClosed = errors.New("knx: connection was closed")
)

// errResponseTimeout is an internal alias kept for the point-to-point
// connection state machine, which predates the exported sentinel names.
var errResponseTimeout = ErrConnectionTimeout

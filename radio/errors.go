package radio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Session is opened without a Dialer.
	//
	// This indicates a programming error. A Dialer is required in order to
	// establish a connection to the radio.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrTransportOpen is returned when the serial port or the device web
	// form cannot be reached while opening a session.
	//
	// The session stays closed. The operator may pick another port or
	// address and open again.
	ErrTransportOpen = errors.New("transport open failed")

	// ErrTransportIO is returned or reported when an established transport
	// fails to write a command or read a reply.
	//
	// Failures are delivered as *IOError. The network transport reports
	// them as fatal and the session closes itself; a failing serial port
	// is reported and left open for the operator to decide.
	ErrTransportIO = errors.New("transport i/o failed")

	// ErrTransportClosed is returned when a command is sent on a transport
	// that has already been closed.
	ErrTransportClosed = errors.New("transport closed")

	// ErrSendQueueFull is returned by the network transport when more
	// commands are queued than the device can be asked in a reasonable
	// time.
	ErrSendQueueFull = errors.New("send queue full")

	// ErrValidation is returned when a requested write or raw command is
	// rejected before any transport I/O.
	//
	// Typical causes are an access key of odd length or with characters
	// other than hex digits, a band or mode
	// outside the range the firmware knows, or a raw command that does not
	// start with "AT". Nothing is sent to the radio.
	ErrValidation = errors.New("validation failed")

	// ErrSessionOpen is returned when Open is called on a Session that
	// already has a transport. Close it first to switch transports.
	ErrSessionOpen = errors.New("session already open")

	// ErrSessionClosed is returned when an operation needs an open session.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotIdle is returned when a save is requested while the session is
	// still discovering the current configuration.
	//
	// Callers may wait for the SequenceIdle notification and retry.
	ErrNotIdle = errors.New("session not idle")
)

// IOError is a transport failure on an established connection. It matches
// ErrTransportIO with errors.Is.
type IOError struct {
	// Op is the failing operation, "send" or "receive".
	Op string
	// Err is the underlying cause.
	Err error
	// Fatal requests the session to close.
	Fatal bool
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransportIO, e.Op, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrTransportIO, e.Err}
}

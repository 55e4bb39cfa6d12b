package radio

//go:generate go tool mockgen -destination=mock_radio.go -package=radio . Dialer,Observer,Sink,Transport

import (
	"context"
	"io"
)

// Sink receives everything a Transport reads from the radio.
//
// Transports call a Sink from their own goroutine. Receive gets raw chunks
// in arrival order with no framing guarantees; the chunk is only valid for
// the duration of the call. Fail reports a transport failure, usually an
// *IOError.
type Sink interface {
	Receive(chunk []byte)
	Fail(err error)
}

// Transport represents an established connection to the radio.
//
// Send hands one command to the radio and returns without waiting for the
// reply; replies arrive later through the Sink the Transport was dialed
// with. Commands are passed without a terminator, the Transport adds
// whatever its framing needs. Typical implementations are the serial
// console and the web form of the device, or fakes used for testing.
type Transport interface {
	Send(cmd string) error
	io.Closer
}

// Dialer opens a Transport to the radio.
//
// Dialer abstracts how the radio connection is created (for example, via a
// serial port, the device web form, or a test double). A Session dials once
// per open; the Dialer is not used after that.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport
	// that delivers to sink. It may perform blocking operations and should
	// respect cancellation and deadlines provided by the context. Dial
	// returns an error wrapping ErrTransportOpen if the transport cannot be
	// established.
	Dial(ctx context.Context, sink Sink) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, sink Sink) (Transport, error)

// Dial calls f(ctx, sink).
func (f DialerFunc) Dial(ctx context.Context, sink Sink) (Transport, error) {
	return f(ctx, sink)
}

// lineLimiter is implemented by transports whose replies are cut into
// lines of bounded length.
type lineLimiter interface {
	LineLimit() int
}

// retargeter is implemented by transports that address the radio by its
// network IP and follow it when the radio reports a new one.
type retargeter interface {
	Retarget(host string)
}

package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"i4.energy/across/radiocfg/at"
)

// DefaultBaudRate is the console speed of the radio.
const DefaultBaudRate = 115200

// DefaultSerialMode returns the fixed console settings of the radio:
// 115200 baud, 8 data bits, no parity, one stop bit, no flow control.
func DefaultSerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// openPort is swapped out in tests.
var openPort = func(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// ListSerialPorts returns the serial ports present on this machine.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// SerialDialer opens the radio's serial console using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// Mode overrides DefaultSerialMode when set.
	Mode *serial.Mode
}

// Dial opens the port and starts delivering its bytes to sink.
func (d SerialDialer) Dial(ctx context.Context, sink Sink) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("radio: context is nil")
	}
	if d.PortName == "" {
		return nil, fmt.Errorf("%w: serial port name is required", ErrTransportOpen)
	}
	if sink == nil {
		return nil, errors.New("radio: sink is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = DefaultSerialMode()
	}

	port, err := openPort(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrTransportOpen, d.PortName, err)
	}

	return NewSerialTransport(port, sink), nil
}

// SerialTransport speaks the console framing over any byte stream: every
// command is terminated with a carriage return and replies arrive as a
// plain byte stream. It is used for serial ports but works the same over
// a TCP serial bridge.
type SerialTransport struct {
	port io.ReadWriteCloser
	sink Sink

	mu     sync.Mutex
	closed bool
}

// NewSerialTransport takes ownership of port and starts a goroutine that
// reads from it until it fails or the transport is closed.
func NewSerialTransport(port io.ReadWriteCloser, sink Sink) *SerialTransport {
	t := &SerialTransport{
		port: port,
		sink: sink,
	}
	go t.readLoop()
	return t
}

func (t *SerialTransport) readLoop() {
	buf := make([]byte, 512)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.sink.Receive(buf[:n])
		}
		if err != nil {
			if t.isClosed() {
				return
			}
			t.sink.Fail(&IOError{Op: "receive", Err: err})
			return
		}
	}
}

// Send writes cmd followed by a carriage return.
func (t *SerialTransport) Send(cmd string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	wire := cmd + at.CR
	if _, err := t.port.Write([]byte(wire)); err != nil {
		return &IOError{Op: "send", Err: fmt.Errorf("write command %q: %w", cmd, err)}
	}
	return nil
}

// Close closes the port. The read goroutine exits once the pending read
// returns.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	return t.port.Close()
}

// LineLimit caps reply lines the way the serial console does.
func (t *SerialTransport) LineLimit() int {
	return at.SerialLineLimit
}

func (t *SerialTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

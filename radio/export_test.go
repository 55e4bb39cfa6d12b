package radio

import (
	"io"

	"go.bug.st/serial"
)

// SetOpenPort replaces the serial port opener until the returned function
// is called.
func SetOpenPort(open func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)) (restore func()) {
	prev := openPort
	openPort = open
	return func() { openPort = prev }
}

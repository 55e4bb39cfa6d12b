package radio

import (
	"io"
	"strings"
	"sync"
)

// TestPort is a test helper that simulates a serial port using channels.
// Reads block until data is queued with SendData, the same way a real
// port blocks until the radio answers, and return io.EOF once the port is
// closed. Everything written to the port is recorded.
type TestPort struct {
	mu       sync.Mutex
	readChan chan []byte
	written  strings.Builder
	writeErr error
	closed   bool
}

// NewTestPort creates a new test port for testing.
// Exported for use in tests.
func NewTestPort() *TestPort {
	return &TestPort{
		readChan: make(chan []byte, 10),
	}
}

func (p *TestPort) Write(b []byte) (n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written.Write(b)
	return len(b), nil
}

func (p *TestPort) Read(b []byte) (n int, err error) {
	data, ok := <-p.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(b, data), nil
}

func (p *TestPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.readChan)
	return nil
}

// SendData queues data to be read from the port.
// This simulates the radio answering.
func (p *TestPort) SendData(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.readChan <- []byte(data)
	}
}

// Written returns everything written to the port so far.
func (p *TestPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// FailWrites makes every following Write return err.
func (p *TestPort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

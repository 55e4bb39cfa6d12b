package radio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"i4.energy/across/radiocfg/at"
)

const (
	// DefaultFormPath is the device web form that executes AT commands.
	DefaultFormPath = "/boafrm/formAtcmdProcess"
	// DefaultFormField is the form field carrying the command.
	DefaultFormField = "FormAtcmd_Param_Atcmd"
	// DefaultNetworkTimeout bounds a single request to the web form.
	DefaultNetworkTimeout = 10 * time.Second

	// MaxReplySize is the largest response body read from the web form.
	MaxReplySize = 64 * 1024

	sendQueueSize = 32
)

// NetworkDialer tunnels commands through the device web form over HTTP.
type NetworkDialer struct {
	// Host is the device address, optionally with a port.
	Host string
	// Path defaults to DefaultFormPath.
	Path string
	// Field defaults to DefaultFormField.
	Field string
	// Client defaults to an http.Client with DefaultNetworkTimeout.
	Client *http.Client
	// Pinned keeps Host even when the radio reports a different network IP.
	Pinned bool
}

// Dial prepares the tunnel. No request is made until the first Send.
func (d NetworkDialer) Dial(ctx context.Context, sink Sink) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("radio: context is nil")
	}
	if d.Host == "" {
		return nil, fmt.Errorf("%w: device host is required", ErrTransportOpen)
	}
	if sink == nil {
		return nil, errors.New("radio: sink is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &NetworkTransport{
		host:   d.Host,
		path:   d.Path,
		field:  d.Field,
		client: d.Client,
		pinned: d.Pinned,
		sink:   sink,
		queue:  make(chan string, sendQueueSize),
	}
	if t.path == "" {
		t.path = DefaultFormPath
	}
	if t.field == "" {
		t.field = DefaultFormField
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: DefaultNetworkTimeout}
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	go t.loop()

	return t, nil
}

// NetworkTransport posts one request per command to the device web form
// and delivers each response body as the reply to that command.
//
// Requests are issued one at a time, in Send order, by a single worker
// goroutine, so replies are delivered in the order the commands were sent.
// A failed request or a non-2xx status is reported to the sink as a fatal
// *IOError and the commands queued behind it are dropped.
type NetworkTransport struct {
	path   string
	field  string
	client *http.Client
	pinned bool
	sink   Sink
	queue  chan string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	host   string
	closed bool
}

// Send queues cmd for the worker.
func (t *NetworkTransport) Send(cmd string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	select {
	case t.queue <- cmd:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops accepting commands. Commands already queued, such as the
// radio-on command sent while a session closes, are still posted before the
// worker exits.
func (t *NetworkTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.queue)
	return nil
}

// Retarget points the tunnel at the network IP the radio reported, keeping
// the configured port.
func (t *NetworkTransport) Retarget(ip string) {
	if t.pinned || net.ParseIP(ip) == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, port, err := net.SplitHostPort(t.host); err == nil {
		t.host = net.JoinHostPort(ip, port)
		return
	}
	t.host = ip
}

// Host returns the address requests currently go to.
func (t *NetworkTransport) Host() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.host
}

func (t *NetworkTransport) loop() {
	defer t.cancel()

	failed := false
	for cmd := range t.queue {
		if failed {
			continue
		}
		body, err := t.post(cmd)
		if err != nil {
			failed = true
			t.sink.Fail(&IOError{Op: "send", Err: err, Fatal: true})
			continue
		}
		t.sink.Receive(body)
	}
}

func (t *NetworkTransport) post(cmd string) ([]byte, error) {
	form := url.Values{t.field: {cmd}}
	endpoint := url.URL{Scheme: "http", Host: t.Host(), Path: t.path}

	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", cmd, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", cmd, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxReplySize))
	if err != nil {
		return nil, fmt.Errorf("read reply to %q: %w", cmd, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("post %q: unexpected status %s", cmd, resp.Status)
	}

	// Each body is a complete reply; terminate it so the framer does not
	// glue its last line to the next reply.
	if len(body) > 0 && !bytes.HasSuffix(body, []byte(at.LF)) {
		body = append(body, at.CRLF...)
	}
	return body, nil
}

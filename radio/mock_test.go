package radio_test

import (
	"context"
	"sync"
	"testing"

	gomock "go.uber.org/mock/gomock"

	"i4.energy/across/radiocfg/at"
	"i4.energy/across/radiocfg/radio"
)

// Replies of a radio at 10.0.0.7 on band 1 (code 04), bandwidth 1 at
// 20 dBm, access key 0011AABB, auto advertising.
const (
	replyIP      = "^DUIP: 0,\"10.0.0.7\",8CFF5F00,\"00:01:00:5f:ff:8c\",9250353\r\nOK\r\n"
	replyBand    = "^DAOCNDI: 0004\r\nOK\r\n"
	replyRate    = "^DRPS: 0,1,\"20\"\r\nOK\r\n"
	replyKey     = "^DAPI: \"0011AABB\"\r\nOK\r\n"
	replyAdvMode = "^DDTC: 0,0\r\nOK\r\n"
	replyOK      = "OK\r\n"
)

var replies = map[at.Fact]string{
	at.FactNetworkIP:        replyIP,
	at.FactBandIndex:        replyBand,
	at.FactBandwidthTxPower: replyRate,
	at.FactAccessKey:        replyKey,
	at.FactAdvertisingMode:  replyAdvMode,
}

type MockSequenceBuilder struct {
	transport *radio.MockTransport
	calls     []any
}

func NewMockSequence(transport *radio.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

func (b *MockSequenceBuilder) Send(cmd string) *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Send(cmd).Return(nil))
	return b
}

func (b *MockSequenceBuilder) RadioOff() *MockSequenceBuilder {
	return b.Send(at.CmdRadioOff)
}

func (b *MockSequenceBuilder) RadioOn() *MockSequenceBuilder {
	return b.Send(at.CmdRadioOn)
}

func (b *MockSequenceBuilder) Query(facts ...at.Fact) *MockSequenceBuilder {
	for _, f := range facts {
		b.Send(at.Query(f))
	}
	return b
}

func (b *MockSequenceBuilder) Discovery() *MockSequenceBuilder {
	return b.Query(at.Facts()...)
}

func (b *MockSequenceBuilder) Close() *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Close().Return(nil))
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// harness drives a Session over a MockTransport. Replies are delivered
// synchronously through the sink the session dialed with.
type harness struct {
	ctrl      *gomock.Controller
	transport *radio.MockTransport
	dialer    *radio.MockDialer
	session   *radio.Session
	sink      radio.Sink

	mu       sync.Mutex
	statuses []string
	facts    []at.ParsedFact
	idles    int
}

func newHarness(t *testing.T, radioControl bool) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	h := &harness{
		ctrl:      ctrl,
		transport: radio.NewMockTransport(ctrl),
		dialer:    radio.NewMockDialer(ctrl),
	}

	config := radio.NewConfigBuilder().
		WithRadioControl(radioControl).
		WithObserver(radio.ObserverFuncs{
			OnFact:   h.onFact,
			OnStatus: h.onStatus,
			OnIdle:   h.onIdle,
		}).
		Build()
	h.session = radio.NewSession(config)
	return h
}

// dial returns the Dial expectation that captures the sink.
func (h *harness) dial() *gomock.Call {
	return h.dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sink radio.Sink) (radio.Transport, error) {
			h.sink = sink
			return h.transport, nil
		})
}

func (h *harness) reply(data string) {
	h.sink.Receive([]byte(data))
}

// discover answers every query with the stock replies.
func (h *harness) discover() {
	for _, f := range at.Facts() {
		h.reply(replies[f])
	}
}

func (h *harness) onFact(f at.ParsedFact) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.facts = append(h.facts, f)
}

func (h *harness) onStatus(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, text)
}

func (h *harness) onIdle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idles++
}

func (h *harness) idleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idles
}

func (h *harness) statusLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses...)
}

// chanSink collects transport deliveries for tests of real transports.
type chanSink struct {
	data chan string
	errs chan error
}

func newChanSink() *chanSink {
	return &chanSink{
		data: make(chan string, 16),
		errs: make(chan error, 4),
	}
}

func (s *chanSink) Receive(chunk []byte) { s.data <- string(chunk) }
func (s *chanSink) Fail(err error)       { s.errs <- err }

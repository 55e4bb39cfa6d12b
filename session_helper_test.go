package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"i4.energy/across/radiocfg/radio"
)

// Discovery replies of a radio at 10.0.0.7 on band 1, bandwidth 1 at
// 20 dBm, access key 0011AABB, auto advertising, in query order.
var discoveryReplies = []string{
	"^DUIP: 0,\"10.0.0.7\",8CFF5F00\r\nOK\r\n",
	"^DAOCNDI: 0004\r\nOK\r\n",
	"^DRPS: 0,1,\"20\"\r\nOK\r\n",
	"^DAPI: \"0011AABB\"\r\nOK\r\n",
	"^DDTC: 0,0\r\nOK\r\n",
}

// testRadio is a session over a mock transport that accepts every command.
type testRadio struct {
	session *radio.Session
	dialer  radio.Dialer
	sink    radio.Sink

	mu   sync.Mutex
	sent []string
}

func newTestRadio(t *testing.T, builder *radio.ConfigBuilder) *testRadio {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := radio.NewMockTransport(ctrl)

	r := &testRadio{}
	transport.EXPECT().Send(gomock.Any()).DoAndReturn(func(cmd string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sent = append(r.sent, cmd)
		return nil
	}).AnyTimes()
	transport.EXPECT().Close().Return(nil).AnyTimes()

	r.dialer = radio.DialerFunc(func(_ context.Context, sink radio.Sink) (radio.Transport, error) {
		r.sink = sink
		return transport, nil
	})
	r.session = radio.NewSession(builder.WithRadioControl(false).Build())
	return r
}

// openIdle opens the session and answers discovery.
func (r *testRadio) openIdle(t *testing.T) {
	t.Helper()

	require.NoError(t, r.session.Open(context.Background(), r.dialer))
	for _, reply := range discoveryReplies {
		r.reply(reply)
	}
	require.Equal(t, radio.StateIdle, r.session.State())
}

func (r *testRadio) reply(data string) {
	r.sink.Receive([]byte(data))
}

func (r *testRadio) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/radiocfg/radio"
)

func TestOpenSession(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	unplugged := radio.DialerFunc(func(context.Context, radio.Sink) (radio.Transport, error) {
		return nil, errors.New("no such device")
	})

	t.Run("Failure is fatal without an operator surface", func(t *testing.T) {
		session := radio.NewSession(radio.NewConfigBuilder().WithLogger(logger).Build())

		err := openSession(context.Background(), session, unplugged, false, logger)
		assert.ErrorIs(t, err, radio.ErrTransportOpen)
		assert.Equal(t, radio.StateClosed, session.State())
	})

	t.Run("Failure keeps serving when the operator can reopen", func(t *testing.T) {
		r := newTestRadio(t, radio.NewConfigBuilder().WithLogger(logger))

		require.NoError(t, openSession(context.Background(), r.session, unplugged, true, logger))
		assert.Equal(t, radio.StateClosed, r.session.State())

		require.NoError(t, r.session.Open(context.Background(), r.dialer))
		assert.Equal(t, radio.StateDiscovering, r.session.State())
	})

	t.Run("Success", func(t *testing.T) {
		r := newTestRadio(t, radio.NewConfigBuilder().WithLogger(logger))

		require.NoError(t, openSession(context.Background(), r.session, r.dialer, false, logger))
		assert.Equal(t, radio.StateDiscovering, r.session.State())
	})
}

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/radiocfg/at"
	"i4.energy/across/radiocfg/radio"
)

func newTestConsole(t *testing.T) (*Console, *testRadio, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	c := &Console{out: &out}

	r := newTestRadio(t, radio.NewConfigBuilder().WithObserver(c.Observer()))
	c.session = r.session
	c.dialer = r.dialer
	r.openIdle(t)
	out.Reset()

	return c, r, &out
}

func TestConsoleExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("show", func(t *testing.T) {
		c, _, out := newTestConsole(t)

		assert.False(t, c.execute(ctx, "show"))
		assert.Contains(t, out.String(), "state:            idle")
		assert.Contains(t, out.String(), "ip:               10.0.0.7")
		assert.Contains(t, out.String(), "advertising mode: auto")
	})

	t.Run("save", func(t *testing.T) {
		c, r, out := newTestConsole(t)

		c.execute(ctx, "save mode=1 power=14")
		assert.Empty(t, out.String())

		cmds := r.commands()
		assert.Equal(t, []string{`AT^DRPS=,1,"14"`, `AT^DSONSFTP=1,"14"`, "AT^DDTC=1", at.CmdQueryRate}, cmds[len(cmds)-4:])
	})

	t.Run("save rejects odd key", func(t *testing.T) {
		c, _, out := newTestConsole(t)

		c.execute(ctx, "save key=ABC")
		assert.Contains(t, out.String(), "error: validation failed")
		assert.Equal(t, radio.StateIdle, c.session.State())
	})

	t.Run("save without settings", func(t *testing.T) {
		c, _, out := newTestConsole(t)

		c.execute(ctx, "save")
		assert.Contains(t, out.String(), "usage:")
	})

	t.Run("raw command", func(t *testing.T) {
		c, r, out := newTestConsole(t)

		c.execute(ctx, "  AT^DDTC?  ")
		cmds := r.commands()
		assert.Equal(t, "AT^DDTC?", cmds[len(cmds)-1])

		r.reply("^DDTC: 2,0\r\n")
		assert.Contains(t, out.String(), "advertising-mode = access")
	})

	t.Run("refresh, close and open", func(t *testing.T) {
		c, _, out := newTestConsole(t)

		c.execute(ctx, "refresh")
		assert.Equal(t, radio.StateDiscovering, c.session.State())

		c.execute(ctx, "close")
		assert.Equal(t, radio.StateClosed, c.session.State())
		assert.Contains(t, out.String(), "status: closed")

		c.execute(ctx, "refresh")
		assert.Contains(t, out.String(), "error: session closed")

		c.execute(ctx, "open")
		assert.Equal(t, radio.StateDiscovering, c.session.State())
	})

	t.Run("unknown and quit", func(t *testing.T) {
		c, _, out := newTestConsole(t)

		assert.False(t, c.execute(ctx, "reboot"))
		assert.Contains(t, out.String(), "Unknown command: reboot")

		assert.False(t, c.execute(ctx, ""))
		assert.True(t, c.execute(ctx, "quit"))
		assert.True(t, c.execute(ctx, "EXIT"))
	})
}

func TestParseAssignments(t *testing.T) {
	desired, err := parseAssignments([]string{"key=0011AABB", "band=2", "bw=1", "power=14", "mode=1"})
	require.NoError(t, err)
	assert.True(t, desired.Equal(radio.Snapshot{
		AccessKey:       radio.Ptr("0011AABB"),
		Band:            radio.Ptr(2),
		Bandwidth:       radio.Ptr(1),
		TxPower:         radio.Ptr(14),
		AdvertisingMode: radio.Ptr(1),
	}))

	for _, args := range [][]string{
		{"band"},
		{"band="},
		{"band=two"},
		{"color=1"},
	} {
		_, err := parseAssignments(args)
		assert.Error(t, err, "args %q", args)
	}
}

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/radiocfg/radio"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:8080", config.BindAddress)
		assert.Equal(t, TransportSerial, config.Transport)
		assert.Equal(t, "/dev/ttyUSB0", config.SerialPort)
		assert.Equal(t, 115200, config.BaudRate)
		assert.True(t, config.RadioControl)
		assert.Equal(t, "info", config.LogLevel)
		assert.Nil(t, config.Desired)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "radiocfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
transport: network
device_host: 192.168.10.50
radio_control: false
log_level: debug
apply: true
desired:
  band: 2
  advertising_mode: 1
`), 0o600))

		config, err := LoadConfig(WithDefaults(), WithFile(path))
		require.NoError(t, err)

		assert.Equal(t, TransportNetwork, config.Transport)
		assert.Equal(t, "192.168.10.50", config.DeviceHost)
		assert.False(t, config.RadioControl)
		assert.Equal(t, "debug", config.LogLevel)
		// Keys missing from the file keep their defaults.
		assert.Equal(t, "127.0.0.1:8080", config.BindAddress)

		require.NotNil(t, config.Desired)
		assert.True(t, config.Desired.Equal(radio.Snapshot{
			Band:            radio.Ptr(2),
			AdvertisingMode: radio.Ptr(1),
		}))
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(WithDefaults(), WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "radiocfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("baud_rate: fast\n"), 0o600))

		_, err := LoadConfig(WithDefaults(), WithFile(path))
		assert.Error(t, err)
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("TRANSPORT", "network")
		t.Setenv("DEVICE_HOST", "10.0.0.7")
		t.Setenv("RADIO_CONTROL", "false")
		t.Setenv("BAUD_RATE", "not a number")
		t.Setenv("NATS_URL", "nats://localhost:4222")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		require.NoError(t, err)

		assert.Equal(t, TransportNetwork, config.Transport)
		assert.Equal(t, "10.0.0.7", config.DeviceHost)
		assert.False(t, config.RadioControl)
		assert.Equal(t, 115200, config.BaudRate)
		assert.Equal(t, "nats://localhost:4222", config.NATSURL)
	})

	t.Run("Flags override env", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyS0")

		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.String("serial-port", "/dev/ttyUSB0", "")
		fs.Int("baud-rate", 115200, "")
		fs.Bool("radio-control", true, "")
		fs.Bool("console", false, "")
		fs.String("log-level", "info", "")
		require.NoError(t, fs.Parse([]string{"-serial-port", "/dev/ttyACM0", "-baud-rate", "57600", "-radio-control=false", "-console"}))

		config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
		require.NoError(t, err)

		assert.Equal(t, "/dev/ttyACM0", config.SerialPort)
		assert.Equal(t, 57600, config.BaudRate)
		assert.False(t, config.RadioControl)
		assert.True(t, config.Console)
		// Flags not given on the command line do not override.
		assert.Equal(t, "info", config.LogLevel)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown transport", func(c *Config) { c.Transport = "bluetooth" }},
		{"network without host", func(c *Config) { c.Transport = TransportNetwork }},
		{"serial without port", func(c *Config) { c.SerialPort = "" }},
		{"zero baud rate", func(c *Config) { c.BaudRate = 0 }},
		{"apply without profile", func(c *Config) { c.Apply = true }},
		{"odd key in profile", func(c *Config) { c.Desired = &radio.Snapshot{AccessKey: radio.Ptr("ABC")} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modify := func(c *Config) error {
				tt.modify(c)
				return nil
			}
			_, err := LoadConfig(WithDefaults(), modify)
			assert.Error(t, err)
		})
	}
}

func TestConfigDialer(t *testing.T) {
	config, err := LoadConfig(WithDefaults())
	require.NoError(t, err)
	config.BaudRate = 9600

	serialDialer, ok := config.Dialer().(radio.SerialDialer)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", serialDialer.PortName)
	assert.Equal(t, 9600, serialDialer.Mode.BaudRate)

	config.Transport = TransportNetwork
	config.DeviceHost = "192.168.10.50"
	config.PinHost = true

	networkDialer, ok := config.Dialer().(radio.NetworkDialer)
	require.True(t, ok)
	assert.Equal(t, "192.168.10.50", networkDialer.Host)
	assert.True(t, networkDialer.Pinned)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"i4.energy/across/radiocfg/radio"
)

// Transport kinds accepted in Config.Transport.
const (
	TransportSerial  = "serial"
	TransportNetwork = "network"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the HTTP API listens on (e.g. "127.0.0.1:8080").
	// Empty disables the API.
	BindAddress string `yaml:"bind_address"`
	// Transport selects how the radio is reached, "serial" or "network"
	Transport string `yaml:"transport"`
	// SerialPort is the path to the radio's serial console (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate of the serial console (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// DeviceHost is the address of the radio's web form (e.g. "192.168.10.50")
	DeviceHost string `yaml:"device_host"`
	// PinHost keeps DeviceHost even when the radio reports another network IP
	PinHost bool `yaml:"pin_host"`
	// RadioControl switches the radio into maintenance mode while a session is open
	RadioControl bool `yaml:"radio_control"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, receives the JSON log instead of stderr
	LogFile string `yaml:"log_file"`
	// LogMaxSizeMB is the size at which LogFile and TranscriptFile are rotated
	LogMaxSizeMB int `yaml:"log_max_size_mb"`
	// LogMaxBackups is the number of rotated files kept
	LogMaxBackups int `yaml:"log_max_backups"`
	// TranscriptFile, when set, records every command and reply line
	TranscriptFile string `yaml:"transcript_file"`
	// NATSURL, when set, publishes session events to NATS
	NATSURL string `yaml:"nats_url"`
	// NATSSubject is the subject events are published on
	NATSSubject string `yaml:"nats_subject"`
	// Console starts the interactive console on the terminal
	Console bool `yaml:"console"`
	// Apply writes Desired once discovery has finished
	Apply bool `yaml:"apply"`
	// Desired is the configuration profile written by Apply
	Desired *radio.Snapshot `yaml:"desired"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "127.0.0.1:8080"
		c.Transport = TransportSerial
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = radio.DefaultBaudRate
		c.RadioControl = true
		c.LogLevel = "info"
		c.LogMaxSizeMB = 10
		c.LogMaxBackups = 3
		c.NATSSubject = "radiocfg.events"
		return nil
	}
}

// WithFile loads configuration from a YAML file. Keys missing from the file
// keep their current value. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if transport := os.Getenv("TRANSPORT"); transport != "" {
			c.Transport = transport
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if host := os.Getenv("DEVICE_HOST"); host != "" {
			c.DeviceHost = host
		}

		if control := os.Getenv("RADIO_CONTROL"); control != "" {
			if b, err := strconv.ParseBool(control); err == nil {
				c.RadioControl = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if file := os.Getenv("LOG_FILE"); file != "" {
			c.LogFile = file
		}

		if file := os.Getenv("TRANSCRIPT_FILE"); file != "" {
			c.TranscriptFile = file
		}

		if url := os.Getenv("NATS_URL"); url != "" {
			c.NATSURL = url
		}

		if subject := os.Getenv("NATS_SUBJECT"); subject != "" {
			c.NATSSubject = subject
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "transport":
				c.Transport = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "device-host":
				c.DeviceHost = f.Value.String()
			case "pin-host":
				c.PinHost = boolFlag(f)
			case "radio-control":
				c.RadioControl = boolFlag(f)
			case "log-level":
				c.LogLevel = f.Value.String()
			case "log-file":
				c.LogFile = f.Value.String()
			case "transcript-file":
				c.TranscriptFile = f.Value.String()
			case "nats-url":
				c.NATSURL = f.Value.String()
			case "nats-subject":
				c.NATSSubject = f.Value.String()
			case "console":
				c.Console = boolFlag(f)
			case "apply":
				c.Apply = boolFlag(f)
			}
		})
		return nil
	}
}

func boolFlag(f *flag.Flag) bool {
	b, _ := strconv.ParseBool(f.Value.String())
	return b
}

// Validate checks that the selected transport can be dialed and that the
// desired profile is writable.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportSerial:
		if c.SerialPort == "" {
			return errors.New("config: serial_port is required for the serial transport")
		}
		if c.BaudRate <= 0 {
			return fmt.Errorf("config: invalid baud_rate %d", c.BaudRate)
		}
	case TransportNetwork:
		if c.DeviceHost == "" {
			return errors.New("config: device_host is required for the network transport")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}

	if c.Apply && c.Desired == nil {
		return errors.New("config: apply requires a desired profile")
	}
	if c.Desired != nil {
		if err := radio.Validate(*c.Desired); err != nil {
			return fmt.Errorf("config: desired profile: %w", err)
		}
	}
	return nil
}

// Dialer returns the dialer for the configured transport.
func (c *Config) Dialer() radio.Dialer {
	if c.Transport == TransportNetwork {
		return radio.NetworkDialer{
			Host:   c.DeviceHost,
			Pinned: c.PinHost,
		}
	}

	mode := radio.DefaultSerialMode()
	mode.BaudRate = c.BaudRate
	return radio.SerialDialer{
		PortName: c.SerialPort,
		Mode:     mode,
	}
}

package radio

import (
	"io"
	"log/slog"
)

// Config holds the settings of a Session that do not depend on the
// transport. Build one with NewConfigBuilder.
type Config struct {
	// Logger receives debug output of the exchange. Defaults to a discard
	// logger.
	Logger *slog.Logger
	// Observer is notified of facts, status and idle transitions.
	Observer Observer
	// Transcript, when set, receives every command sent ("> cmd") and every
	// reply line received ("< line").
	Transcript io.Writer
	// RadioControl puts the radio into maintenance mode (AT+CFUN=0) while a
	// session is open and back into normal operation (AT+CFUN=1) on close.
	RadioControl bool
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Observer == nil {
		c.Observer = ObserverFuncs{}
	}
}

// ConfigBuilder builds a Config. Radio control is on by default.
type ConfigBuilder struct {
	config    Config
	observers Observers
}

// NewConfigBuilder returns a builder with the defaults applied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: Config{RadioControl: true},
	}
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.Logger = logger
	return b
}

// WithObserver adds an observer. Observers are notified in the order they
// were added.
func (b *ConfigBuilder) WithObserver(o Observer) *ConfigBuilder {
	if o != nil {
		b.observers = append(b.observers, o)
	}
	return b
}

func (b *ConfigBuilder) WithTranscript(w io.Writer) *ConfigBuilder {
	b.config.Transcript = w
	return b
}

func (b *ConfigBuilder) WithRadioControl(enabled bool) *ConfigBuilder {
	b.config.RadioControl = enabled
	return b
}

// Build returns the Config.
func (b *ConfigBuilder) Build() Config {
	c := b.config
	switch len(b.observers) {
	case 0:
	case 1:
		c.Observer = b.observers[0]
	default:
		c.Observer = append(Observers(nil), b.observers...)
	}
	c.setDefaults()
	return c
}

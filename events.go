package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"i4.energy/across/radiocfg/at"
)

// Event types published to NATS
const (
	EventServiceStart = "service_start"
	EventServiceStop  = "service_stop"
	EventFact         = "fact"
	EventStatus       = "status"
	EventIdle         = "idle"
)

// Event is the structure published to NATS for every session event.
type Event struct {
	Timestamp  time.Time      `json:"ts"`
	Type       string         `json:"type"`
	InstanceID string         `json:"instance"`
	Fact       string         `json:"fact,omitempty"`
	Message    string         `json:"msg,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// EventPublisher publishes session events to NATS. It implements
// radio.Observer and is optional: every method is safe on a nil receiver.
type EventPublisher struct {
	conn       *nats.Conn
	subject    string
	instanceID string
	logger     *slog.Logger
}

// EventPublisherConfig contains configuration for EventPublisher
type EventPublisherConfig struct {
	Conn       *nats.Conn
	Subject    string // e.g. "radiocfg.events"
	InstanceID string
	Logger     *slog.Logger
}

// NewEventPublisher creates a new EventPublisher.
// Returns nil if conn is nil (disabled mode).
func NewEventPublisher(cfg *EventPublisherConfig) *EventPublisher {
	if cfg == nil || cfg.Conn == nil {
		return nil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &EventPublisher{
		conn:       cfg.Conn,
		subject:    cfg.Subject,
		instanceID: cfg.InstanceID,
		logger:     logger,
	}
}

// connectNATS dials the NATS server and logs connection changes.
func connectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("radiocfg"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(5 * time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("Connected to NATS", "url", url)
	return conn, nil
}

// Publish sends an event to NATS. Safe to call on nil receiver.
func (e *EventPublisher) Publish(event Event) {
	if e == nil || e.conn == nil || !e.conn.IsConnected() {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.InstanceID == "" {
		event.InstanceID = e.instanceID
	}

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("Failed to marshal event", "error", err, "type", event.Type)
		return
	}

	if err := e.conn.Publish(e.subject, data); err != nil {
		e.logger.Warn("Failed to publish event", "error", err, "type", event.Type)
		return
	}

	e.logger.Debug("Published event", "type", event.Type, "fact", event.Fact)
}

// PublishServiceStart publishes a service start event
func (e *EventPublisher) PublishServiceStart(transport string) {
	e.Publish(Event{
		Type:    EventServiceStart,
		Message: "radiocfg started",
		Details: map[string]any{"transport": transport},
	})
}

// PublishServiceStop publishes a service stop event
func (e *EventPublisher) PublishServiceStop(reason string) {
	e.Publish(Event{
		Type:    EventServiceStop,
		Message: "radiocfg stopping",
		Details: map[string]any{"reason": reason},
	})
}

// FactUpdated publishes a value read from the radio.
func (e *EventPublisher) FactUpdated(f at.ParsedFact) {
	e.Publish(factEvent(f))
}

// Status publishes a status line.
func (e *EventPublisher) Status(text string) {
	e.Publish(Event{Type: EventStatus, Message: text})
}

// SequenceIdle publishes that discovery has finished.
func (e *EventPublisher) SequenceIdle() {
	e.Publish(Event{Type: EventIdle, Message: "configuration discovered"})
}

func factEvent(f at.ParsedFact) Event {
	ev := Event{Type: EventFact, Fact: f.Kind.String()}

	switch f.Kind {
	case at.FactNetworkIP:
		ev.Details = map[string]any{"ip": f.IP}
	case at.FactAccessKey:
		ev.Details = map[string]any{"access_key": f.AccessKey}
	case at.FactBandIndex:
		ev.Details = map[string]any{"band": f.Band}
	case at.FactBandwidthTxPower:
		ev.Details = map[string]any{"bandwidth": f.Bandwidth, "tx_power": f.TxPower}
	case at.FactAdvertisingMode:
		ev.Details = map[string]any{"advertising_mode": f.Mode, "name": at.AdvertisingMode(f.Mode).String()}
	}

	return ev
}

// Package mqtt publishes band switch events with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/bandswitch/internal/logic"
)

// Topic is the MQTT topic for band switch events.
const Topic = "shack/amp/bandswitch/events"

// TopicSystem is the MQTT topic for lifecycle events. Messages are retained
// so a late subscriber sees whether the switch is up.
const TopicSystem = "shack/amp/bandswitch/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller event. A failure is logged by the caller
	// and never stops the control loop.
	Publish(event logic.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event: STARTUP, SHUTDOWN, HEARTBEAT, OFFLINE.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown signal or disconnect cause
	RawPayload []byte // preformatted status snapshot; used verbatim when set
	Retained   bool
}

// Payload is the JSON body of an event message.
type Payload struct {
	Amp AmpPayload `json:"amp"`
}

// AmpPayload describes the switch state at the time of an event.
type AmpPayload struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	Band         string `json:"band"`
	CATAuto      bool   `json:"cat_auto"`
	TemperatureC int    `json:"temperature_c"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Amp: AmpPayload{
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
			Event:        string(event.Type),
			Band:         event.Band.String(),
			CATAuto:      event.CATAuto,
			TemperatureC: event.Temperature,
		},
	})
}

// SystemPayload is the JSON body of a lifecycle message that carries no
// status snapshot, such as the will.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// Discard is the Publisher used when no broker is configured.
type Discard struct{}

func (Discard) Publish(logic.Event) error       { return nil }
func (Discard) PublishSystem(SystemEvent) error { return nil }
func (Discard) Close() error                    { return nil }
func (Discard) IsConnected() bool               { return false }

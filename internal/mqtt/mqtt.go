// Package mqtt publishes emulator lifecycle and status events over MQTT.
// Publishing never happens on the control loop's goroutine.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/mh106/system"

// ClientID identifies the emulator to the broker.
const ClientID = "mh106"

// Publisher publishes system events to MQTT.
type Publisher interface {
	// PublishSystem sends a system lifecycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Lifecycle event names.
const (
	EventStartup     = "STARTUP"
	EventHeartbeat   = "HEARTBEAT"
	EventShutdown    = "SHUTDOWN"
	EventFault       = "FAULT"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

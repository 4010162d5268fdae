// Package analytics publishes spawner events to Kafka.
package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/synesthesia/internal/model"
)

// Event types.
const (
	EventLocationsExtended = "spawn.locations_extended"
	EventSessionStarted    = "spawn.session_started"
)

// Event is the envelope of every published message.
type Event struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(eventType, source, sessionID string, payload any) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		SessionID: sessionID,
		Payload:   payload,
	}
}

// LocationsExtended is the payload of EventLocationsExtended.
type LocationsExtended struct {
	Total     int            `json:"total"`
	Added     int            `json:"added"`
	Locations []model.Vector `json:"locations"` // only the added ones
}

// SessionStarted is the payload of EventSessionStarted.
type SessionStarted struct {
	PoolSize  int    `json:"pool_size"`
	Locations int    `json:"locations"`
	ClockName string `json:"clock_name"`
}

// Package sse implements Server-Sent Events for streaming import progress
// to the admin panel.
package sse

import (
	"time"

	"github.com/pintree/pintree-admin/internal/importer"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventImportStarted is sent once a run has validated its request and
	// detected the file format.
	EventImportStarted EventType = "import.started"
	// EventImportProgress is sent after every committed batch.
	EventImportProgress EventType = "import.progress"
	// EventImportCompleted is sent when every batch has been committed.
	EventImportCompleted EventType = "import.completed"
	// EventImportFailed is sent when a run stops early.
	EventImportFailed EventType = "import.failed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// RunID limits delivery to clients following that run, plus clients
	// following every run. Empty means broadcast to all.
	RunID string `json:"runId,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"serverTime"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// NewImportEvent wraps an import pipeline event for streaming.
func NewImportEvent(ev importer.Event) Event {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{
		Type:      EventType(ev.Type),
		Timestamp: ts,
		Data:      ev,
		RunID:     ev.RunID,
	}
}

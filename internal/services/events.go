// internal/services/events.go
package services

import "time"

// Event types pushed to connected editors.
const (
	EventDocumentSaved   = "document.saved"
	EventDocumentCleared = "document.cleared"
	EventAssistStarted   = "assist.started"
	EventAssistCompleted = "assist.completed"
	EventAssistFailed    = "assist.failed"
	EventAssistCancelled = "assist.cancelled"
)

// Event is one notification for editor clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventPublisher delivers events to whoever is listening. Publish must not
// block the caller.
type EventPublisher interface {
	Publish(event Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func newEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now()}
}

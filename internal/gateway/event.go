package gateway

import "time"

// EventType tags the payloads streamed to companion clients.
type EventType string

const (
	EventGuidance    EventType = "guidance"
	EventNavigation  EventType = "navigation"
	EventItem        EventType = "item_confirmed"
	EventRecognition EventType = "recognition"
	EventSpeech      EventType = "speech"
)

type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewEvent(eventType EventType, payload any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

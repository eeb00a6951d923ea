package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g. "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation used by the domain constructors below.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeSessionCreated      = "SESSION_CREATED"
	TypeTriageCompleted     = "TRIAGE_COMPLETED"
	TypeSpecialistCompleted = "SPECIALIST_COMPLETED"
	TypeSessionCancelled    = "SESSION_CANCELLED"
)

func NewSessionCreated(sessionID string) Event {
	return BaseEvent{
		Type:       TypeSessionCreated,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: time.Now(),
	}
}

func NewTriageCompleted(sessionID, primaryType, specialistRole string, confidence float64) Event {
	return BaseEvent{
		Type: TypeTriageCompleted,
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"primary_type":    primaryType,
			"specialist_role": specialistRole,
			"confidence":      confidence,
		},
		OccurredAt: time.Now(),
	}
}

func NewSpecialistCompleted(sessionID string, ragTriggered bool, sourceCount int) Event {
	return BaseEvent{
		Type: TypeSpecialistCompleted,
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"rag_triggered": ragTriggered,
			"source_count":  sourceCount,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionCancelled(sessionID string) Event {
	return BaseEvent{
		Type:       TypeSessionCancelled,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: time.Now(),
	}
}

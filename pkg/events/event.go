package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INTERVIEW_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

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

const TypeInterviewCompleted = "INTERVIEW_COMPLETED"

// NewInterviewCompleted builds the event emitted when a qualification
// interview reaches its terminal state.
func NewInterviewCompleted(sessionID, dealID, stage string, total int) Event {
	return BaseEvent{
		Type: TypeInterviewCompleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"deal_id":    dealID,
			"stage":      stage,
			"total":      total,
		},
		OccurredAt: time.Now(),
	}
}

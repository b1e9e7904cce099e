package events

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle event codes published by the generation pipeline.
const (
	TypeGenerationCompleted = "GENERATION_COMPLETED"
	TypeFeedbackSummarized  = "FEEDBACK_SUMMARIZED"
	TypeStyleUpdated        = "STYLE_UPDATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventID returns the unique id of this event instance.
	EventID() string

	// EventType returns the code for this event (e.g., "GENERATION_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete event shape used across the system.
type BaseEvent struct {
	Id         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventID() string {
	return e.Id
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

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Id:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// NewGenerationCompleted reports a finished generation or refine batch.
func NewGenerationCompleted(styleId, batchTimestamp, mode string, totalImages, successCount int) BaseEvent {
	return newEvent(TypeGenerationCompleted, map[string]interface{}{
		"styleId":      styleId,
		"timestamp":    batchTimestamp,
		"mode":         mode,
		"totalImages":  totalImages,
		"successCount": successCount,
	})
}

// NewFeedbackSummarized reports that a session's feedback was condensed
// into a style-level summary.
func NewFeedbackSummarized(styleId, sessionId, summary string, turnCount int) BaseEvent {
	return newEvent(TypeFeedbackSummarized, map[string]interface{}{
		"styleId":   styleId,
		"sessionId": sessionId,
		"summary":   summary,
		"turnCount": turnCount,
	})
}

// NewStyleUpdated reports a style mutation. Change is one of
// "created", "images_imported".
func NewStyleUpdated(styleId, change string) BaseEvent {
	return newEvent(TypeStyleUpdated, map[string]interface{}{
		"styleId": styleId,
		"change":  change,
	})
}

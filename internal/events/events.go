package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TopicTasks is the queue topic carrying task domain events.
const TopicTasks = "tasks.events"

// Task event types.
const (
	TypeTaskCreated   = "task.created"
	TypeTaskCompleted = "task.completed"
	TypeTaskDeleted   = "task.deleted"
)

// TaskEvent is the envelope for task domain events published to the queue.
// The payload is task-type-specific data serialized as JSON.
type TaskEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Type is one of the TypeTask* constants.
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent creates a new TaskEvent with the specified type and payload.
func NewTaskEvent(eventType string, payload interface{}) (*TaskEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of the
// transport.
type EventEmitter interface {
	// EmitEvent publishes the given event.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

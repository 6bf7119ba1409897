package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors. Each wraps ErrValidation so callers can
// classify them without enumerating every sentinel.
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = fmt.Errorf("%w: task user ID cannot be empty", ErrValidation)

	// ErrTaskDescriptionEmpty is returned when a task's description is empty
	// after trimming whitespace.
	ErrTaskDescriptionEmpty = fmt.Errorf("%w: task description cannot be empty", ErrValidation)

	// ErrTaskStateInvalid is returned when a task's state is not a known value.
	ErrTaskStateInvalid = fmt.Errorf("%w: task state must be todo or done", ErrValidation)
)

// TaskState enumerates the lifecycle states of a task.
type TaskState string

const (
	// TaskStateTodo is the initial state of every task.
	TaskStateTodo TaskState = "todo"

	// TaskStateDone marks a completed task. Done tasks reject description
	// edits; there is no transition back to todo.
	TaskStateDone TaskState = "done"
)

// Valid reports whether s is a known task state.
func (s TaskState) Valid() bool {
	return s == TaskStateTodo || s == TaskStateDone
}

// Task represents a single task owned by a user.
// UserID is assigned once at creation from the authenticated identity and
// never changes afterwards.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	State       TaskState `json:"state"`
	UserID      uuid.UUID `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a new Task owned by userID. The description is trimmed and
// must be non-empty. An empty state defaults to todo.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, description string, state TaskState) (*Task, error) {
	if state == "" {
		state = TaskStateTodo
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Description: strings.TrimSpace(description),
		State:       state,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if strings.TrimSpace(t.Description) == "" {
		return ErrTaskDescriptionEmpty
	}

	if !t.State.Valid() {
		return ErrTaskStateInvalid
	}

	return nil
}

// IsOwnedBy reports whether the task belongs to the given user.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

// Done reports whether the task has been completed.
func (t *Task) Done() bool {
	return t.State == TaskStateDone
}

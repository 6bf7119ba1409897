package api

import (
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// CreateTaskRequest represents the request body for creating a task.
// State is optional and defaults to todo.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,min=1,max=500"`
	State       string `json:"state"       validate:"omitempty,oneof=todo done"`
}

// UpdateTaskRequest represents the request body for updating a task's
// description. State changes go through the dedicated done endpoint.
type UpdateTaskRequest struct {
	Description string `json:"description" validate:"required,min=1,max=500"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// taskToResponse converts a domain task to its response representation.
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID.String(),
		Description: task.Description,
		State:       string(task.State),
		UserID:      task.UserID.String(),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// tasksToResponse converts a list of domain tasks, preserving order.
func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}

// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/audit"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	auditLog    audit.Logger
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(
	taskService service.TaskService,
	auditLog audit.Logger,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		auditLog:    auditLog,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
// The task is always created for the authenticated user; any user id in the
// payload is ignored.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := getIdentityFromContext(r)
	if !ok {
		log.Warn("identity not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthenticated, "")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Create(r.Context(), identity, req.Description, domain.TaskState(req.State))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if h.auditLog != nil {
		h.auditLog.Log(r.Context(), audit.Record{
			Activity:  "create.task",
			Message:   fmt.Sprintf("created task %q", task.Description),
			ObjectID:  task.ID.String(),
			IPAddress: clientIP(r),
		})
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", identity.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, taskID, ok := handleIdentityAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), identity, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /tasks requests.
// Only the authenticated user's tasks are returned, oldest first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := getIdentityFromContext(r)
	if !ok {
		log.Warn("identity not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthenticated, "")
		return
	}

	tasks, err := h.taskService.List(r.Context(), identity)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// UpdateTask handles PATCH /tasks/{id} requests.
// Only the description is updatable; completed tasks reject edits.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, taskID, ok := handleIdentityAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Update(r.Context(), identity, taskID, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// MarkTaskDone handles PATCH /tasks/{id}/done requests.
// Completing an already-done task succeeds without change.
func (h *TaskHandler) MarkTaskDone(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, taskID, ok := handleIdentityAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.MarkDone(r.Context(), identity, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("task marked done", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
// The deleted task is returned so clients can offer undo-style flows.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, taskID, ok := handleIdentityAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.Delete(r.Context(), identity, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("task deleted", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Package service contains the business rules layered over the stores:
// ownership checks, state-transition rules, and event orchestration.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/events"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// TaskService provides task operations on behalf of an authenticated
// requester. Every operation verifies ownership before any mutation is
// issued to the store.
type TaskService interface {
	// Create validates the description, forces ownership to the requester,
	// and persists a new task. State defaults to todo.
	Create(ctx context.Context, requester domain.Identity, description string, state domain.TaskState) (*domain.Task, error)

	// Get loads a task by id.
	// Returns store.ErrTaskNotFound if absent, domain.ErrNotOwner if the
	// requester does not own it.
	Get(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)

	// List returns the requester's tasks ordered by creation time ascending.
	List(ctx context.Context, requester domain.Identity) ([]*domain.Task, error)

	// Update replaces a task's description via an atomic update.
	// Returns domain.ErrNotOwner for foreign tasks and
	// domain.ErrTaskCompleted when the task is already done.
	Update(ctx context.Context, requester domain.Identity, id uuid.UUID, description string) (*domain.Task, error)

	// MarkDone transitions a task to done. Marking an already-done task is
	// a no-op that succeeds.
	MarkDone(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)

	// Delete permanently removes a task regardless of state and returns the
	// deleted record.
	Delete(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// Ensure taskServiceImpl implements TaskService interface.
var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if the task store is nil; the emitter may be nil when
// eventing is disabled.
func NewTaskService(
	tasks store.TaskStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:   tasks,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create. The owner is always the requester;
// any client-supplied user id never reaches this layer.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	requester domain.Identity,
	description string,
	state domain.TaskState,
) (*domain.Task, error) {
	task, err := domain.NewTask(requester.ID, description, state)
	if err != nil {
		return nil, err
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, NewTaskServiceError("create", "failed to persist task", err)
	}

	s.emit(ctx, events.TypeTaskCreated, created)

	s.logger.Info("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("user_id", created.UserID.String()))
	return created, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(
	ctx context.Context,
	requester domain.Identity,
	id uuid.UUID,
) (*domain.Task, error) {
	return s.ownedTask(ctx, requester, id)
}

// List implements TaskService.List. Only the requester's tasks are returned;
// isolation is enforced in the query itself, not by post-filtering.
func (s *taskServiceImpl) List(ctx context.Context, requester domain.Identity) ([]*domain.Task, error) {
	tasks, err := s.tasks.All(ctx, store.Query{
		Conditions: map[string]store.Condition{
			"user_id": store.Eq(requester.ID),
		},
		Sort: "+created_at",
	})
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}

	return tasks, nil
}

// Update implements TaskService.Update. Only the description is updatable
// through this path, and only while the task is not done.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	requester domain.Identity,
	id uuid.UUID,
	description string,
) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	if task.Done() {
		return nil, domain.ErrTaskCompleted
	}

	updated, err := s.tasks.AtomicUpdate(ctx, id, store.TaskPatch{Description: &description})
	if err != nil {
		return nil, NewTaskServiceError("update", "failed to update task", err)
	}

	return updated, nil
}

// MarkDone implements TaskService.MarkDone. The transition is unconditional
// and idempotent: a second call leaves the task done and succeeds.
func (s *taskServiceImpl) MarkDone(
	ctx context.Context,
	requester domain.Identity,
	id uuid.UUID,
) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	alreadyDone := task.Done()

	state := domain.TaskStateDone
	done, err := s.tasks.AtomicUpdate(ctx, id, store.TaskPatch{State: &state})
	if err != nil {
		return nil, NewTaskServiceError("mark_done", "failed to mark task done", err)
	}

	if !alreadyDone {
		s.emit(ctx, events.TypeTaskCompleted, done)
	}

	return done, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(
	ctx context.Context,
	requester domain.Identity,
	id uuid.UUID,
) (*domain.Task, error) {
	if _, err := s.ownedTask(ctx, requester, id); err != nil {
		return nil, err
	}

	deleted, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("delete", "failed to delete task", err)
	}

	s.emit(ctx, events.TypeTaskDeleted, deleted)

	s.logger.Info("task deleted",
		slog.String("task_id", deleted.ID.String()),
		slog.String("user_id", deleted.UserID.String()))
	return deleted, nil
}

// ownedTask loads a task and verifies the requester owns it. The ownership
// check always completes before any caller issues a mutation.
func (s *taskServiceImpl) ownedTask(
	ctx context.Context,
	requester domain.Identity,
	id uuid.UUID,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.IsOwnedBy(requester.ID) {
		s.logger.Warn("ownership check failed",
			slog.String("task_id", id.String()),
			slog.String("owner_id", task.UserID.String()),
			slog.String("requester_id", requester.ID.String()))
		return nil, domain.ErrNotOwner
	}

	return task, nil
}

// emit publishes a task event. Emission is best-effort: a broker outage must
// not fail the request whose state change already committed.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, task *domain.Task) {
	if s.emitter == nil {
		return
	}

	event, err := events.NewTaskEvent(eventType, task)
	if err != nil {
		s.logger.Error("failed to build task event",
			slog.String("event_type", eventType),
			slog.String("task_id", task.ID.String()),
			"error", err)
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Error("failed to emit task event",
			slog.String("event_type", eventType),
			slog.String("task_id", task.ID.String()),
			slog.String("error", redact.Error(err)))
	}
}

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// TaskPatch is a partial update applied to a task. Nil fields are left
// untouched. Patches are applied by AtomicUpdate in a single store
// operation, so there is no read-modify-write window.
type TaskPatch struct {
	Description *string
	State       *domain.TaskState
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Description == nil && p.State == nil
}

// TaskStore defines the interface for task data persistence.
//
// All operations are safe to call concurrently for different ids; operations
// on the same id are serialized by the backing store's own atomicity. The
// store adds no locking of its own.
type TaskStore interface {
	// Create persists a new task and returns the stored entity with its
	// repository-maintained timestamps.
	// Returns ErrInvalidEntity (wrapping the validation cause) for invalid tasks.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// All lists tasks matching the query. Unrecognized condition fields,
	// sort fields, and projection fields are ignored.
	All(ctx context.Context, q Query) ([]*domain.Task, error)

	// AtomicUpdate applies the patch as a single atomic statement and
	// returns the updated task.
	// Returns ErrTaskNotFound if the id does not exist.
	AtomicUpdate(ctx context.Context, id uuid.UUID, patch TaskPatch) (*domain.Task, error)

	// Delete removes a task and returns the prior entity.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

// Package postgres implements the store interfaces against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// taskColumns are the columns of the tasks table in canonical order.
var taskColumns = []string{"id", "description", "state", "user_id", "created_at", "updated_at"}

// queryableTaskFields maps external query field names to table columns.
// Only fields listed here participate in filters, sorts, and projections;
// anything else in a Query is ignored per the store contract.
var queryableTaskFields = map[string]string{
	"id":          "id",
	"description": "description",
	"state":       "state",
	"user_id":     "user_id",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// sqlOps maps store comparison operators to SQL operators.
var sqlOps = map[store.Op]string{
	store.OpEq:  "=",
	store.OpNe:  "<>",
	store.OpGt:  ">",
	store.OpGte: ">=",
	store.OpLt:  "<",
	store.OpLte: "<=",
}

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface.
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, description, state, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+strings.Join(taskColumns, ", "),
		task.ID, task.Description, task.State, task.UserID, task.CreatedAt, task.UpdatedAt,
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	s.logger.Debug("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("user_id", created.UserID.String()))
	return created, nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(taskColumns, ", ")+` FROM tasks WHERE id = $1`, id)

	task, err := scanTask(row)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", err)
	}

	return task, nil
}

// All implements store.TaskStore.All. The query's conditions, sort, and
// projection are restricted to known task fields; unknown fields are
// silently dropped.
func (s *TaskStore) All(ctx context.Context, q store.Query) ([]*domain.Task, error) {
	sqlQuery, columns, args := buildTaskListQuery(q)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(scanTargets(&t, columns)...); err != nil {
			return nil, store.NewStoreError("task", "list", "scan failed", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "iteration failed", MapError(err))
	}

	return tasks, nil
}

// AtomicUpdate implements store.TaskStore.AtomicUpdate. The patch is applied
// in a single UPDATE statement, so concurrent patches to the same row are
// serialized by the database with no read-modify-write window.
func (s *TaskStore) AtomicUpdate(ctx context.Context, id uuid.UUID, patch store.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return s.GetByID(ctx, id)
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}

	if patch.Description != nil {
		args = append(args, strings.TrimSpace(*patch.Description))
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.State != nil {
		args = append(args, *patch.State)
		sets = append(sets, fmt.Sprintf("state = $%d", len(args)))
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 RETURNING `+strings.Join(taskColumns, ", "),
		args...,
	)

	task, err := scanTask(row)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "update", "atomic update failed", MapError(err))
	}

	s.logger.Debug("task updated", slog.String("task_id", task.ID.String()))
	return task, nil
}

// Delete implements store.TaskStore.Delete. The removed row is returned to
// the caller.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM tasks WHERE id = $1 RETURNING `+strings.Join(taskColumns, ", "), id)

	task, err := scanTask(row)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "delete", "delete failed", err)
	}

	s.logger.Debug("task deleted", slog.String("task_id", task.ID.String()))
	return task, nil
}

// scanTask scans a single full task row.
func scanTask(row *sql.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Description, &t.State, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTargets returns scan destinations on t for the given column list.
func scanTargets(t *domain.Task, columns []string) []any {
	targets := make([]any, 0, len(columns))
	for _, col := range columns {
		switch col {
		case "id":
			targets = append(targets, &t.ID)
		case "description":
			targets = append(targets, &t.Description)
		case "state":
			targets = append(targets, &t.State)
		case "user_id":
			targets = append(targets, &t.UserID)
		case "created_at":
			targets = append(targets, &t.CreatedAt)
		case "updated_at":
			targets = append(targets, &t.UpdatedAt)
		}
	}
	return targets
}

// buildTaskListQuery translates a store.Query into SQL, the selected column
// list, and bound arguments.
func buildTaskListQuery(q store.Query) (string, []string, []any) {
	columns := projectedColumns(q.Projection)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM tasks")

	args := make([]any, 0, len(q.Conditions))

	// Filters are emitted in sorted field order so the generated SQL is
	// deterministic.
	fields := make([]string, 0, len(q.Conditions))
	for field := range q.Conditions {
		if _, ok := queryableTaskFields[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	if len(fields) > 0 {
		sb.WriteString(" WHERE ")
		for i, field := range fields {
			cond := q.Conditions[field]
			op, ok := sqlOps[cond.Op]
			if !ok {
				op = "="
			}
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, cond.Value)
			fmt.Fprintf(&sb, "%s %s $%d", queryableTaskFields[field], op, len(args))
		}
	}

	// Sort: "+field" ascending, "-field" descending, unknown fields ignored.
	orderBy := "created_at ASC"
	if len(q.Sort) > 0 {
		direction := "ASC"
		if q.Sort[0] == '-' {
			direction = "DESC"
		}
		field := strings.TrimLeft(q.Sort, "+-")
		if col, ok := queryableTaskFields[field]; ok {
			orderBy = col + " " + direction
		}
	}
	sb.WriteString(" ORDER BY " + orderBy)

	if q.PerPage > 0 {
		args = append(args, q.PerPage)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
		if q.Page > 1 {
			args = append(args, (q.Page-1)*q.PerPage)
			fmt.Fprintf(&sb, " OFFSET $%d", len(args))
		}
	}

	return sb.String(), columns, args
}

// projectedColumns narrows the column list to the requested projection.
// The id column is always included so entities stay addressable; unknown
// fields are dropped.
func projectedColumns(projection []string) []string {
	if len(projection) == 0 {
		return taskColumns
	}

	want := map[string]bool{"id": true}
	for _, field := range projection {
		if col, ok := queryableTaskFields[field]; ok {
			want[col] = true
		}
	}

	columns := make([]string, 0, len(want))
	for _, col := range taskColumns {
		if want[col] {
			columns = append(columns, col)
		}
	}
	return columns
}

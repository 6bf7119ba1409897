package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/api"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// stubTaskService returns canned results per operation.
type stubTaskService struct {
	createFn   func(ctx context.Context, requester domain.Identity, description string, state domain.TaskState) (*domain.Task, error)
	getFn      func(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)
	listFn     func(ctx context.Context, requester domain.Identity) ([]*domain.Task, error)
	updateFn   func(ctx context.Context, requester domain.Identity, id uuid.UUID, description string) (*domain.Task, error)
	markDoneFn func(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)
	deleteFn   func(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error)
}

func (s *stubTaskService) Create(ctx context.Context, requester domain.Identity, description string, state domain.TaskState) (*domain.Task, error) {
	return s.createFn(ctx, requester, description, state)
}

func (s *stubTaskService) Get(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error) {
	return s.getFn(ctx, requester, id)
}

func (s *stubTaskService) List(ctx context.Context, requester domain.Identity) ([]*domain.Task, error) {
	return s.listFn(ctx, requester)
}

func (s *stubTaskService) Update(ctx context.Context, requester domain.Identity, id uuid.UUID, description string) (*domain.Task, error) {
	return s.updateFn(ctx, requester, id, description)
}

func (s *stubTaskService) MarkDone(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error) {
	return s.markDoneFn(ctx, requester, id)
}

func (s *stubTaskService) Delete(ctx context.Context, requester domain.Identity, id uuid.UUID) (*domain.Task, error) {
	return s.deleteFn(ctx, requester, id)
}

// newTaskRouter mounts the handler under the task routes with a fixed
// authenticated identity, mirroring the production route layout.
func newTaskRouter(svc *stubTaskService, identity domain.Identity) http.Handler {
	handler := api.NewTaskHandler(svc, nil, slog.Default())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/tasks", handler.CreateTask)
	r.Get("/tasks", handler.ListTasks)
	r.Get("/tasks/{id}", handler.GetTask)
	r.Patch("/tasks/{id}", handler.UpdateTask)
	r.Patch("/tasks/{id}/done", handler.MarkTaskDone)
	r.Delete("/tasks/{id}", handler.DeleteTask)
	return r
}

func sampleTask(owner uuid.UUID) *domain.Task {
	return &domain.Task{
		ID:          uuid.New(),
		Description: "write report",
		State:       domain.TaskStateTodo,
		UserID:      owner,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) shared.Envelope {
	t.Helper()
	var envelope shared.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}

	t.Run("creates task for the authenticated user", func(t *testing.T) {
		t.Parallel()

		task := sampleTask(requester.ID)
		svc := &stubTaskService{
			createFn: func(ctx context.Context, got domain.Identity, description string, state domain.TaskState) (*domain.Task, error) {
				assert.Equal(t, requester.ID, got.ID)
				assert.Equal(t, "write report", description)
				return task, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks",
			strings.NewReader(`{"description":"write report"}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, shared.StatusSuccess, envelope.Status)

		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, task.ID.String(), data["id"])
		assert.Equal(t, requester.ID.String(), data["user_id"])
		assert.Equal(t, "todo", data["state"])
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing description", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, shared.StatusError, envelope.Status)
		assert.Contains(t, envelope.Error, "Description")
	})

	t.Run("whitespace-only description yields 400", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			createFn: func(ctx context.Context, got domain.Identity, description string, state domain.TaskState) (*domain.Task, error) {
				return domain.NewTask(got.ID, description, state)
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks",
			strings.NewReader(`{"description":"   "}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, shared.StatusError, envelope.Status)
		assert.Equal(t, "Invalid description: cannot be empty", envelope.Error)
	})

	t.Run("rejects unknown state value", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks",
			strings.NewReader(`{"description":"x","state":"archived"}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}

	t.Run("returns the task", func(t *testing.T) {
		t.Parallel()

		task := sampleTask(requester.ID)
		svc := &stubTaskService{
			getFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, task.ID, id)
				return task, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign task yields 403", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			getFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
				return nil, domain.ErrNotOwner
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, "You are not authorised", envelope.Error)
	})

	t.Run("unknown task yields 404", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			getFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
				return nil, store.ErrTaskNotFound
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id yields 400", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}

	t.Run("returns the requester's tasks", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			listFn: func(ctx context.Context, got domain.Identity) ([]*domain.Task, error) {
				assert.Equal(t, requester.ID, got.ID)
				return []*domain.Task{sampleTask(requester.ID), sampleTask(requester.ID)}, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		envelope := decodeEnvelope(t, rec)
		data, ok := envelope.Data.([]interface{})
		require.True(t, ok)
		assert.Len(t, data, 2)
	})

	t.Run("empty list stays a list", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			listFn: func(ctx context.Context, got domain.Identity) ([]*domain.Task, error) {
				return []*domain.Task{}, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"data":[]`)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}

	t.Run("updates the description", func(t *testing.T) {
		t.Parallel()

		task := sampleTask(requester.ID)
		task.Description = "final"
		svc := &stubTaskService{
			updateFn: func(ctx context.Context, got domain.Identity, id uuid.UUID, description string) (*domain.Task, error) {
				assert.Equal(t, "final", description)
				return task, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/tasks/"+task.ID.String(),
			strings.NewReader(`{"description":"final"}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("completed task yields 409", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			updateFn: func(ctx context.Context, got domain.Identity, id uuid.UUID, description string) (*domain.Task, error) {
				return nil, domain.ErrTaskCompleted
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/tasks/"+uuid.NewString(),
			strings.NewReader(`{"description":"late edit"}`))
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, "Task is already completed", envelope.Error)
	})
}

func TestMarkTaskDone(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}
	task := sampleTask(requester.ID)
	task.State = domain.TaskStateDone

	svc := &stubTaskService{
		markDoneFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
			return task, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/tasks/"+task.ID.String()+"/done", nil)
	newTaskRouter(svc, requester).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "done", data["state"])
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	requester := domain.Identity{ID: uuid.New()}

	t.Run("returns the deleted task", func(t *testing.T) {
		t.Parallel()

		task := sampleTask(requester.ID)
		svc := &stubTaskService{
			deleteFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
				return task, nil
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/tasks/"+task.ID.String(), nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		envelope := decodeEnvelope(t, rec)
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, task.ID.String(), data["id"])
	})

	t.Run("unknown task yields 404", func(t *testing.T) {
		t.Parallel()

		svc := &stubTaskService{
			deleteFn: func(ctx context.Context, got domain.Identity, id uuid.UUID) (*domain.Task, error) {
				return nil, store.ErrTaskNotFound
			},
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil)
		newTaskRouter(svc, requester).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskhub-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskhub-api/internal/api/middleware"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Task routes live under the configured version prefix and
// are only reachable through the auth middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Routes match with or without a trailing slash
	r.Use(middleware.StripSlashes)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.MetricsMiddleware)

	taskHandler := api.NewTaskHandler(app.taskService, app.auditLog, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenCodec, app.resolver, app.logger)

	// Register versioned task routes (protected)
	r.Route(app.config.Server.APIVersion, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Patch("/tasks/{id}", taskHandler.UpdateTask)
			r.Patch("/tasks/{id}/done", taskHandler.MarkTaskDone)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		})
	})

	// Health check endpoint: healthy only while the store is reachable
	r.Get("/", app.handleHealthCheck)

	// Prometheus exposition
	r.Method(http.MethodGet, "/metrics", apiMiddleware.MetricsHandler())

	// Unmatched routes answer with the uniform envelope
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not Found")
	})

	return r
}

// handleHealthCheck reports readiness. The service is only useful with a
// reachable task store, so a failed ping turns into a 500.
func (app *application) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Service unavailable", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Welcome to " + app.config.Server.ServiceName,
	})
}

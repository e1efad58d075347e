package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pubstats/app"
	"pubstats/domain/stats"
	"pubstats/internal"
	"pubstats/ports"
)

// App represents the HTTP API application
type App struct {
	router   *chi.Mux
	service  *app.FamilyAnalysisService
	runs     ports.RunRepository // nil when no archive is configured
	defaults stats.AnalysisConfig
	logger   *internal.Logger
}

// Config holds HTTP application configuration
type Config struct {
	Port     string
	Defaults stats.AnalysisConfig // applied when a request omits config
}

// NewApp creates a new HTTP API application. The repository is optional;
// without it the run endpoints report the archive as unavailable
func NewApp(config Config, service *app.FamilyAnalysisService, runs ports.RunRepository) *App {
	defaults := config.Defaults
	if defaults == (stats.AnalysisConfig{}) {
		defaults = stats.DefaultAnalysisConfig()
	}
	a := &App{
		router:   chi.NewRouter(),
		service:  service,
		runs:     runs,
		defaults: defaults,
		logger:   internal.DefaultLogger,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Post("/api/analyze", a.handleAnalyze)
	a.router.Get("/api/runs", a.handleListRuns)
	a.router.Get("/api/runs/{id}", a.handleGetRun)
}

// Router exposes the configured handler for serving and tests
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(addr string) error {
	a.logger.Info("Starting pubstats API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"archive": a.runs != nil,
	})
}

func (a *App) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("Failed to encode response: %v", err)
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]interface{}{"error": message})
}

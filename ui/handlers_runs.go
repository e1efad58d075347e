package ui

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pubstats/domain/core"
)

const defaultRunListLimit = 20

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	limit := defaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			a.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := a.runs.ListRuns(r.Context(), limit)
	if err != nil {
		a.logger.Error("Failed to list runs: %v", err)
		a.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		a.respondError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := a.runs.GetRun(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			a.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		a.logger.Error("Failed to load run %s: %v", id, err)
		a.respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	a.respondJSON(w, http.StatusOK, run)
}

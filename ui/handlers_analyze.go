package ui

import (
	"encoding/json"
	"net/http"

	"pubstats/adapters/stats/engine"
	"pubstats/app"
	"pubstats/domain/core"
	"pubstats/domain/stats"
)

// analyzeRequest is the wire form of a family analysis. Numeric samples
// arrive as raw JSON values (numbers, numeric strings, "62.5%", null) and are
// coerced at this boundary; whatever fails coercion counts as missing
type analyzeRequest struct {
	RunID       string               `json:"run_id"`
	Config      *analyzeConfig       `json:"config"`
	Numeric     []numericPayload     `json:"numeric"`
	Categorical []categoricalPayload `json:"categorical"`
}

type analyzeConfig struct {
	Alpha       float64 `json:"alpha"`
	Method      string  `json:"method"`
	PrimaryTest string  `json:"primary_test"`
}

type numericPayload struct {
	Key    string        `json:"key"`
	GroupA []interface{} `json:"group_a"`
	GroupB []interface{} `json:"group_b"`
}

type categoricalPayload struct {
	Key   string                  `json:"key"`
	Table *stats.ContingencyTable `json:"table"`
}

func (r analyzeRequest) toFamilyRequest(defaults stats.AnalysisConfig) (app.FamilyRequest, error) {
	req := app.FamilyRequest{
		Config: defaults,
	}
	if r.RunID != "" {
		runID, err := core.ParseRunID(r.RunID)
		if err != nil {
			return app.FamilyRequest{}, err
		}
		req.RunID = runID
	}
	if r.Config != nil {
		if r.Config.Alpha != 0 {
			req.Config.Alpha = r.Config.Alpha
		}
		if r.Config.Method != "" {
			req.Config.Method = stats.CorrectionMethod(r.Config.Method)
		}
		if r.Config.PrimaryTest != "" {
			req.Config.PrimaryTest = stats.TestType(r.Config.PrimaryTest)
		}
	}
	for _, q := range r.Numeric {
		key, err := core.ParseQuestionKey(q.Key)
		if err != nil {
			return app.FamilyRequest{}, err
		}
		req.Numeric = append(req.Numeric, app.NumericQuestion{
			Key:    key,
			GroupA: engine.CoerceSlice(q.GroupA),
			GroupB: engine.CoerceSlice(q.GroupB),
		})
	}
	for _, q := range r.Categorical {
		key, err := core.ParseQuestionKey(q.Key)
		if err != nil {
			return app.FamilyRequest{}, err
		}
		req.Categorical = append(req.Categorical, app.CategoricalQuestion{
			Key:   key,
			Table: q.Table,
		})
	}
	return req, nil
}

func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := payload.toFamilyRequest(a.defaults)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.service.AnalyzeFamily(r.Context(), req)
	if err != nil {
		if core.IsFamilyError(err) {
			a.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if a.runs != nil {
		if err := a.service.ArchiveRun(r.Context(), result); err != nil {
			// The analysis itself succeeded; report it and log the archive failure
			a.logger.Error("Failed to archive run %s: %v", result.RunID, err)
		}
	}

	a.respondJSON(w, http.StatusOK, result)
}

package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pubstats/app"
	"pubstats/domain/core"
	"pubstats/models"
)

type memoryRunRepository struct {
	saved []*models.AnalysisRun
}

func (m *memoryRunRepository) SaveRun(_ context.Context, run *models.AnalysisRun) error {
	m.saved = append(m.saved, run)
	return nil
}

func (m *memoryRunRepository) GetRun(_ context.Context, id core.RunID) (*models.AnalysisRun, error) {
	for _, run := range m.saved {
		if run.ID == id.String() {
			return run, nil
		}
	}
	return nil, core.ErrRunNotFound
}

func (m *memoryRunRepository) ListRuns(_ context.Context, limit int) ([]*models.AnalysisRun, error) {
	out := make([]*models.AnalysisRun, 0, limit)
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[i])
	}
	return out, nil
}

func newTestApp(repo *memoryRunRepository) *App {
	var service *app.FamilyAnalysisService
	if repo != nil {
		service = app.NewFamilyAnalysisService(repo)
		return NewApp(Config{Port: "0"}, service, repo)
	}
	service = app.NewFamilyAnalysisService(nil)
	return NewApp(Config{Port: "0"}, service, nil)
}

const analyzeBody = `{
	"numeric": [
		{
			"key": "time_to_publish",
			"group_a": [120, 95, "130", 140.5, null, "n/a", 110],
			"group_b": [50, 62, "58.5", "45%", 70, 48]
		}
	],
	"categorical": [
		{
			"key": "satisfaction",
			"table": {
				"groups": ["v1.0", "v2.0"],
				"categories": ["satisfied", "neutral", "dissatisfied"],
				"counts": [[12, 18, 20], [30, 14, 6]]
			}
		}
	]
}`

func TestHandleAnalyze(t *testing.T) {
	a := newTestApp(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(analyzeBody))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result app.FamilyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result.RunID == "" {
		t.Error("expected a generated run ID")
	}
	if len(result.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(result.Questions))
	}

	numeric := result.Questions[0]
	if numeric.Key != "time_to_publish" {
		t.Errorf("unexpected first question key %q", numeric.Key)
	}
	// null and "n/a" drop out; "130" and "45%" coerce
	if numeric.GroupA.N != 5 {
		t.Errorf("expected group A n=5 after coercion, got %d", numeric.GroupA.N)
	}
	if numeric.GroupB.N != 6 {
		t.Errorf("expected group B n=6 after coercion, got %d", numeric.GroupB.N)
	}
	if !numeric.RawP.Defined() {
		t.Error("expected a defined raw p-value")
	}

	if result.Correction == nil {
		t.Fatal("expected a correction result")
	}
	if result.Correction.FamilySize != 2 {
		t.Errorf("expected family size 2, got %d", result.Correction.FamilySize)
	}
}

func TestHandleAnalyze_ConfigOverride(t *testing.T) {
	a := newTestApp(nil)

	body := `{
		"config": {"alpha": 0.01, "method": "bonferroni", "primary_test": "mann_whitney_u"},
		"numeric": [
			{"key": "q1", "group_a": [1, 2, 3, 4, 5], "group_b": [6, 7, 8, 9, 10]}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result app.FamilyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Config.Alpha != 0.01 {
		t.Errorf("expected alpha override 0.01, got %v", result.Config.Alpha)
	}
	if result.Questions[0].RawP.Float() != result.Questions[0].Comparison.MannWhitneyP.Float() {
		t.Error("expected the configured primary test to drive the raw p-value")
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	a := newTestApp(nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"numeric": [`},
		{"no questions", `{}`},
		{"empty key", `{"numeric": [{"key": "", "group_a": [1], "group_b": [2]}]}`},
		{"unknown primary test", `{"config": {"primary_test": "anova"}, "numeric": [{"key": "q1", "group_a": [1, 2], "group_b": [3, 4]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			a.Router().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleAnalyze_ArchivesRun(t *testing.T) {
	repo := &memoryRunRepository{}
	a := newTestApp(repo)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(analyzeBody))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result app.FamilyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 archived run, got %d", len(repo.saved))
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/runs/"+result.RunID.String(), nil)
	getRec := httptest.NewRecorder()
	a.Router().ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from run lookup, got %d: %s", getRec.Code, getRec.Body.String())
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(getRec.Body.Bytes(), &run); err != nil {
		t.Fatalf("failed to decode archived run: %v", err)
	}
	if run.ID != result.RunID.String() {
		t.Errorf("archived run ID %q does not match %q", run.ID, result.RunID)
	}
	if run.QuestionCount != 2 {
		t.Errorf("expected question count 2, got %d", run.QuestionCount)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
	listRec := httptest.NewRecorder()
	a.Router().ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from run list, got %d", listRec.Code)
	}

	var listing struct {
		Runs  []models.AnalysisRun `json:"runs"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode run listing: %v", err)
	}
	if listing.Count != 1 || len(listing.Runs) != 1 {
		t.Errorf("expected 1 listed run, got count=%d len=%d", listing.Count, len(listing.Runs))
	}
}

func TestHandleRuns_NoArchive(t *testing.T) {
	a := newTestApp(nil)

	for _, path := range []string{"/api/runs", "/api/runs/some-id"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		a.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestHandleGetRun_NotFound(t *testing.T) {
	a := newTestApp(&memoryRunRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	a := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var health struct {
		Status  string `json:"status"`
		Archive bool   `json:"archive"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health.Status != "ok" || health.Archive {
		t.Errorf("unexpected health payload: %+v", health)
	}
}

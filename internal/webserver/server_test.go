package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/models"
)

func newTestServer(t *testing.T, outcomes ...models.GenerationOutcome) http.Handler {
	t.Helper()

	dir := t.TempDir()
	for _, o := range outcomes {
		data, err := json.Marshal(o)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, o.RunID+".json"), data, 0o644))
	}

	srv, err := New(Config{
		Port:        0,
		OutcomesDir: dir,
		NoBrowser:   true,
	})
	require.NoError(t, err)
	return srv.Handler()
}

func testOutcome(runID string) models.GenerationOutcome {
	return models.GenerationOutcome{
		RunID:     runID,
		SetName:   "unit3-vocab",
		Kind:      models.KindVocabulary,
		ModelID:   "gpt-4o",
		Timestamp: time.Now(),
		Digest: models.OutcomeDigest{
			TotalJobs: 2,
			Succeeded: 2,
			Questions: 8,
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestAPISummaryReturnsJSON(t *testing.T) {
	handler := newTestServer(t, testOutcome("run-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Contains(t, body, "totalRuns")
	assert.Equal(t, float64(1), body["totalRuns"])
}

func TestAPIRunsListsOutcomes(t *testing.T) {
	handler := newTestServer(t, testOutcome("run-1"), testOutcome("run-2"))

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var runs []map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &runs)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAPIReload(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "reloaded", body["status"])
}

func TestIndexListsEndpoints(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/runs")
}

func TestUnknownPathIs404(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

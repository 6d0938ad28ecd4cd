package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qforge/qforge/internal/models"
)

// mockStore implements RunStore for testing.
type mockStore struct {
	runs    map[string]*RunDetail
	listErr error
	getErr  error
	sumErr  error
}

func newMockStore() *mockStore {
	return &mockStore{runs: make(map[string]*RunDetail)}
}

func (m *mockStore) addRun(detail *RunDetail) {
	m.runs[detail.ID] = detail
}

func (m *mockStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	runs := make([]RunSummary, 0, len(m.runs))
	for _, d := range m.runs {
		runs = append(runs, d.RunSummary)
	}
	sortRuns(runs, sortField, order)
	return runs, nil
}

func (m *mockStore) GetRun(id string) (*RunDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return d, nil
}

func (m *mockStore) Summary() (*SummaryResponse, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	resp := &SummaryResponse{}
	totalSucceeded := 0
	totalDuration := 0.0

	for _, d := range m.runs {
		resp.TotalRuns++
		resp.TotalJobs += d.JobCount
		resp.TotalQuestions += d.Questions
		totalSucceeded += d.Succeeded
		totalDuration += d.Duration
	}

	if resp.TotalJobs > 0 {
		resp.SuccessRate = float64(totalSucceeded) / float64(resp.TotalJobs) * 100.0
	}
	if resp.TotalRuns > 0 {
		resp.AvgDuration = totalDuration / float64(resp.TotalRuns)
	}

	return resp, nil
}

func sampleRun(id, set, model string, succeeded, total, questions int, ts time.Time) *RunDetail {
	outcome := "complete"
	if succeeded == 0 {
		outcome = "failed"
	} else if succeeded < total {
		outcome = "partial"
	}
	return &RunDetail{
		RunSummary: RunSummary{
			ID:        id,
			Set:       set,
			Kind:      "vocabulary",
			Model:     model,
			Outcome:   outcome,
			JobCount:  total,
			Succeeded: succeeded,
			Questions: questions,
			Duration:  12.5,
			Timestamp: ts,
		},
		TypeCounts: map[models.QuestionType]int{models.TypeMeaning: questions},
		Failures:   map[string]string{},
		Items: []models.Question{
			{
				ID:      "q_1",
				Type:    models.TypeMeaning,
				Prompt:  "What does ephemeral mean?",
				Choices: []string{"lasting", "short-lived", "shiny", "loud"},
				Answer:  1,
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	store := newMockStore()
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Version == "" {
		t.Error("expected non-empty version")
	}
}

func TestHandleSummaryEmpty(t *testing.T) {
	store := newMockStore()
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()

	h.HandleSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp SummaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalRuns != 0 {
		t.Errorf("expected 0 runs, got %d", resp.TotalRuns)
	}
}

func TestHandleSummaryAggregates(t *testing.T) {
	store := newMockStore()
	store.addRun(sampleRun("run-1", "unit3-vocab", "gpt-4o", 4, 4, 16, time.Now()))
	store.addRun(sampleRun("run-2", "unit4-vocab", "gpt-4o", 2, 4, 8, time.Now()))
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()

	h.HandleSummary(rec, req)

	var resp SummaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalRuns != 2 {
		t.Errorf("expected 2 runs, got %d", resp.TotalRuns)
	}
	if resp.TotalJobs != 8 {
		t.Errorf("expected 8 jobs, got %d", resp.TotalJobs)
	}
	if resp.TotalQuestions != 24 {
		t.Errorf("expected 24 questions, got %d", resp.TotalQuestions)
	}
	if resp.SuccessRate != 75.0 {
		t.Errorf("expected success rate 75, got %f", resp.SuccessRate)
	}
}

func TestHandleRuns(t *testing.T) {
	store := newMockStore()
	store.addRun(sampleRun("run-1", "unit3-vocab", "gpt-4o", 4, 4, 16, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	store.addRun(sampleRun("run-2", "unit4-vocab", "gpt-4o-mini", 3, 4, 12, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()

	h.HandleRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var runs []RunSummary
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Default sort is timestamp descending.
	if runs[0].ID != "run-2" {
		t.Errorf("expected run-2 first, got %s", runs[0].ID)
	}
}

func TestHandleRunsSortAscending(t *testing.T) {
	store := newMockStore()
	store.addRun(sampleRun("run-1", "a", "m", 4, 4, 20, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	store.addRun(sampleRun("run-2", "b", "m", 4, 4, 4, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?sort=questions&order=asc", nil)
	rec := httptest.NewRecorder()

	h.HandleRuns(rec, req)

	var runs []RunSummary
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if runs[0].ID != "run-2" {
		t.Errorf("expected run-2 first (fewest questions), got %s", runs[0].ID)
	}
}

func TestHandleRunsStoreError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("list failed")
	h := NewHandlers(store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	h.HandleRuns(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errResp.Error, "list failed") {
		t.Errorf("expected error message to contain list failed, got %q", errResp.Error)
	}
}

func TestHandleRunDetail(t *testing.T) {
	store := newMockStore()
	store.addRun(sampleRun("run-1", "unit3-vocab", "gpt-4o", 4, 4, 16, time.Now()))

	mux := http.NewServeMux()
	RegisterRoutes(mux, store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var detail RunDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != "run-1" {
		t.Errorf("expected run-1, got %s", detail.ID)
	}
	if len(detail.Items) != 1 {
		t.Errorf("expected 1 question, got %d", len(detail.Items))
	}
	if detail.Items[0].Answer != 1 {
		t.Errorf("expected answer index 1, got %d", detail.Items[0].Answer)
	}
}

func TestHandleRunDetailNotFound(t *testing.T) {
	store := newMockStore()
	mux := http.NewServeMux()
	RegisterRoutes(mux, store)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := CORSMiddleware(inner, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected CORS origin echoed, got %q", got)
	}

	// Unlisted origin gets no CORS header.
	req = httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header, got %q", got)
	}
}

package webapi

import (
	"time"

	"github.com/qforge/qforge/internal/models"
)

// RunSummary is the API response for a single generation run in the list.
type RunSummary struct {
	ID        string    `json:"id"`
	Set       string    `json:"set"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model"`
	Outcome   string    `json:"outcome"`
	JobCount  int       `json:"jobCount"`
	Succeeded int       `json:"succeeded"`
	Questions int       `json:"questions"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// RunDetail is the API response for a single run, including every
// generated question and any per-job failure reasons.
type RunDetail struct {
	RunSummary
	TypeCounts map[models.QuestionType]int `json:"typeCounts"`
	UsedPrompt string                      `json:"usedPrompt,omitempty"`
	Failures   map[string]string           `json:"failures"`
	Items      []models.Question           `json:"items"`
}

// SummaryResponse is the aggregate KPI response across all runs.
type SummaryResponse struct {
	TotalRuns      int     `json:"totalRuns"`
	TotalJobs      int     `json:"totalJobs"`
	TotalQuestions int     `json:"totalQuestions"`
	SuccessRate    float64 `json:"successRate"`
	AvgDuration    float64 `json:"avgDuration"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

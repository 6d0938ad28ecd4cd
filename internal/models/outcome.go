package models

import "time"

// OutcomeDigest summarizes one generation batch.
type OutcomeDigest struct {
	TotalJobs   int                  `json:"total_jobs"`
	Succeeded   int                  `json:"succeeded"`
	Failed      int                  `json:"failed"`
	SuccessRate float64              `json:"success_rate"`
	Questions   int                  `json:"questions"`
	TypeCounts  map[QuestionType]int `json:"type_counts,omitempty"`
	DurationMs  int64                `json:"duration_ms"`
}

// GenerationOutcome is the persisted artifact of one generation run.
// Saved as JSON by `qforge generate --output` and read back by the
// dashboard's run store.
type GenerationOutcome struct {
	RunID     string    `json:"run_id"`
	SetName   string    `json:"set_name"`
	Kind      SetKind   `json:"kind"`
	ModelID   string    `json:"model_id"`
	Timestamp time.Time `json:"timestamp"`

	Digest    OutcomeDigest `json:"digest"`
	Questions []Question    `json:"questions"`

	// UsedPrompt is the first fully-resolved prompt the backend reported,
	// kept for audit display only.
	UsedPrompt string `json:"used_prompt,omitempty"`

	// JobFailures maps failed job keys to their failure reasons.
	JobFailures map[string]string `json:"job_failures,omitempty"`
}

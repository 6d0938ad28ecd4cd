package models

// JobResult is the settled outcome of one generation job. Exactly one is
// produced per job descriptor; failures are data, not errors.
type JobResult struct {
	Key           string
	Success       bool
	Questions     []Question
	UsedPrompt    string
	FailureReason string
}

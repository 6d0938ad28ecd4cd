// Package aggregate folds per-job results into a single batch and keeps
// question identity stable across merges.
package aggregate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qforge/qforge/internal/models"
)

// Batch is the collected outcome of one fan-out run. Items hold every
// accepted question in job order; Failures maps a failed job's key to the
// reason it failed.
type Batch struct {
	Items        []models.Question
	SuccessCount int
	FailureCount int
	FirstPrompt  string
	TypeCounts   map[models.QuestionType]int
	Failures     map[string]string
}

// Collect folds job results, in the order they were submitted, into a
// batch. Failed jobs contribute a failure reason and nothing else.
func Collect(results []models.JobResult) *Batch {
	batch := &Batch{}
	for _, result := range results {
		if !result.Success {
			batch.FailureCount++
			if batch.Failures == nil {
				batch.Failures = make(map[string]string)
			}
			batch.Failures[result.Key] = result.FailureReason
			continue
		}
		batch.SuccessCount++
		batch.Items = append(batch.Items, result.Questions...)
		if batch.FirstPrompt == "" {
			batch.FirstPrompt = result.UsedPrompt
		}
	}
	batch.TypeCounts = models.CountByType(batch.Items)
	return batch
}

// RepairIDs makes question IDs unique within the slice. The first question
// holding an ID keeps it; later duplicates (and questions with no ID at
// all) are assigned fresh IDs. Order and all other fields are preserved,
// and a slice that is already unique comes back unchanged.
func RepairIDs(items []models.Question) []models.Question {
	seen := make(map[string]bool, len(items))
	for i := range items {
		id := items[i].ID
		if id == "" || seen[id] {
			id = NewID()
			items[i].ID = id
		}
		seen[id] = true
	}
	return items
}

// Merge extends an accepted collection with the items from a new batch.
// Existing items are never modified, reordered, or dropped; incoming items
// are appended in order, with IDs reassigned when they collide with an
// existing ID (or with an earlier incoming one).
func Merge(existing, incoming []models.Question) []models.Question {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, q := range existing {
		seen[q.ID] = true
	}

	merged := make([]models.Question, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)
	for _, q := range incoming {
		if q.ID == "" || seen[q.ID] {
			q.ID = NewID()
		}
		seen[q.ID] = true
		merged = append(merged, q)
	}
	return merged
}

// NewID returns a question ID that is unique across runs: a millisecond
// timestamp for rough ordering plus a UUID fragment for uniqueness.
func NewID() string {
	return fmt.Sprintf("q_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

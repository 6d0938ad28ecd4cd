package orchestration

import "sync"

// ProgressEntry is the live state of one job.
type ProgressEntry struct {
	// Percent is 0..100. It only moves forward while a job is healthy;
	// a terminal failure resets it to 0 with a failure status.
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

// ProgressSummary is derived from all entries on every observation.
type ProgressSummary struct {
	Jobs           int     `json:"jobs"`
	DoneCount      int     `json:"done_count"`
	AveragePercent float64 `json:"average_percent"`
}

// Tracker is a concurrently-updated job-key → ProgressEntry map. Jobs
// write only under their own key, so a single mutex around the map is all
// the coordination the batch needs.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]ProgressEntry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]ProgressEntry)}
}

// Set replaces the entry for one key.
func (t *Tracker) Set(key string, entry ProgressEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = entry
}

// Get returns the entry for key, if present.
func (t *Tracker) Get(key string) (ProgressEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[key]
	return entry, ok
}

// Snapshot returns a copy of all entries for display. Mutating the
// returned map does not affect the tracker.
func (t *Tracker) Snapshot() map[string]ProgressEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := make(map[string]ProgressEntry, len(t.entries))
	for k, v := range t.entries {
		snap[k] = v
	}
	return snap
}

// Summary recomputes the aggregate view across all keys.
func (t *Tracker) Summary() ProgressSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := ProgressSummary{Jobs: len(t.entries)}
	if summary.Jobs == 0 {
		return summary
	}

	total := 0
	for _, entry := range t.entries {
		total += entry.Percent
		if entry.Percent == 100 {
			summary.DoneCount++
		}
	}
	summary.AveragePercent = float64(total) / float64(summary.Jobs)
	return summary
}

// Reset clears all entries, ready for a fresh batch.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]ProgressEntry)
}

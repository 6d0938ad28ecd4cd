package webapi

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/qforge/qforge/internal/models"
)

// ErrRunNotFound is returned when a run ID does not match any stored run.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides access to generation run data.
type RunStore interface {
	// ListRuns returns all runs, sorted by the given field and order.
	ListRuns(sortField, order string) ([]RunSummary, error)
	// GetRun returns a single run with its questions and failures.
	GetRun(id string) (*RunDetail, error)
	// Summary returns aggregate metrics across all runs.
	Summary() (*SummaryResponse, error)
}

// FileStore reads GenerationOutcome JSON files from a directory.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	runs    map[string]*models.GenerationOutcome
	loaded  bool
	loadErr error
}

// NewFileStore creates a FileStore that reads outcomes from dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:  dir,
		runs: make(map[string]*models.GenerationOutcome),
	}
}

// load reads all outcome JSON files from the configured directory.
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.runs = make(map[string]*models.GenerationOutcome)

	if fs.dir == "" {
		fs.loaded = true
		return nil
	}

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			fs.loaded = true
			return nil
		}
		fs.loadErr = err
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(fs.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var outcome models.GenerationOutcome
		if err := json.Unmarshal(data, &outcome); err != nil {
			continue
		}
		if outcome.RunID == "" {
			// Use filename (without extension) as fallback ID.
			outcome.RunID = strings.TrimSuffix(e.Name(), ".json")
		}
		fs.runs[outcome.RunID] = &outcome
	}

	fs.loaded = true
	fs.loadErr = nil
	return nil
}

// ensureLoaded loads data if not already loaded.
func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load()
}

// Reload forces a fresh reload of all outcome files from disk.
func (fs *FileStore) Reload() error {
	return fs.load()
}

func outcomeToSummary(o *models.GenerationOutcome) RunSummary {
	outcome := "complete"
	if o.Digest.Succeeded == 0 {
		outcome = "failed"
	} else if o.Digest.Failed > 0 {
		outcome = "partial"
	}

	return RunSummary{
		ID:        o.RunID,
		Set:       o.SetName,
		Kind:      string(o.Kind),
		Model:     o.ModelID,
		Outcome:   outcome,
		JobCount:  o.Digest.TotalJobs,
		Succeeded: o.Digest.Succeeded,
		Questions: o.Digest.Questions,
		Duration:  float64(o.Digest.DurationMs) / 1000.0,
		Timestamp: o.Timestamp,
	}
}

func outcomeToDetail(o *models.GenerationOutcome) *RunDetail {
	detail := &RunDetail{
		RunSummary: outcomeToSummary(o),
		TypeCounts: o.Digest.TypeCounts,
		UsedPrompt: o.UsedPrompt,
		Failures:   o.JobFailures,
		Items:      o.Questions,
	}
	if detail.TypeCounts == nil {
		detail.TypeCounts = map[models.QuestionType]int{}
	}
	if detail.Failures == nil {
		detail.Failures = map[string]string{}
	}
	if detail.Items == nil {
		detail.Items = []models.Question{}
	}
	return detail
}

// ListRuns returns all runs sorted by the given field and order.
func (fs *FileStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	runs := make([]RunSummary, 0, len(fs.runs))
	for _, o := range fs.runs {
		runs = append(runs, outcomeToSummary(o))
	}

	sortRuns(runs, sortField, order)
	return runs, nil
}

// GetRun returns a single run with its questions and failures.
func (fs *FileStore) GetRun(id string) (*RunDetail, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	o, ok := fs.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}

	return outcomeToDetail(o), nil
}

// Summary returns aggregate metrics across all runs.
func (fs *FileStore) Summary() (*SummaryResponse, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	resp := &SummaryResponse{}
	if len(fs.runs) == 0 {
		return resp, nil
	}

	totalSucceeded := 0
	totalDuration := 0.0

	for _, o := range fs.runs {
		resp.TotalRuns++
		resp.TotalJobs += o.Digest.TotalJobs
		resp.TotalQuestions += o.Digest.Questions
		totalSucceeded += o.Digest.Succeeded
		totalDuration += float64(o.Digest.DurationMs) / 1000.0
	}

	if resp.TotalJobs > 0 {
		resp.SuccessRate = float64(totalSucceeded) / float64(resp.TotalJobs) * 100.0
	}
	if resp.TotalRuns > 0 {
		resp.AvgDuration = totalDuration / float64(resp.TotalRuns)
	}

	return resp, nil
}

func sortRuns(runs []RunSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "questions":
			return runs[i].Questions < runs[j].Questions
		case "duration":
			return runs[i].Duration < runs[j].Duration
		case "set":
			return runs[i].Set < runs[j].Set
		default: // "timestamp" or empty
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
	}

	if order == "asc" {
		sort.Slice(runs, less)
	} else {
		sort.Slice(runs, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure FileStore satisfies RunStore.
var _ RunStore = (*FileStore)(nil)

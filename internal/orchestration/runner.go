// Package orchestration fans generation jobs out against the backend,
// tracks per-job progress, and collects one JobResult per job descriptor
// regardless of how each job ends.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/qforge/qforge/internal/backend"
	"github.com/qforge/qforge/internal/models"
	"github.com/qforge/qforge/internal/stream"
	"github.com/qforge/qforge/internal/validation"
)

// JobDescriptor names one generation job. Key is unique within a batch.
type JobDescriptor struct {
	Key     string
	Request backend.GenerationRequest
}

// ProgressListener receives batch progress events.
type ProgressListener func(event ProgressEvent)

// EventType identifies a progress event.
type EventType string

const (
	EventBatchStart    EventType = "batch_start"
	EventBatchComplete EventType = "batch_complete"
	EventJobStart      EventType = "job_start"
	EventJobProgress   EventType = "job_progress"
	EventJobComplete   EventType = "job_complete"
)

// ProgressEvent is one progress update.
type ProgressEvent struct {
	EventType  EventType
	Key        string
	JobNum     int
	TotalJobs  int
	Percent    int
	Status     string
	Success    bool
	Questions  int
	DurationMs int64
}

// Coordinator runs a batch of jobs concurrently and waits for all of them
// to settle. By default fan-out is unbounded: one in-flight stream per
// descriptor, however many descriptors there are.
type Coordinator struct {
	engine  backend.Engine
	tracker *Tracker
	logger  *slog.Logger

	// maxInFlight > 0 gates how many jobs may be mid-flight at once.
	maxInFlight int64

	// jobTimeout > 0 bounds each job; zero preserves the no-timeout
	// baseline where a stalled stream only stalls its own entry.
	jobTimeout time.Duration

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxInFlight caps concurrent jobs. Zero or negative means unbounded.
func WithMaxInFlight(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxInFlight = int64(n)
	}
}

// WithJobTimeout bounds each job's request-plus-stream lifetime.
func WithJobTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.jobTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator that runs jobs against engine.
func NewCoordinator(engine backend.Engine, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		engine:  engine,
		tracker: NewTracker(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker exposes the live progress map for observation.
func (c *Coordinator) Tracker() *Tracker {
	return c.tracker
}

// OnProgress registers a progress listener.
func (c *Coordinator) OnProgress(listener ProgressListener) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Coordinator) notifyProgress(event ProgressEvent) {
	c.progressMu.Lock()
	listeners := make([]ProgressListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// RunAll runs every descriptor concurrently and returns results in
// descriptor order, not completion order, so downstream aggregation is
// deterministic. One job's failure never cancels or hides a sibling's.
func (c *Coordinator) RunAll(ctx context.Context, descriptors []JobDescriptor) []models.JobResult {
	startTime := time.Now()

	c.notifyProgress(ProgressEvent{
		EventType: EventBatchStart,
		TotalJobs: len(descriptors),
	})

	var sem *semaphore.Weighted
	if c.maxInFlight > 0 {
		sem = semaphore.NewWeighted(c.maxInFlight)
	}

	results := make([]models.JobResult, len(descriptors))
	var wg sync.WaitGroup

	for i, desc := range descriptors {
		wg.Add(1)
		go func(idx int, desc JobDescriptor) {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					results[idx] = c.failJob(desc.Key, fmt.Sprintf("waiting for slot: %v", err))
					return
				}
				defer sem.Release(1)
			}

			c.notifyProgress(ProgressEvent{
				EventType: EventJobStart,
				Key:       desc.Key,
				JobNum:    idx + 1,
				TotalJobs: len(descriptors),
			})

			jobStart := time.Now()
			result := c.runJob(ctx, desc)
			results[idx] = result

			c.notifyProgress(ProgressEvent{
				EventType:  EventJobComplete,
				Key:        desc.Key,
				JobNum:     idx + 1,
				TotalJobs:  len(descriptors),
				Success:    result.Success,
				Questions:  len(result.Questions),
				DurationMs: time.Since(jobStart).Milliseconds(),
			})
		}(i, desc)
	}

	wg.Wait()

	c.notifyProgress(ProgressEvent{
		EventType:  EventBatchComplete,
		TotalJobs:  len(descriptors),
		DurationMs: time.Since(startTime).Milliseconds(),
	})

	return results
}

// setProgress updates the tracker and mirrors the update to listeners.
func (c *Coordinator) setProgress(key string, percent int, status string) {
	c.tracker.Set(key, ProgressEntry{Percent: percent, Status: status})
	c.notifyProgress(ProgressEvent{
		EventType: EventJobProgress,
		Key:       key,
		Percent:   percent,
		Status:    status,
	})
}

func (c *Coordinator) failJob(key, reason string) models.JobResult {
	c.setProgress(key, 0, "failed: "+reason)
	return models.JobResult{Key: key, FailureReason: reason}
}

// streamChunkSize is the read size used to drive the decoder. Frames are
// never assumed to align with these reads.
const streamChunkSize = 4096

// runJob executes one job end to end. It never returns an error: every
// failure mode lands in the JobResult.
func (c *Coordinator) runJob(ctx context.Context, desc JobDescriptor) models.JobResult {
	if c.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.jobTimeout)
		defer cancel()
	}

	c.setProgress(desc.Key, 0, "pending")

	body, err := c.engine.Generate(ctx, &desc.Request)
	if err != nil {
		c.logger.Debug("generation request failed",
			"key", desc.Key,
			"transient", backend.IsTransient(err),
			"error", err)
		return c.failJob(desc.Key, err.Error())
	}
	defer body.Close() //nolint:errcheck

	c.setProgress(desc.Key, 10, "streaming")

	decoder := stream.NewDecoder()
	buf := make([]byte, streamChunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, event := range decoder.Feed(string(buf[:n])) {
				switch event.Kind {
				case stream.KindStart:
					c.setProgress(desc.Key, 15, "started")

				case stream.KindProgress:
					c.setProgress(desc.Key, progressPercent(event.CharCount),
						fmt.Sprintf("generating (%d chars)", event.CharCount))

				case stream.KindComplete:
					questions := c.keepValid(desc.Key, event.Questions)
					c.setProgress(desc.Key, 100, fmt.Sprintf("done (%d questions)", len(questions)))
					return models.JobResult{
						Key:        desc.Key,
						Success:    true,
						Questions:  questions,
						UsedPrompt: event.UsedPrompt,
					}

				case stream.KindError:
					return c.failJob(desc.Key, event.Message)
				}
			}
		}

		if readErr == io.EOF || decoder.Closed() {
			// Stream ended without a complete or error event: the
			// backend went silent, which counts as a failure rather
			// than an empty success.
			return c.failJob(desc.Key, "stream ended without a terminal event")
		}
		if readErr != nil {
			return c.failJob(desc.Key, fmt.Sprintf("reading stream: %v", readErr))
		}
	}
}

// keepValid drops questions that fail schema validation, logging what was
// dropped. A malformed question should not poison its siblings.
func (c *Coordinator) keepValid(key string, questions []models.Question) []models.Question {
	kept := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if errs := validation.CheckQuestion(q); len(errs) > 0 {
			c.logger.Warn("dropping invalid question",
				"key", key,
				"questionID", q.ID,
				"problems", errs)
			continue
		}
		kept = append(kept, q)
	}
	return kept
}

// progressPercent maps a cumulative character count to a display percent.
// It saturates at 90 so only a complete event reaches 100.
func progressPercent(charCount int) int {
	percent := 15 + charCount/120
	if percent > 90 {
		percent = 90
	}
	return percent
}

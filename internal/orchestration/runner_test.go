package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/backend"
	"github.com/qforge/qforge/internal/models"
)

// stubEngine delegates Generate to a test-provided function.
type stubEngine struct {
	generate func(ctx context.Context, req *backend.GenerationRequest) (io.ReadCloser, error)
}

func (s *stubEngine) Initialize(context.Context) error { return nil }

func (s *stubEngine) Generate(ctx context.Context, req *backend.GenerationRequest) (io.ReadCloser, error) {
	return s.generate(ctx, req)
}

func (s *stubEngine) Shutdown(context.Context) error { return nil }

func frameStream(frames ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(frames, "")))
}

func successFrames(groupKey string, qt models.QuestionType, count int) []string {
	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, models.Question{
			ID:       fmt.Sprintf("%s-%s-%d", groupKey, qt, i+1),
			GroupKey: groupKey,
			Type:     qt,
			Prompt:   "prompt",
			Choices:  []string{"a", "b", "c", "d"},
			Answer:   0,
		})
	}
	return []string{
		backend.Frame(map[string]any{"type": "start"}),
		backend.Frame(map[string]any{"type": "progress", "charCount": 600}),
		backend.Frame(map[string]any{"type": "complete", "questions": questions, "usedPrompt": "used"}),
		backend.DoneFrame(),
	}
}

func vocabDescriptors(terms ...string) []JobDescriptor {
	descriptors := make([]JobDescriptor, 0, len(terms))
	for _, term := range terms {
		descriptors = append(descriptors, JobDescriptor{
			Key: ScriptKeyFor(term, models.TypeMeaning),
			Request: backend.GenerationRequest{
				GroupKey: term,
				Type:     models.TypeMeaning,
			},
		})
	}
	return descriptors
}

func TestRunAllResultsInDescriptorOrder(t *testing.T) {
	engine := backend.NewMockEngine("test-model")
	c := NewCoordinator(engine)

	descriptors := vocabDescriptors("alpha", "beta", "gamma", "delta")
	results := c.RunAll(context.Background(), descriptors)

	require.Len(t, results, len(descriptors))
	for i, result := range results {
		assert.Equal(t, descriptors[i].Key, result.Key)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Questions)
	}
}

func TestRunAllMixedOutcomes(t *testing.T) {
	engine := backend.NewMockEngine("test-model")

	// alpha succeeds with two questions, beta dies on transport, gamma
	// gets an in-stream error event.
	engine.SetScript(backend.ScriptKey("alpha", models.TypeMeaning), backend.Script{
		Stream: strings.Join(successFrames("alpha", models.TypeMeaning, 2), ""),
	})
	engine.SetScript(backend.ScriptKey("beta", models.TypeMeaning), backend.Script{
		TransportErr: errors.New("connection refused"),
	})
	engine.SetScript(backend.ScriptKey("gamma", models.TypeMeaning), backend.Script{
		Stream: backend.Frame(map[string]any{"type": "start"}) +
			backend.Frame(map[string]any{"type": "error", "message": "model overloaded"}) +
			backend.DoneFrame(),
	})

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha", "beta", "gamma"))

	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Len(t, results[0].Questions, 2)
	assert.Equal(t, "used", results[0].UsedPrompt)

	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].FailureReason, "connection refused")

	assert.False(t, results[2].Success)
	assert.Equal(t, "model overloaded", results[2].FailureReason)
}

func TestRunAllChunkBoundariesDoNotMatter(t *testing.T) {
	engine := backend.NewMockEngine("test-model")
	engine.SetScript(backend.ScriptKey("alpha", models.TypeMeaning), backend.Script{
		Stream:    strings.Join(successFrames("alpha", models.TypeMeaning, 3), ""),
		ChunkSize: 1,
	})

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Len(t, results[0].Questions, 3)
}

func TestRunAllSilentExhaustion(t *testing.T) {
	engine := backend.NewMockEngine("test-model")

	// Stream ends mid-generation: no complete, no error, no terminator.
	engine.SetScript(backend.ScriptKey("alpha", models.TypeMeaning), backend.Script{
		Stream: backend.Frame(map[string]any{"type": "start"}) +
			backend.Frame(map[string]any{"type": "progress", "charCount": 240}),
	})

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].FailureReason, "stream ended without a terminal event")
	assert.Empty(t, results[0].Questions)
}

func TestRunAllTerminatorWithoutCompleteFails(t *testing.T) {
	engine := backend.NewMockEngine("test-model")
	engine.SetScript(backend.ScriptKey("alpha", models.TypeMeaning), backend.Script{
		Stream: backend.Frame(map[string]any{"type": "start"}) + backend.DoneFrame(),
	})

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestRunAllUnboundedFanOut(t *testing.T) {
	const jobs = 8

	// Every Generate call blocks until all of them have arrived, which
	// only resolves if all jobs are in flight at once.
	var barrier sync.WaitGroup
	barrier.Add(jobs)

	engine := &stubEngine{
		generate: func(_ context.Context, req *backend.GenerationRequest) (io.ReadCloser, error) {
			barrier.Done()
			barrier.Wait()
			return frameStream(successFrames(req.GroupKey, req.Type, 1)...), nil
		},
	}

	terms := make([]string, jobs)
	for i := range terms {
		terms[i] = fmt.Sprintf("term%d", i)
	}

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors(terms...))

	require.Len(t, results, jobs)
	for _, result := range results {
		assert.True(t, result.Success)
	}
}

func TestRunAllMaxInFlight(t *testing.T) {
	var inFlight, highWater atomic.Int64

	engine := &stubEngine{
		generate: func(_ context.Context, req *backend.GenerationRequest) (io.ReadCloser, error) {
			current := inFlight.Add(1)
			for {
				prev := highWater.Load()
				if current <= prev || highWater.CompareAndSwap(prev, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return frameStream(successFrames(req.GroupKey, req.Type, 1)...), nil
		},
	}

	terms := make([]string, 12)
	for i := range terms {
		terms[i] = fmt.Sprintf("term%d", i)
	}

	c := NewCoordinator(engine, WithMaxInFlight(3))
	results := c.RunAll(context.Background(), vocabDescriptors(terms...))

	require.Len(t, results, 12)
	for _, result := range results {
		assert.True(t, result.Success)
	}
	assert.LessOrEqual(t, highWater.Load(), int64(3))
}

func TestRunAllJobTimeout(t *testing.T) {
	engine := &stubEngine{
		generate: func(ctx context.Context, _ *backend.GenerationRequest) (io.ReadCloser, error) {
			// Simulate a stalled backend: block until the job context
			// gives up.
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	c := NewCoordinator(engine, WithJobTimeout(20*time.Millisecond))
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].FailureReason, "context deadline exceeded")
}

func TestRunAllNoDefaultTimeout(t *testing.T) {
	// Without WithJobTimeout a slow stream just takes its time.
	engine := &stubEngine{
		generate: func(_ context.Context, req *backend.GenerationRequest) (io.ReadCloser, error) {
			time.Sleep(30 * time.Millisecond)
			return frameStream(successFrames(req.GroupKey, req.Type, 1)...), nil
		},
	}

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestRunAllDropsInvalidQuestions(t *testing.T) {
	valid := models.Question{
		ID: "ok", GroupKey: "alpha", Type: models.TypeMeaning,
		Prompt: "p", Choices: []string{"a", "b"}, Answer: 1,
	}
	badAnswer := models.Question{
		ID: "bad", GroupKey: "alpha", Type: models.TypeMeaning,
		Prompt: "p", Choices: []string{"a", "b"}, Answer: 7,
	}
	noPrompt := models.Question{
		ID: "empty", GroupKey: "alpha", Type: models.TypeMeaning,
		Choices: []string{"a", "b"}, Answer: 0,
	}

	engine := backend.NewMockEngine("test-model")
	engine.SetScript(backend.ScriptKey("alpha", models.TypeMeaning), backend.Script{
		Stream: backend.Frame(map[string]any{"type": "start"}) +
			backend.Frame(map[string]any{
				"type":      "complete",
				"questions": []models.Question{valid, badAnswer, noPrompt},
			}) +
			backend.DoneFrame(),
	})

	c := NewCoordinator(engine)
	results := c.RunAll(context.Background(), vocabDescriptors("alpha"))

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	require.Len(t, results[0].Questions, 1)
	assert.Equal(t, "ok", results[0].Questions[0].ID)
}

func TestRunAllProgressLifecycle(t *testing.T) {
	engine := backend.NewMockEngine("test-model")
	engine.SetScript(backend.ScriptKey("beta", models.TypeMeaning), backend.Script{
		TransportErr: errors.New("boom"),
	})

	c := NewCoordinator(engine)
	c.RunAll(context.Background(), vocabDescriptors("alpha", "beta"))

	good, ok := c.Tracker().Get(ScriptKeyFor("alpha", models.TypeMeaning))
	require.True(t, ok)
	assert.Equal(t, 100, good.Percent)
	assert.Contains(t, good.Status, "done")

	// Failure resets percent to zero rather than freezing mid-bar.
	bad, ok := c.Tracker().Get(ScriptKeyFor("beta", models.TypeMeaning))
	require.True(t, ok)
	assert.Equal(t, 0, bad.Percent)
	assert.Contains(t, bad.Status, "failed")
}

func TestRunAllListenerEvents(t *testing.T) {
	engine := backend.NewMockEngine("test-model")
	c := NewCoordinator(engine)

	var mu sync.Mutex
	var events []ProgressEvent
	c.OnProgress(func(event ProgressEvent) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})

	c.RunAll(context.Background(), vocabDescriptors("alpha", "beta"))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, EventBatchStart, events[0].EventType)
	assert.Equal(t, EventBatchComplete, events[len(events)-1].EventType)

	completes := 0
	for _, event := range events {
		if event.EventType == EventJobComplete {
			completes++
			assert.True(t, event.Success)
		}
	}
	assert.Equal(t, 2, completes)
}

func TestProgressPercentMapping(t *testing.T) {
	tests := []struct {
		charCount int
		expected  int
	}{
		{0, 15},
		{120, 16},
		{1200, 25},
		{9000, 90},
		{100000, 90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, progressPercent(tt.charCount), "charCount=%d", tt.charCount)
	}
}

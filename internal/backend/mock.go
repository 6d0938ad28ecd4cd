package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/qforge/qforge/internal/models"
)

// ScriptKey is how scripted responses are looked up: one script per job.
func ScriptKey(groupKey string, qt models.QuestionType) string {
	return groupKey + "_" + string(qt)
}

// Script describes what the mock backend does for one job.
type Script struct {
	// TransportErr, when set, fails the request before any stream exists.
	TransportErr error

	// Stream is the raw response body. Ignored when TransportErr is set.
	Stream string

	// ChunkSize caps how many bytes each Read returns, so tests can force
	// frames to split across chunk boundaries. Zero means reader-sized.
	ChunkSize int
}

// MockEngine is a scripted stand-in for the generation endpoint, used by
// tests and by `executor: mock` specs. Jobs without a script succeed with
// canned questions.
type MockEngine struct {
	modelID string
	scripts map[string]Script
}

// NewMockEngine creates a mock engine for the given model ID.
func NewMockEngine(modelID string) *MockEngine {
	return &MockEngine{
		modelID: modelID,
		scripts: map[string]Script{},
	}
}

// SetScript registers the response for one job key (see ScriptKey).
func (m *MockEngine) SetScript(key string, script Script) {
	m.scripts[key] = script
}

func (m *MockEngine) Initialize(_ context.Context) error {
	return nil
}

func (m *MockEngine) Generate(_ context.Context, req *GenerationRequest) (io.ReadCloser, error) {
	script, ok := m.scripts[ScriptKey(req.GroupKey, req.Type)]
	if !ok {
		script = Script{Stream: cannedStream(req)}
	}

	if script.TransportErr != nil {
		return nil, script.TransportErr
	}

	return &chunkedReader{data: script.Stream, chunkSize: script.ChunkSize}, nil
}

func (m *MockEngine) Shutdown(_ context.Context) error {
	return nil
}

// Frame encodes one event payload as a framed line, newline included.
func Frame(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		panic("encoding mock frame: " + err.Error())
	}
	return "data: " + string(data) + "\n"
}

// DoneFrame is the stream terminator line.
func DoneFrame() string {
	return "data: [DONE]\n"
}

// cannedStream synthesizes a plausible successful stream for a job.
func cannedStream(req *GenerationRequest) string {
	count := req.Count
	if count < 1 {
		count = 1
	}

	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, models.Question{
			ID:       fmt.Sprintf("mock-%s-%s-%d", req.GroupKey, req.Type, i+1),
			GroupKey: req.GroupKey,
			Type:     req.Type,
			Prompt:   fmt.Sprintf("Mock %s question %d for %q", req.Type, i+1, req.GroupKey),
			Choices:  []string{"choice a", "choice b", "choice c", "choice d"},
			Answer:   i % 4,
		})
	}

	var b strings.Builder
	b.WriteString(Frame(map[string]any{"type": "start"}))
	b.WriteString(Frame(map[string]any{"type": "progress", "charCount": 120}))
	b.WriteString(Frame(map[string]any{
		"type":       "complete",
		"questions":  questions,
		"usedPrompt": fmt.Sprintf("mock prompt for %s/%s", req.GroupKey, req.Type),
	}))
	b.WriteString(DoneFrame())
	return b.String()
}

// chunkedReader serves a string in fixed-size chunks.
type chunkedReader struct {
	data      string
	pos       int
	chunkSize int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	limit := len(p)
	if r.chunkSize > 0 && r.chunkSize < limit {
		limit = r.chunkSize
	}

	n := copy(p[:limit], r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *chunkedReader) Close() error {
	return nil
}

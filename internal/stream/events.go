// Package stream decodes the backend's line-framed generation event
// protocol. Each frame is one line: a fixed "data: " marker followed by a
// JSON payload, with a bare "[DONE]" payload terminating the stream.
package stream

import (
	"github.com/qforge/qforge/internal/models"
)

// EventKind discriminates decoded events.
type EventKind string

const (
	// KindStart signals the backend accepted the job and began generating.
	KindStart EventKind = "start"

	// KindProgress carries the cumulative character count generated so far.
	KindProgress EventKind = "progress"

	// KindComplete carries the finished questions and, optionally, the
	// fully-resolved prompt the backend used.
	KindComplete EventKind = "complete"

	// KindError carries a backend-reported failure message.
	KindError EventKind = "error"
)

// Event is one decoded frame. Exactly the fields for its Kind are set.
type Event struct {
	Kind EventKind

	// CharCount is the cumulative generated character count (KindProgress).
	CharCount int

	// Questions and UsedPrompt are populated for KindComplete.
	Questions  []models.Question
	UsedPrompt string

	// Message is populated for KindError.
	Message string
}

// wireEvent is the JSON payload shape of a single frame.
type wireEvent struct {
	Type       string            `json:"type"`
	CharCount  int               `json:"charCount,omitempty"`
	Questions  []models.Question `json:"questions,omitempty"`
	UsedPrompt string            `json:"usedPrompt,omitempty"`
	Message    string            `json:"message,omitempty"`
}

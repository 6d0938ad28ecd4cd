// Package backend talks to the remote text-generation endpoint. One
// Generate call maps to one job: a POST whose response body is the
// line-framed event stream decoded by the stream package.
package backend

import (
	"context"
	"io"

	"github.com/qforge/qforge/internal/models"
)

// Engine is the seam between orchestration and the generation backend.
type Engine interface {
	// Initialize sets up the engine.
	Initialize(ctx context.Context) error

	// Generate issues one generation request and returns the streaming
	// response body. A non-nil error means the request never yielded a
	// readable stream (send failure or non-success status); callers must
	// not attempt a read in that case.
	Generate(ctx context.Context, req *GenerationRequest) (io.ReadCloser, error)

	// Shutdown cleans up resources.
	Shutdown(ctx context.Context) error
}

// GenerationRequest is the JSON body of one job.
type GenerationRequest struct {
	SetName string               `json:"setName"`
	Context models.SharedContext `json:"context"`
	ModelID string               `json:"model"`

	// GroupKey is the domain dimension this job generates for: a
	// vocabulary term, a paragraph number, or a question-type set.
	GroupKey string              `json:"groupKey"`
	Type     models.QuestionType `json:"questionType"`
	Count    int                 `json:"count,omitempty"`
	Options  models.TypeOptions  `json:"options,omitempty"`

	// Parent is set only for stage-2 supplementary jobs and carries the
	// basic question the new questions must build on.
	Parent *models.Question `json:"parent,omitempty"`
}

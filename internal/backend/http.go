package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxErrorBody bounds how much of a failed response we read for diagnostics.
const maxErrorBody = 4 * 1024

// HTTPEngine sends generation requests to a remote endpoint and hands the
// streamed response body back unread.
type HTTPEngine struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*HTTPEngine)

// WithHTTPClient sets a custom HTTP client. The default client carries no
// timeout: generation streams are long-lived and the orchestrator owns
// per-job deadlines via context.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEngine) {
		e.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(e *HTTPEngine) {
		e.logger = logger
	}
}

// NewHTTPEngine creates an engine targeting the given endpoint URL.
func NewHTTPEngine(endpoint string, opts ...HTTPOption) *HTTPEngine {
	e := &HTTPEngine{
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPEngine) Initialize(_ context.Context) error {
	if e.endpoint == "" {
		return fmt.Errorf("generation endpoint is required")
	}
	return nil
}

// Generate POSTs the request and returns the response body for streaming.
// On a non-success status the body is drained for the error message and
// closed; the caller never sees a stream.
func (e *HTTPEngine) Generate(ctx context.Context, req *GenerationRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &FatalError{err: fmt.Errorf("encoding request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &FatalError{err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	e.logger.Debug("sending generation request",
		"groupKey", req.GroupKey,
		"type", req.Type,
		"model", req.ModelID)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &TransientError{err: fmt.Errorf("sending request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close() //nolint:errcheck
		return nil, classifyStatus(resp.StatusCode, errBody)
	}

	return resp.Body, nil
}

func (e *HTTPEngine) Shutdown(_ context.Context) error {
	e.client.CloseIdleConnections()
	return nil
}

package backend

import (
	"errors"
	"fmt"
)

// TransientError wraps a failure that a later identical request might not
// hit (network errors, 429, 5xx). The orchestrator does not retry on its
// own; the classification is kept in failure reasons for diagnostics.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// FatalError wraps a failure that retrying cannot fix (auth, bad request).
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// IsTransient reports whether err is classified transient.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// classifyStatus wraps a non-success HTTP status as transient or fatal.
func classifyStatus(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("generation endpoint error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == 429 || statusCode >= 500:
		return &TransientError{err: err}
	default:
		return &FatalError{err: err}
	}
}

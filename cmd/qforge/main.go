package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // All jobs succeeded
	ExitJobFailed = 1 // One or more generation jobs failed
	ExitError     = 2 // Configuration or runtime error
)

// BatchFailureError indicates that the batch ran to completion,
// but one or more generation jobs failed.
type BatchFailureError struct {
	Message string
}

func (e *BatchFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var batchErr *BatchFailureError
		if errors.As(err, &batchErr) {
			os.Exit(ExitJobFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}

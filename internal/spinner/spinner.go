package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is an animated terminal spinner whose message can be updated
// while it runs, so batch progress can be shown in place.
type Spinner struct {
	w       io.Writer
	done    chan struct{}
	cleared chan struct{}

	mu       sync.Mutex
	message  string
	stopOnce sync.Once
}

// Start displays an animated spinner with the given message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
		message: message,
	}
	go s.loop()
	return s
}

// SetMessage replaces the spinner's message on the next frame.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}

func (s *Spinner) loop() {
	i := 0
	maxLen := 0
	for {
		select {
		case <-s.done:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", maxLen+2)) //nolint:errcheck
			close(s.cleared)
			return
		case <-time.After(80 * time.Millisecond):
			s.mu.Lock()
			message := s.message
			s.mu.Unlock()

			// Pad over any longer message drawn on a previous frame.
			if len(message) > maxLen {
				maxLen = len(message)
			}
			pad := strings.Repeat(" ", maxLen-len(message))
			fmt.Fprintf(s.w, "\r%s %s%s", frames[i%len(frames)], message, pad) //nolint:errcheck
			i++
		}
	}
}

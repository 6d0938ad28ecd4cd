package stream

import (
	"encoding/json"
	"strings"
)

const (
	framePrefix = "data: "
	terminator  = "[DONE]"
)

// Decoder turns transport chunks into decoded events. Frame boundaries are
// not guaranteed to align with chunk boundaries, so the decoder holds the
// last segment of every chunk back until a newline proves it complete.
// A Decoder is owned by exactly one job and is not safe for concurrent use.
type Decoder struct {
	buf    string
	closed bool
}

// NewDecoder returns a decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends one chunk and returns every event completed by it.
// After the terminator frame has been seen, further input is discarded.
func (d *Decoder) Feed(chunk string) []Event {
	if d.closed {
		return nil
	}

	d.buf += chunk
	segments := strings.Split(d.buf, "\n")

	// The final segment may still be completed by a later chunk.
	d.buf = segments[len(segments)-1]

	var events []Event
	for _, seg := range segments[:len(segments)-1] {
		ev, ok := d.decodeFrame(seg)
		if d.closed {
			break
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

// Closed reports whether the terminator frame has been decoded.
func (d *Decoder) Closed() bool {
	return d.closed
}

// decodeFrame parses one complete line. Lines without the frame marker and
// frames that fail to parse are noise (keep-alives) and are skipped.
func (d *Decoder) decodeFrame(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, framePrefix) {
		return Event{}, false
	}

	payload := strings.TrimPrefix(line, framePrefix)
	if strings.TrimSpace(payload) == terminator {
		d.closed = true
		return Event{}, false
	}

	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return Event{}, false
	}

	switch wire.Type {
	case "start":
		return Event{Kind: KindStart}, true
	case "progress":
		return Event{Kind: KindProgress, CharCount: wire.CharCount}, true
	case "complete":
		return Event{Kind: KindComplete, Questions: wire.Questions, UsedPrompt: wire.UsedPrompt}, true
	case "error":
		return Event{Kind: KindError, Message: wire.Message}, true
	default:
		return Event{}, false
	}
}

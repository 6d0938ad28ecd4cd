package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"milliseconds", 250 * time.Millisecond, "250ms"},
		{"zero", 0, "0ms"},
		{"just under a second", 999 * time.Millisecond, "999ms"},
		{"seconds", 2500 * time.Millisecond, "2.5s"},
		{"rounded", 1234 * time.Millisecond, "1.2s"},
		{"minutes", 90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"shorter than max", "meaning", 24, "meaning"},
		{"exactly max", "abcd", 4, "abcd"},
		{"truncated", "abcdef", 4, "abc…"},
		{"multibyte runes kept whole", "日本語のテスト", 5, "日本語の…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateName(tt.in, tt.maxLen))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "abc   ", padRight("abc", 6))
	assert.Equal(t, "abcdef", padRight("abcdef", 3), "wider than target is left alone")
	// Double-width characters count as two columns.
	assert.Equal(t, "日本  ", padRight("日本", 6))
}

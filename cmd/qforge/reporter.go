package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/qforge/qforge/internal/aggregate"
	"github.com/qforge/qforge/internal/models"
	"github.com/qforge/qforge/internal/orchestration"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

func verboseProgressListener(event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventBatchStart:
		fmt.Printf("Starting batch with %d job(s)...\n\n", event.TotalJobs)
	case orchestration.EventJobStart:
		fmt.Printf("[%d/%d] Job started: %s\n", event.JobNum, event.TotalJobs, event.Key)
	case orchestration.EventJobProgress:
		fmt.Printf("  %s: %d%% %s\n", event.Key, event.Percent, event.Status)
	case orchestration.EventJobComplete:
		icon := "✓"
		if !event.Success {
			icon = "✗"
		}
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("%s [%d/%d] %s: %d question(s) (%s)\n\n",
			icon, event.JobNum, event.TotalJobs, event.Key, event.Questions, formatDuration(duration))
	case orchestration.EventBatchComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("Batch completed in %s\n\n", formatDuration(duration))
	}
}

func printSummary(spec *models.SetSpec, batch *aggregate.Batch, durationMs int64) {
	total := batch.SuccessCount + batch.FailureCount

	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" GENERATION RESULTS")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()
	fmt.Printf("Set:       %s (%s)\n", spec.Name, spec.Kind)
	fmt.Printf("Jobs:      %d total, %d succeeded, %d failed\n", total, batch.SuccessCount, batch.FailureCount)
	fmt.Printf("Questions: %d\n", len(batch.Items))
	fmt.Printf("Duration:  %s\n", formatDuration(time.Duration(durationMs)*time.Millisecond))

	if len(batch.TypeCounts) > 0 {
		fmt.Println()
		fmt.Println("By type:")
		types := make([]string, 0, len(batch.TypeCounts))
		for t := range batch.TypeCounts {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %s %d\n", padRight(t, 16), batch.TypeCounts[models.QuestionType(t)])
		}
	}

	if len(batch.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failed jobs:")
		keys := make([]string, 0, len(batch.Failures))
		for k := range batch.Failures {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  ✗ %s: %s\n", padRight(truncateName(k, 24), 24), batch.Failures[k])
		}
	}
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

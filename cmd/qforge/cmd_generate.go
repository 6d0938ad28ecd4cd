package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/aggregate"
	"github.com/qforge/qforge/internal/backend"
	"github.com/qforge/qforge/internal/models"
	"github.com/qforge/qforge/internal/orchestration"
	"github.com/qforge/qforge/internal/spinner"
)

var (
	outputPath    string
	verbose       bool
	maxInFlight   int
	timeoutSec    int
	modelOverride string
	endpointFlag  string
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <set.yaml>",
		Short: "Generate a question set",
		Long: `Generate a question set from a spec file.

The spec file names the set kind (vocabulary, paragraph, comprehensive),
the shared context, and the question types to generate. One generation
job is dispatched per unit of work; jobs stream their progress and all
of them run to completion even when some fail.`,
		Args: cobra.ExactArgs(1),
		RunE: generateCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for the generated set")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-job progress")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 0, "Cap concurrent jobs (0 = unbounded, overrides spec)")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-job timeout in seconds (0 = none, overrides spec)")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Model to use (overrides spec config)")
	cmd.Flags().StringVar(&endpointFlag, "endpoint", "", "Backend endpoint URL (overrides spec config)")

	return cmd
}

func generateCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	spec, err := models.LoadSetSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	// CLI flags override spec config
	if modelOverride != "" {
		spec.Config.ModelID = modelOverride
	}
	if endpointFlag != "" {
		spec.Config.Endpoint = endpointFlag
	}
	if maxInFlight > 0 {
		spec.Config.MaxInFlight = maxInFlight
	}
	if timeoutSec > 0 {
		spec.Config.TimeoutSec = timeoutSec
	}

	engine, err := buildEngine(spec)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := engine.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer engine.Shutdown(context.Background()) //nolint:errcheck

	var opts []orchestration.CoordinatorOption
	if spec.Config.MaxInFlight > 0 {
		opts = append(opts, orchestration.WithMaxInFlight(spec.Config.MaxInFlight))
	}
	if spec.Config.TimeoutSec > 0 {
		opts = append(opts, orchestration.WithJobTimeout(time.Duration(spec.Config.TimeoutSec)*time.Second))
	}
	coordinator := orchestration.NewCoordinator(engine, opts...)

	fmt.Printf("Generating set: %s\n", spec.Name)
	fmt.Printf("Kind: %s\n", spec.Kind)
	fmt.Printf("Engine: %s\n", engineType(spec))
	fmt.Printf("Model: %s\n", spec.Config.ModelID)
	if spec.Config.MaxInFlight > 0 {
		fmt.Printf("Max in flight: %d\n", spec.Config.MaxInFlight)
	}
	fmt.Println()

	var spin *spinner.Spinner
	if verbose {
		coordinator.OnProgress(verboseProgressListener)
	} else {
		spin = spinner.Start(os.Stdout, "generating...")
		tracker := coordinator.Tracker()
		coordinator.OnProgress(func(event orchestration.ProgressEvent) {
			if event.EventType != orchestration.EventJobProgress {
				return
			}
			summary := tracker.Summary()
			spin.SetMessage(fmt.Sprintf("generating... %.0f%% (%d/%d jobs done)",
				summary.AveragePercent, summary.DoneCount, summary.Jobs))
		})
	}

	startTime := time.Now()
	batch, runErr := orchestration.RunSet(ctx, coordinator, spec, nil)
	durationMs := time.Since(startTime).Milliseconds()

	if spin != nil {
		spin.Stop()
	}

	if runErr != nil && batch == nil {
		// Descriptor construction failed before any job ran.
		return runErr
	}

	printSummary(spec, batch, durationMs)

	if outputPath != "" {
		outcome := buildOutcome(spec, batch, durationMs)
		if _, statErr := os.Stat(outputPath); statErr == nil {
			prev, loadErr := loadOutcome(outputPath)
			if loadErr != nil {
				return fmt.Errorf("existing output %s is not an outcome file: %w", outputPath, loadErr)
			}
			outcome = mergeOutcomes(prev, outcome)
			fmt.Printf("\nExtending %d existing question(s) in %s\n", len(prev.Questions), outputPath)
		}
		if err := saveOutcome(outcome, outputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Printf("\nResults saved to: %s\n", outputPath)
	}

	if runErr != nil {
		return &BatchFailureError{Message: runErr.Error()}
	}
	if batch.FailureCount > 0 {
		return &BatchFailureError{
			Message: fmt.Sprintf("generation completed with %d failed job(s)", batch.FailureCount),
		}
	}
	return nil
}

func engineType(spec *models.SetSpec) string {
	if spec.Config.EngineType == "" {
		return "http"
	}
	return spec.Config.EngineType
}

func buildEngine(spec *models.SetSpec) (backend.Engine, error) {
	switch engineType(spec) {
	case "mock":
		return backend.NewMockEngine(spec.Config.ModelID), nil
	case "http":
		if spec.Config.Endpoint == "" {
			return nil, fmt.Errorf("config.endpoint is required for the http engine")
		}
		return backend.NewHTTPEngine(spec.Config.Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown engine type: %s", spec.Config.EngineType)
	}
}

func buildOutcome(spec *models.SetSpec, batch *aggregate.Batch, durationMs int64) *models.GenerationOutcome {
	total := batch.SuccessCount + batch.FailureCount
	successRate := 0.0
	if total > 0 {
		successRate = float64(batch.SuccessCount) / float64(total)
	}

	return &models.GenerationOutcome{
		RunID:     fmt.Sprintf("run_%s", time.Now().Format("20060102-150405")),
		SetName:   spec.Name,
		Kind:      spec.Kind,
		ModelID:   spec.Config.ModelID,
		Timestamp: time.Now(),
		Digest: models.OutcomeDigest{
			TotalJobs:   total,
			Succeeded:   batch.SuccessCount,
			Failed:      batch.FailureCount,
			SuccessRate: successRate,
			Questions:   len(batch.Items),
			TypeCounts:  batch.TypeCounts,
			DurationMs:  durationMs,
		},
		Questions:   batch.Items,
		UsedPrompt:  batch.FirstPrompt,
		JobFailures: batch.Failures,
	}
}

func loadOutcome(path string) (*models.GenerationOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var outcome models.GenerationOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// mergeOutcomes folds a new run into an outcome that already holds accepted
// questions. Existing questions survive untouched and keep their position;
// the digest accumulates across runs.
func mergeOutcomes(prev, next *models.GenerationOutcome) *models.GenerationOutcome {
	merged := aggregate.Merge(prev.Questions, next.Questions)

	next.Questions = merged
	next.Digest.TotalJobs += prev.Digest.TotalJobs
	next.Digest.Succeeded += prev.Digest.Succeeded
	next.Digest.Failed += prev.Digest.Failed
	next.Digest.DurationMs += prev.Digest.DurationMs
	next.Digest.Questions = len(merged)
	next.Digest.TypeCounts = models.CountByType(merged)
	if next.Digest.TotalJobs > 0 {
		next.Digest.SuccessRate = float64(next.Digest.Succeeded) / float64(next.Digest.TotalJobs)
	}

	if next.UsedPrompt == "" {
		next.UsedPrompt = prev.UsedPrompt
	}
	for key, reason := range prev.JobFailures {
		if next.JobFailures == nil {
			next.JobFailures = make(map[string]string)
		}
		if _, ok := next.JobFailures[key]; !ok {
			next.JobFailures[key] = reason
		}
	}
	return next
}

func saveOutcome(outcome *models.GenerationOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

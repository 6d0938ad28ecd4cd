package orchestration

import (
	"context"
	"fmt"

	"github.com/qforge/qforge/internal/aggregate"
	"github.com/qforge/qforge/internal/models"
)

// UpdateFunc notifies the caller of accepted questions. An intermediate
// update reflects partially-complete work (stage 1 of 2) and must not be
// treated as final. Callers merge updates into their own collection; they
// never discard previously-accepted questions on an update.
type UpdateFunc func(questions []models.Question, usedPrompt string, intermediate bool)

// RunSet runs the workflow for a spec's kind and returns the final batch.
// The returned error is batch-level only: descriptor construction failed,
// or the batch produced zero successes. Per-job failures live in the
// batch's failure count and reasons.
func RunSet(ctx context.Context, c *Coordinator, spec *models.SetSpec, onUpdate UpdateFunc) (*aggregate.Batch, error) {
	switch spec.Kind {
	case models.KindVocabulary:
		descriptors, err := BuildVocabularyJobs(spec)
		if err != nil {
			return nil, err
		}
		return runSingleStage(ctx, c, descriptors, onUpdate)

	case models.KindParagraph:
		descriptors, err := BuildParagraphJobs(spec)
		if err != nil {
			return nil, err
		}
		return runSingleStage(ctx, c, descriptors, onUpdate)

	case models.KindComprehensive:
		return RunComprehensive(ctx, c, spec, onUpdate)

	default:
		return nil, fmt.Errorf("unknown set kind: %q", spec.Kind)
	}
}

func runSingleStage(ctx context.Context, c *Coordinator, descriptors []JobDescriptor, onUpdate UpdateFunc) (*aggregate.Batch, error) {
	results := c.RunAll(ctx, descriptors)
	batch := aggregate.Collect(results)
	batch.Items = aggregate.RepairIDs(batch.Items)

	if batch.SuccessCount == 0 {
		return batch, fmt.Errorf("all %d generation jobs failed", batch.FailureCount)
	}

	if onUpdate != nil {
		onUpdate(batch.Items, batch.FirstPrompt, false)
	}
	return batch, nil
}

// RunComprehensive runs the two-stage comprehensive workflow:
// Idle → Stage1Running → Stage2Running → Done, with an Error exit only
// when stage 1 yields zero successful questions.
func RunComprehensive(ctx context.Context, c *Coordinator, spec *models.SetSpec, onUpdate UpdateFunc) (*aggregate.Batch, error) {
	stage1, err := BuildComprehensiveStage1(spec)
	if err != nil {
		return nil, err
	}

	basicResults := c.RunAll(ctx, stage1)
	basicBatch := aggregate.Collect(basicResults)
	basicBatch.Items = aggregate.RepairIDs(basicBatch.Items)

	// Zero basic questions means stage 2 has nothing to build on: the
	// whole batch fails. Partial stage-1 success is not fatal.
	if len(basicBatch.Items) == 0 {
		return basicBatch, fmt.Errorf("no basic questions were generated (%d jobs failed)", basicBatch.FailureCount)
	}

	supplementary := spec.Comp != nil && spec.Comp.Supplementary
	if onUpdate != nil {
		// Intermediate when stage 2 follows, final otherwise.
		onUpdate(basicBatch.Items, basicBatch.FirstPrompt, supplementary)
	}

	if !supplementary {
		return basicBatch, nil
	}

	stage2 := BuildSupplementaryJobs(spec, basicBatch.Items, spec.Comp.PerParent)
	suppResults := c.RunAll(ctx, stage2)

	// Stamp lineage: every supplementary question points at its stage-1
	// parent's ID. Results arrive in descriptor order, so descriptor and
	// result at the same index describe the same job.
	combined := basicBatch.Items
	for i, result := range suppResults {
		if !result.Success {
			// This parent simply has no supplementary questions.
			continue
		}
		parentID := stage2[i].Request.Parent.ID
		for _, q := range result.Questions {
			q.Supplementary = true
			q.ParentID = parentID
			combined = append(combined, q)
		}
	}
	combined = aggregate.RepairIDs(combined)

	suppBatch := aggregate.Collect(suppResults)
	final := &aggregate.Batch{
		Items:        combined,
		SuccessCount: basicBatch.SuccessCount + suppBatch.SuccessCount,
		FailureCount: basicBatch.FailureCount + suppBatch.FailureCount,
		FirstPrompt:  basicBatch.FirstPrompt,
		TypeCounts:   models.CountByType(combined),
		Failures:     mergeFailures(basicBatch.Failures, suppBatch.Failures),
	}

	if onUpdate != nil {
		onUpdate(final.Items, final.FirstPrompt, false)
	}
	return final, nil
}

func mergeFailures(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

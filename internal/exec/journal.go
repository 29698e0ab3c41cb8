package exec

import "context"

// Journal persists per-step execution state so a partially-completed
// plan is visible after the fact. RecordPlan seeds every step as
// pending before the first submission; RecordStep is then called again
// for a step each time its status advances, and implementations must
// tolerate the repeats.
type Journal interface {
	RecordPlan(ctx context.Context, planID string, methods []string) error
	RecordStep(ctx context.Context, planID string, step StepResult) error
}

// NopJournal discards everything. Used when no store is configured.
type NopJournal struct{}

func (NopJournal) RecordPlan(context.Context, string, []string) error   { return nil }
func (NopJournal) RecordStep(context.Context, string, StepResult) error { return nil }

// Package exec submits a built plan's calls to the chain, strictly in
// order, and surfaces partial completion: a failed call aborts the
// remainder of the plan, but already-mined calls stay mined. There is
// no rollback.
package exec

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapscope/internal/plan"
)

// WaitMode selects how the executor bridges an approval and the call
// that depends on it.
type WaitMode string

const (
	// WaitReceipt waits for each call's receipt before submitting the
	// next one.
	WaitReceipt WaitMode = "receipt"
	// WaitDelay sleeps a fixed interval between calls instead of
	// observing confirmation. Kept for compatibility; under congestion
	// the dependent call can land before its approval is mined.
	WaitDelay WaitMode = "delay"
)

// DefaultApprovalDelay is the fixed sleep used by WaitDelay.
const DefaultApprovalDelay = 5 * time.Second

// StepStatus is the terminal state of one plan step.
type StepStatus string

const (
	StepConfirmed StepStatus = "confirmed"
	StepSubmitted StepStatus = "submitted"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult records what happened to one call.
type StepResult struct {
	Index  int
	Method string
	TxHash common.Hash
	Status StepStatus
	Err    error
}

// Result is the outcome of a whole plan. Completed is false whenever
// any step failed or was skipped; the per-step results expose exactly
// how far the plan got.
type Result struct {
	PlanID    string
	Steps     []StepResult
	Completed bool
}

// Sender submits signed calls. chain.Sender satisfies it.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Executor walks a plan step by step.
type Executor struct {
	sender  Sender
	journal Journal
	mode    WaitMode
	delay   time.Duration
	logger  *zap.Logger
}

// ExecutorConfig wires an Executor. Mode defaults to WaitReceipt,
// Delay to DefaultApprovalDelay, Journal to the no-op journal.
type ExecutorConfig struct {
	Sender  Sender
	Journal Journal
	Mode    WaitMode
	Delay   time.Duration
	Logger  *zap.Logger
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		sender:  cfg.Sender,
		journal: cfg.Journal,
		mode:    cfg.Mode,
		delay:   cfg.Delay,
		logger:  cfg.Logger,
	}
	if e.journal == nil {
		e.journal = NopJournal{}
	}
	if e.mode == "" {
		e.mode = WaitReceipt
	}
	if e.delay <= 0 {
		e.delay = DefaultApprovalDelay
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Execute submits the plan's calls in order. The first failure aborts
// the rest; remaining calls are recorded as skipped. Every state change
// is journaled before the next step runs, so a crash mid-plan still
// leaves the partial-completion trail visible.
func (e *Executor) Execute(ctx context.Context, planID string, p plan.Plan) Result {
	result := Result{PlanID: planID, Steps: make([]StepResult, 0, len(p.Calls))}

	methods := make([]string, 0, len(p.Calls))
	for _, call := range p.Calls {
		methods = append(methods, call.Method)
	}
	if err := e.journal.RecordPlan(ctx, planID, methods); err != nil {
		e.logger.Warn("journal seed failed",
			zap.String("plan", planID),
			zap.Error(err))
	}

	failedAt := -1
	for i, call := range p.Calls {
		if failedAt >= 0 {
			step := StepResult{Index: i, Method: call.Method, Status: StepSkipped}
			e.record(ctx, planID, step)
			result.Steps = append(result.Steps, step)
			continue
		}

		step := e.runStep(ctx, planID, i, call, i < len(p.Calls)-1)
		result.Steps = append(result.Steps, step)
		if step.Status == StepFailed {
			failedAt = i
			e.logger.Warn("plan aborted",
				zap.String("plan", planID),
				zap.Int("step", i),
				zap.String("method", call.Method),
				zap.Error(step.Err))
		}
	}

	result.Completed = failedAt < 0 && len(p.Calls) > 0
	return result
}

func (e *Executor) runStep(ctx context.Context, planID string, index int, call plan.Call, hasNext bool) StepResult {
	step := StepResult{Index: index, Method: call.Method}

	txHash, err := e.sender.Send(ctx, call.Target, call.Data, call.Value)
	if err != nil {
		step.Status = StepFailed
		step.Err = err
		e.record(ctx, planID, step)
		return step
	}
	step.TxHash = txHash
	step.Status = StepSubmitted
	e.record(ctx, planID, step)

	e.logger.Info("call submitted",
		zap.String("plan", planID),
		zap.Int("step", index),
		zap.String("method", call.Method),
		zap.String("tx", txHash.Hex()))

	switch e.mode {
	case WaitDelay:
		// Do not block the last step on the compatibility sleep.
		if hasNext {
			select {
			case <-ctx.Done():
				step.Status = StepFailed
				step.Err = ctx.Err()
			case <-time.After(e.delay):
				step.Status = StepConfirmed
			}
		} else {
			step.Status = StepConfirmed
		}
	default:
		if _, err := e.sender.WaitReceipt(ctx, txHash); err != nil {
			step.Status = StepFailed
			step.Err = err
		} else {
			step.Status = StepConfirmed
		}
	}

	e.record(ctx, planID, step)
	return step
}

func (e *Executor) record(ctx context.Context, planID string, step StepResult) {
	if err := e.journal.RecordStep(ctx, planID, step); err != nil {
		// Journaling is observability, not control flow.
		e.logger.Warn("journal write failed",
			zap.String("plan", planID),
			zap.Int("step", step.Index),
			zap.Error(err))
	}
}

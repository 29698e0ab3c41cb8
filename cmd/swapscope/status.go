package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"swapscope/internal/exec"
	"swapscope/internal/storage/postgres"
)

func newPlanStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan-status <plan-id>",
		Short: "Show the journaled state of a past plan, step by step",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlanStatus,
	}

	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the execution journal")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// runPlanStatus reads the execution journal back. A plan that failed
// partway leaves its confirmed, failed, and skipped steps here; nothing
// is rolled back, so this is the record of what actually hit the chain.
func runPlanStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	planID := args[0]
	steps, err := store.PlanSteps(ctx, planID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no journaled steps for plan %s", planID)
	}

	out := cmd.OutOrStdout()
	completed := true
	for _, step := range steps {
		switch step.Status {
		case exec.StepFailed:
			completed = false
			fmt.Fprintf(out, "[%d] %s: failed: %v\n", step.Index, step.Method, step.Err)
		case exec.StepSkipped:
			completed = false
			fmt.Fprintf(out, "[%d] %s: skipped\n", step.Index, step.Method)
		case exec.StepConfirmed, exec.StepSubmitted:
			fmt.Fprintf(out, "[%d] %s: %s (%s)\n", step.Index, step.Method, step.Status, step.TxHash.Hex())
		default:
			completed = false
			fmt.Fprintf(out, "[%d] %s: %s\n", step.Index, step.Method, step.Status)
		}
	}
	if !completed {
		fmt.Fprintf(out, "plan %s did not complete; mined calls stay mined\n", planID)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapscope/internal/chain"
	"swapscope/internal/config"
	"swapscope/internal/exec"
	"swapscope/internal/plan"
	"swapscope/internal/registry"
	"swapscope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "swapscope",
		Short:        "AMM swap terminal and analytics",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newAskCmd())
	root.AddCommand(newSwapCmd())
	root.AddCommand(newAddLiquidityCmd())
	root.AddCommand(newRemoveLiquidityCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newPoolsCmd())
	root.AddCommand(newPlanStatusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// chainFlags are shared by every command that talks to the chain.
func chainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("pools", "", "pool registry file (defaults to the built-in pools)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// writeFlags are shared by every command that can submit transactions.
func writeFlags(cmd *cobra.Command) {
	cmd.Flags().String("router", "", "router contract address")
	cmd.Flags().String("private-key", "", "hex private key; omit for a dry run")
	cmd.Flags().Int64("slippage-bps", 500, "slippage tolerance in basis points")
	cmd.Flags().Int64("deadline-secs", 1200, "plan deadline in seconds from build time")
	cmd.Flags().String("approval-wait", "receipt", "approval wait mode (receipt, delay)")
	cmd.Flags().Duration("approval-delay", 5*time.Second, "fixed sleep for approval-wait=delay")
	cmd.Flags().Duration("receipt-poll", 2*time.Second, "receipt polling interval")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the execution journal (optional)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func loadRegistry(cfg config.Config) (*registry.Registry, error) {
	if cfg.PoolsFile == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(cfg.PoolsFile)
}

func newBuilder(cfg config.Config, reg *registry.Registry, client *chain.Client, caller common.Address) (*plan.Builder, error) {
	if cfg.Router == "" || !common.IsHexAddress(cfg.Router) {
		return nil, plan.ErrMissingRouterAddress
	}
	builderCfg := plan.BuilderConfig{
		Registry:    reg,
		Router:      common.HexToAddress(cfg.Router),
		Caller:      caller,
		SlippageBps: cfg.SlippageBps,
		DeadlineTTL: time.Duration(cfg.DeadlineSecs) * time.Second,
	}
	if client != nil {
		builderCfg.Quote = plan.ReserveQuote(client, reg)
		builderCfg.Balances = client
	}
	return plan.NewBuilder(builderCfg)
}

// maybeSender builds the signing sender, or returns nil when no private
// key is configured and the command runs dry.
func maybeSender(ctx context.Context, client *chain.Client, cfg config.Config) (*chain.Sender, error) {
	if cfg.PrivateKey == "" {
		return nil, nil
	}
	return chain.NewSender(ctx, client, cfg.PrivateKey, cfg.ReceiptPoll)
}

// runPlan either prints the plan (nil sender: dry run) or submits it
// call by call, journaling progress when a store is configured.
func runPlan(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *zap.Logger, sender *chain.Sender, p plan.Plan) error {
	out := cmd.OutOrStdout()

	if sender == nil {
		fmt.Fprintf(out, "dry run: %d calls, deadline %s\n", len(p.Calls), p.Deadline)
		printPlan(cmd, p)
		return nil
	}

	var journal exec.Journal = exec.NopJournal{}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		journal = store
	}

	executor := exec.NewExecutor(exec.ExecutorConfig{
		Sender:  sender,
		Journal: journal,
		Mode:    exec.WaitMode(cfg.ApprovalWait),
		Delay:   cfg.ApprovalDelay,
		Logger:  logger,
	})

	planID := fmt.Sprintf("plan-%d", time.Now().UnixNano())
	result := executor.Execute(ctx, planID, p)

	for _, step := range result.Steps {
		switch step.Status {
		case exec.StepSkipped:
			fmt.Fprintf(out, "[%d] %s: skipped\n", step.Index, step.Method)
		case exec.StepFailed:
			fmt.Fprintf(out, "[%d] %s: failed: %v\n", step.Index, step.Method, step.Err)
		default:
			fmt.Fprintf(out, "[%d] %s: %s (%s)\n", step.Index, step.Method, step.Status, step.TxHash.Hex())
		}
	}
	if !result.Completed {
		return fmt.Errorf("plan %s did not complete; already-mined calls are not rolled back", planID)
	}
	fmt.Fprintf(out, "plan %s completed\n", planID)
	return nil
}

func printPlan(cmd *cobra.Command, p plan.Plan) {
	out := cmd.OutOrStdout()
	for i, call := range p.Calls {
		fmt.Fprintf(out, "[%d] %s -> %s %v\n", i, call.Method, call.Target.Hex(), call.Args)
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

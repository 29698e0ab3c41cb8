package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapscope/internal/analytics"
	"swapscope/internal/chain"
	"swapscope/internal/instruction"
	"swapscope/internal/llm"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Turn a natural-language request into a swap, deposit, or pool query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	chainFlags(cmd)
	writeFlags(cmd)
	cmd.Flags().String("llm-base-url", "", "language model API base URL")
	cmd.Flags().String("llm-api-key", "", "language model API key")
	cmd.Flags().String("llm-model", "gpt-4o-mini", "language model name")
	cmd.Flags().Duration("llm-timeout", 0, "language model request timeout")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	translator, err := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	input := strings.Join(args, " ")
	logger.Info("ask", zap.String("input", input), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))

	payload, err := translator.Translate(ctx, input)
	if err != nil {
		return err
	}

	inst, err := instruction.NormalizeModelResponse(input, payload, reg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch inst.Kind {
	case instruction.KindUnsupported:
		fmt.Fprintln(out, inst.Reason)
		return nil
	case instruction.KindQuery:
		engine := analytics.NewEngine(client, reg, logger)
		return renderResult(cmd, engine.Answer(ctx, *inst.Query))
	case instruction.KindSwap, instruction.KindAddLiquidity:
		sender, err := maybeSender(ctx, client, cfg)
		if err != nil {
			return err
		}
		caller := common.Address{}
		if sender != nil {
			caller = sender.From()
		}
		builder, err := newBuilder(cfg, reg, client, caller)
		if err != nil {
			return err
		}
		p, err := builder.Build(ctx, inst)
		if err != nil {
			return err
		}
		return runPlan(ctx, cmd, cfg, logger, sender, p)
	default:
		return fmt.Errorf("unexpected instruction kind: %s", inst.Kind)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapscope/internal/chain"
	"swapscope/internal/instruction"
	"swapscope/internal/registry"
)

// formInstruction builds the typed instruction from explicit flags; the
// model never sees form submissions.
type formInstruction func(cmd *cobra.Command, reg *registry.Registry) (instruction.Instruction, error)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount for another token",
		RunE: runForm(func(cmd *cobra.Command, reg *registry.Registry) (instruction.Instruction, error) {
			amount, _ := cmd.Flags().GetString("amount")
			tokenIn, _ := cmd.Flags().GetString("token-in")
			tokenOut, _ := cmd.Flags().GetString("token-out")
			return instruction.NormalizeSwapForm(amount, tokenIn, tokenOut, reg)
		}),
	}

	chainFlags(cmd)
	writeFlags(cmd)
	cmd.Flags().String("amount", "", "input amount (decimal string)")
	cmd.Flags().String("token-in", "", "input token symbol")
	cmd.Flags().String("token-out", "", "output token symbol")

	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit both sides of a pair",
		RunE: runForm(func(cmd *cobra.Command, reg *registry.Registry) (instruction.Instruction, error) {
			tokenA, _ := cmd.Flags().GetString("token-a")
			amountA, _ := cmd.Flags().GetString("amount-a")
			tokenB, _ := cmd.Flags().GetString("token-b")
			amountB, _ := cmd.Flags().GetString("amount-b")
			return instruction.NormalizeAddLiquidityForm(tokenA, amountA, tokenB, amountB, reg)
		}),
	}

	chainFlags(cmd)
	writeFlags(cmd)
	cmd.Flags().String("token-a", "", "first token symbol")
	cmd.Flags().String("amount-a", "", "first token amount")
	cmd.Flags().String("token-b", "", "second token symbol")
	cmd.Flags().String("amount-b", "", "second token amount")

	return cmd
}

func newRemoveLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Redeem LP tokens for the underlying pair",
		RunE: runForm(func(cmd *cobra.Command, reg *registry.Registry) (instruction.Instruction, error) {
			tokenA, _ := cmd.Flags().GetString("token-a")
			tokenB, _ := cmd.Flags().GetString("token-b")
			amount, _ := cmd.Flags().GetString("amount")
			return instruction.NormalizeRemoveLiquidityForm(tokenA, tokenB, amount, reg)
		}),
	}

	chainFlags(cmd)
	writeFlags(cmd)
	cmd.Flags().String("token-a", "", "first token symbol")
	cmd.Flags().String("token-b", "", "second token symbol")
	cmd.Flags().String("amount", "", "LP token amount to redeem")

	return cmd
}

func runForm(build formInstruction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
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

		inst, err := build(cmd, reg)
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

		logger.Info("plan built",
			zap.String("kind", string(inst.Kind)),
			zap.Int("calls", len(p.Calls)),
			zap.String("deadline", p.Deadline.String()))

		return runPlan(ctx, cmd, cfg, logger, sender, p)
	}
}

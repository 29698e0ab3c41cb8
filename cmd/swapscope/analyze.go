package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"swapscope/internal/analytics"
	"swapscope/internal/chain"
	"swapscope/internal/instruction"
	"swapscope/internal/registry"
	"swapscope/internal/units"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Answer a pool query and optionally emit chart samples",
		RunE:  runAnalyze,
	}

	chainFlags(cmd)
	cmd.Flags().String("query", "reserves", "query kind (reserves, swaps, price, price_history, liquidity, volume, price_impact)")
	cmd.Flags().String("pair", "", "token pair, e.g. TKNA-TKNB (defaults to the first pool)")
	cmd.Flags().String("timeframe", "", "timeframe (today, 24h, hour, day, week, month)")
	cmd.Flags().String("amount", "", "hypothetical amount for price_impact")
	cmd.Flags().String("token", "", "input token for price_impact")
	cmd.Flags().String("chart", "", "chart samples to emit (curve, impact, histogram)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
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

	kindFlag, _ := cmd.Flags().GetString("query")
	kind := analytics.QueryKind(strings.ToLower(kindFlag))
	if !analytics.KnownQueryKind(kind) {
		return fmt.Errorf("unknown query kind: %s", kindFlag)
	}

	query := analytics.Query{Kind: kind}
	query.Timeframe, _ = cmd.Flags().GetString("timeframe")

	pair, _ := cmd.Flags().GetString("pair")
	if pair != "" {
		sides := strings.SplitN(pair, "-", 2)
		if len(sides) != 2 {
			return fmt.Errorf("malformed pair: %s", pair)
		}
		query.TokenA, query.TokenB = sides[0], sides[1]
	}

	if kind == analytics.QueryPriceImpact {
		rawAmount, _ := cmd.Flags().GetString("amount")
		query.Amount, err = instruction.NormalizeAmount(rawAmount)
		if err != nil {
			return err
		}
		query.Token, _ = cmd.Flags().GetString("token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	engine := analytics.NewEngine(client, reg, logger)
	result := engine.Answer(ctx, query)
	if err := renderResult(cmd, result); err != nil {
		return err
	}

	chart, _ := cmd.Flags().GetString("chart")
	if chart == "" {
		return nil
	}
	return renderChart(ctx, cmd, chart, query, reg, client, engine)
}

func renderResult(cmd *cobra.Command, result analytics.Result) error {
	if result.Err != nil {
		return fmt.Errorf("%s: %w", result.Kind, result.Err)
	}

	out := cmd.OutOrStdout()
	switch data := result.Data.(type) {
	case analytics.ReservesData:
		fmt.Fprintf(out, "pool %s: %s %s / %s %s\n", data.Pool, data.Reserve0, data.Token0, data.Reserve1, data.Token1)
	case analytics.PriceData:
		fmt.Fprintf(out, "price: %g %s per %s\n", data.Price, data.Token0, data.Token1)
	case analytics.SwapsData:
		fmt.Fprintf(out, "swaps (%s): %d, average size %g\n", data.Timeframe, data.Count, data.AverageSize)
	case analytics.VolumeData:
		fmt.Fprintf(out, "volume (%s): %g across %d swaps\n", data.Timeframe, data.Volume, data.Count)
	case analytics.PriceHistoryData:
		fmt.Fprintf(out, "price history (%s): %d points\n", data.Period, len(data.Points))
		for _, point := range data.Points {
			fmt.Fprintf(out, "  block %d (ts %d): %g\n", point.BlockNumber, point.Timestamp, point.Price)
		}
	case analytics.LiquidityData:
		fmt.Fprintf(out, "liquidity (reserve product): %g\n", data.TotalLiquidity)
	case analytics.PriceImpactData:
		fmt.Fprintf(out, "impact of %s %s: %.4f%%\n", data.Amount, data.Token, data.ImpactPercent)
	default:
		fmt.Fprintf(out, "%s: %+v\n", result.Kind, result.Data)
	}
	return nil
}

func renderChart(ctx context.Context, cmd *cobra.Command, chart string, query analytics.Query, reg *registry.Registry, client *chain.Client, engine *analytics.Engine) error {
	out := cmd.OutOrStdout()

	pool := reg.DefaultPool()
	if query.TokenA != "" || query.TokenB != "" {
		resolved, ok := reg.Pool(query.TokenA, query.TokenB)
		if !ok {
			return fmt.Errorf("no pool for pair %s-%s", query.TokenA, query.TokenB)
		}
		pool = resolved
	}

	switch chart {
	case "curve":
		snapshot, err := client.GetReserves(ctx, pool.Address)
		if err != nil {
			return err
		}
		r0 := units.ToFloat(snapshot.Reserve0, pool.Token0.Decimals)
		r1 := units.ToFloat(snapshot.Reserve1, pool.Token1.Decimals)
		points, err := analytics.ConstantProductCurve(r0, r1, analytics.DefaultCurveSamples)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "constant-product curve, current position (%g, %g)\n", r0, r1)
		for _, point := range points {
			fmt.Fprintf(out, "%g,%g\n", point.X, point.Y)
		}

	case "impact":
		snapshot, err := client.GetReserves(ctx, pool.Address)
		if err != nil {
			return err
		}
		r0 := units.ToFloat(snapshot.Reserve0, pool.Token0.Decimals)
		r1 := units.ToFloat(snapshot.Reserve1, pool.Token1.Decimals)
		fromToken0 := query.Token == "" || strings.EqualFold(query.Token, pool.Token0.Symbol)
		points, err := analytics.PriceImpactCurve(r0, r1, analytics.DefaultImpactSteps, fromToken0)
		if err != nil {
			return err
		}

		yours := -1
		if query.Amount != "" {
			fromReserve := r0
			if !fromToken0 {
				fromReserve = r1
			}
			if amount, err := strconv.ParseFloat(query.Amount, 64); err == nil {
				yours = analytics.ImpactCurveIndex(amount, fromReserve, analytics.DefaultImpactSteps)
			}
		}
		for i, point := range points {
			marker := ""
			if i == yours {
				marker = " <- your swap"
			}
			fmt.Fprintf(out, "%g%%,%g%%%s\n", point.PercentOfReserve, point.ImpactPercent, marker)
		}

	case "histogram":
		history := engine.Answer(ctx, analytics.Query{
			Kind:      analytics.QueryPriceHistory,
			TokenA:    query.TokenA,
			TokenB:    query.TokenB,
			Timeframe: query.Timeframe,
		})
		if history.Err != nil {
			return fmt.Errorf("price_history: %w", history.Err)
		}
		data := history.Data.(analytics.PriceHistoryData)
		prices := make([]float64, 0, len(data.Points))
		for _, point := range data.Points {
			prices = append(prices, point.Price)
		}
		hist, err := analytics.BinPrices(prices, analytics.DefaultHistogramBins)
		if err != nil {
			return err
		}
		for i, bin := range hist.Bins {
			marker := ""
			if i == hist.CurrentBin {
				marker = " <- current price"
			}
			fmt.Fprintf(out, "[%g, %g): %d%s\n", bin.LowerBound, bin.LowerBound+hist.BinWidth, bin.Count, marker)
		}

	default:
		return fmt.Errorf("unknown chart: %s", chart)
	}
	return nil
}

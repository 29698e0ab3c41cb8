package analytics

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/chain"
	"swapscope/internal/dex"
	"swapscope/internal/registry"
	"swapscope/internal/units"
)

// ErrDivisionByZero marks a price computed against an empty reserve.
var ErrDivisionByZero = errors.New("division by zero: reserve1 is empty")

// ErrNoSwapEvents marks a history query over a range with no swaps.
var ErrNoSwapEvents = errors.New("no swap events in the requested range")

// Reader is the chain read surface the engine depends on. Reserve and
// event reads always fetch fresh state; block timestamps are immutable,
// so the chain client may cache those.
type Reader interface {
	GetReserves(ctx context.Context, pool common.Address) (chain.ReserveSnapshot, error)
	SwapEvents(ctx context.Context, pool common.Address, fromBlock, toBlock uint64) ([]dex.SwapEvent, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// timeframeSeconds maps the accepted timeframe/period names onto a lookback
// in seconds. The block range is derived by subtracting this from the
// current block number, approximating blocks with seconds the way the
// dashboard's read contract does.
var timeframeSeconds = map[string]uint64{
	"today": 86400,
	"24h":   86400,
	"hour":  3600,
	"day":   86400,
	"week":  604800,
	"month": 2592000,
}

// Engine answers read-only analytics queries from current reserves and
// historical swap events.
type Engine struct {
	reader Reader
	reg    *registry.Registry
	logger *zap.Logger
}

func NewEngine(reader Reader, reg *registry.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{reader: reader, reg: reg, logger: logger}
}

// Answer resolves the query's pool and dispatches on its kind. Failures come
// back inside the Result with the kind preserved, never as a panic.
func (e *Engine) Answer(ctx context.Context, q Query) Result {
	pool, err := e.resolvePool(q)
	if err != nil {
		return errorResult(q.Kind, err)
	}

	switch q.Kind {
	case QueryReserves:
		return e.answerReserves(ctx, pool)
	case QueryPrice:
		return e.answerPrice(ctx, pool)
	case QuerySwaps:
		return e.answerSwaps(ctx, pool, q.Timeframe)
	case QueryVolume:
		return e.answerVolume(ctx, pool, q.Timeframe)
	case QueryPriceHistory:
		return e.answerPriceHistory(ctx, pool, q.Timeframe)
	case QueryLiquidity:
		return e.answerLiquidity(ctx, pool)
	case QueryPriceImpact:
		return e.answerPriceImpact(ctx, pool, q.Amount, q.Token)
	default:
		return errorResult(q.Kind, fmt.Errorf("unsupported query kind: %s", q.Kind))
	}
}

func (e *Engine) resolvePool(q Query) (registry.Pool, error) {
	if q.TokenA == "" && q.TokenB == "" {
		return e.reg.DefaultPool(), nil
	}
	pool, ok := e.reg.Pool(q.TokenA, q.TokenB)
	if !ok {
		return registry.Pool{}, fmt.Errorf("no pool for pair %s-%s", q.TokenA, q.TokenB)
	}
	return pool, nil
}

func (e *Engine) answerReserves(ctx context.Context, pool registry.Pool) Result {
	snapshot, err := e.reader.GetReserves(ctx, pool.Address)
	if err != nil {
		return errorResult(QueryReserves, err)
	}
	return Result{Kind: QueryReserves, Data: ReservesData{
		Pool:     pool.Address.Hex(),
		Token0:   pool.Token0.Symbol,
		Token1:   pool.Token1.Symbol,
		Reserve0: units.ToDecimalString(snapshot.Reserve0, pool.Token0.Decimals),
		Reserve1: units.ToDecimalString(snapshot.Reserve1, pool.Token1.Decimals),
	}}
}

func (e *Engine) answerPrice(ctx context.Context, pool registry.Pool) Result {
	snapshot, err := e.reader.GetReserves(ctx, pool.Address)
	if err != nil {
		return errorResult(QueryPrice, err)
	}
	if snapshot.Reserve1 == nil || snapshot.Reserve1.Sign() == 0 {
		return errorResult(QueryPrice, ErrDivisionByZero)
	}

	r0 := units.ToFloat(snapshot.Reserve0, pool.Token0.Decimals)
	r1 := units.ToFloat(snapshot.Reserve1, pool.Token1.Decimals)
	return Result{Kind: QueryPrice, Data: PriceData{
		Token0: pool.Token0.Symbol,
		Token1: pool.Token1.Symbol,
		Price:  r0 / r1,
	}}
}

func (e *Engine) answerSwaps(ctx context.Context, pool registry.Pool, timeframe string) Result {
	events, timeframe, err := e.swapsInTimeframe(ctx, pool, timeframe, "today")
	if err != nil {
		return errorResult(QuerySwaps, err)
	}

	total := 0.0
	for _, event := range events {
		total += inflowAmount(event, pool)
	}
	average := 0.0
	if len(events) > 0 {
		average = total / float64(len(events))
	}

	return Result{Kind: QuerySwaps, Data: SwapsData{
		Timeframe:   timeframe,
		Count:       len(events),
		AverageSize: average,
	}}
}

func (e *Engine) answerVolume(ctx context.Context, pool registry.Pool, timeframe string) Result {
	events, timeframe, err := e.swapsInTimeframe(ctx, pool, timeframe, "24h")
	if err != nil {
		return errorResult(QueryVolume, err)
	}

	volume := 0.0
	for _, event := range events {
		volume += inflowAmount(event, pool)
	}

	return Result{Kind: QueryVolume, Data: VolumeData{
		Timeframe: timeframe,
		Volume:    volume,
		Count:     len(events),
	}}
}

func (e *Engine) answerPriceHistory(ctx context.Context, pool registry.Pool, period string) Result {
	events, period, err := e.swapsInTimeframe(ctx, pool, period, "week")
	if err != nil {
		return errorResult(QueryPriceHistory, err)
	}
	points := make([]PricePoint, 0, len(events))
	for _, event := range events {
		price, ok := impliedPrice(event, pool)
		if !ok {
			// No token1 flow crossed the pool; a price cannot be
			// implied, so the event contributes no point.
			continue
		}
		timestamp, err := e.reader.BlockTimestamp(ctx, event.BlockNumber)
		if err != nil {
			return errorResult(QueryPriceHistory, err)
		}
		points = append(points, PricePoint{
			BlockNumber: event.BlockNumber,
			Timestamp:   timestamp,
			Price:       price,
		})
	}
	if len(points) == 0 {
		return errorResult(QueryPriceHistory, ErrNoSwapEvents)
	}

	return Result{Kind: QueryPriceHistory, Data: PriceHistoryData{Period: period, Points: points}}
}

func (e *Engine) answerLiquidity(ctx context.Context, pool registry.Pool) Result {
	snapshot, err := e.reader.GetReserves(ctx, pool.Address)
	if err != nil {
		return errorResult(QueryLiquidity, err)
	}
	r0 := units.ToFloat(snapshot.Reserve0, pool.Token0.Decimals)
	r1 := units.ToFloat(snapshot.Reserve1, pool.Token1.Decimals)
	return Result{Kind: QueryLiquidity, Data: LiquidityData{TotalLiquidity: r0 * r1}}
}

func (e *Engine) answerPriceImpact(ctx context.Context, pool registry.Pool, amount, token string) Result {
	if token == "" {
		return errorResult(QueryPriceImpact, fmt.Errorf("price impact needs a token"))
	}
	tokenInfo, ok := e.reg.Token(token)
	if !ok {
		return errorResult(QueryPriceImpact, fmt.Errorf("unknown token: %s", token))
	}
	fromToken0 := tokenInfo.Symbol == pool.Token0.Symbol
	if !fromToken0 && tokenInfo.Symbol != pool.Token1.Symbol {
		return errorResult(QueryPriceImpact, fmt.Errorf("token %s is not in pool %s-%s",
			tokenInfo.Symbol, pool.Token0.Symbol, pool.Token1.Symbol))
	}

	fixed, err := units.ToFixedPoint(amount, tokenInfo.Decimals)
	if err != nil {
		return errorResult(QueryPriceImpact, err)
	}

	// Reserves are read at query time, not snapshotted earlier in the
	// interaction.
	snapshot, err := e.reader.GetReserves(ctx, pool.Address)
	if err != nil {
		return errorResult(QueryPriceImpact, err)
	}

	r0 := units.ToFloat(snapshot.Reserve0, pool.Token0.Decimals)
	r1 := units.ToFloat(snapshot.Reserve1, pool.Token1.Decimals)
	amountIn := units.ToFloat(fixed, tokenInfo.Decimals)

	impact, err := PriceImpact(r0, r1, amountIn, fromToken0)
	if err != nil {
		return errorResult(QueryPriceImpact, err)
	}

	return Result{Kind: QueryPriceImpact, Data: PriceImpactData{
		Amount:        amount,
		Token:         tokenInfo.Symbol,
		ImpactPercent: impact,
	}}
}

func (e *Engine) swapsInTimeframe(ctx context.Context, pool registry.Pool, timeframe, fallback string) ([]dex.SwapEvent, string, error) {
	if timeframe == "" {
		timeframe = fallback
	}
	seconds, ok := timeframeSeconds[timeframe]
	if !ok {
		return nil, timeframe, fmt.Errorf("unknown timeframe: %s", timeframe)
	}

	latest, err := e.reader.LatestBlockNumber(ctx)
	if err != nil {
		return nil, timeframe, err
	}

	fromBlock := uint64(0)
	if latest > seconds {
		fromBlock = latest - seconds
	}

	events, err := e.reader.SwapEvents(ctx, pool.Address, fromBlock, latest)
	if err != nil {
		return nil, timeframe, err
	}

	e.logger.Debug("scanned swap events",
		zap.String("pool", pool.Address.Hex()),
		zap.String("timeframe", timeframe),
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", latest),
		zap.Int("events", len(events)),
	)
	return events, timeframe, nil
}

// inflowAmount is the event's amount0In+amount1In in display units.
func inflowAmount(event dex.SwapEvent, pool registry.Pool) float64 {
	return units.ToFloat(event.Amount0In, pool.Token0.Decimals) +
		units.ToFloat(event.Amount1In, pool.Token1.Decimals)
}

// impliedPrice derives a price from the event's trade flow,
// (amount0In+amount0Out)/(amount1In+amount1Out). This approximates the
// post-trade price from the amounts that crossed the pool rather than the
// true reserves after the trade. Events with zero token1 flow imply no
// price and report ok=false.
func impliedPrice(event dex.SwapEvent, pool registry.Pool) (float64, bool) {
	flow0 := new(big.Int).Add(orZero(event.Amount0In), orZero(event.Amount0Out))
	flow1 := new(big.Int).Add(orZero(event.Amount1In), orZero(event.Amount1Out))
	if flow1.Sign() == 0 {
		return 0, false
	}
	return units.ToFloat(flow0, pool.Token0.Decimals) / units.ToFloat(flow1, pool.Token1.Decimals), true
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return value
}

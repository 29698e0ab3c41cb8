package analytics

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/chain"
	"swapscope/internal/dex"
	"swapscope/internal/registry"
)

type fakeReader struct {
	reserves    chain.ReserveSnapshot
	reservesErr error
	events      []dex.SwapEvent
	eventsErr   error
	latest      uint64

	lastFrom uint64
	lastTo   uint64
}

func (f *fakeReader) GetReserves(_ context.Context, _ common.Address) (chain.ReserveSnapshot, error) {
	return f.reserves, f.reservesErr
}

func (f *fakeReader) SwapEvents(_ context.Context, _ common.Address, fromBlock, toBlock uint64) ([]dex.SwapEvent, error) {
	f.lastFrom = fromBlock
	f.lastTo = toBlock
	return f.events, f.eventsErr
}

func (f *fakeReader) LatestBlockNumber(_ context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeReader) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	// Deterministic fake clock: one second per block.
	return 1600000000 + number, nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Pool{{
		ID:      1,
		Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Token0:  registry.Token{Symbol: "TKNA", Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Decimals: 18},
		Token1:  registry.Token{Symbol: "TKNB", Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Decimals: 18},
	}})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestAnswerPriceEqualReserves(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(100), Reserve1: ether(100)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPrice})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data, ok := result.Data.(PriceData)
	if !ok {
		t.Fatalf("payload type mismatch: %T", result.Data)
	}
	if data.Price != 1.0 {
		t.Fatalf("price = %v, want 1.0", data.Price)
	}
}

func TestAnswerPriceZeroReserve(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(100), Reserve1: big.NewInt(0)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPrice})
	if result.Err == nil {
		t.Fatalf("expected division-by-zero error")
	}
	if !errors.Is(result.Err, ErrDivisionByZero) {
		t.Fatalf("error mismatch: %v", result.Err)
	}
	if result.Kind != QueryPrice {
		t.Fatalf("errored result must keep its kind, got %s", result.Kind)
	}
}

func TestAnswerReserves(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(200), Reserve1: ether(50)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryReserves})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(ReservesData)
	if data.Reserve0 != "200" || data.Reserve1 != "50" {
		t.Fatalf("reserves mismatch: %+v", data)
	}
	if data.Token0 != "TKNA" || data.Token1 != "TKNB" {
		t.Fatalf("token symbols mismatch: %+v", data)
	}
}

func TestAnswerVolumeSumsInflows(t *testing.T) {
	reader := &fakeReader{
		latest: 1000000,
		events: []dex.SwapEvent{
			{BlockNumber: 999000, Amount0In: ether(10), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: ether(9)},
			{BlockNumber: 999100, Amount0In: big.NewInt(0), Amount1In: ether(5), Amount0Out: ether(4), Amount1Out: big.NewInt(0)},
		},
	}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryVolume})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(VolumeData)
	if data.Volume != 15 {
		t.Fatalf("volume = %v, want 15", data.Volume)
	}
	if data.Count != 2 {
		t.Fatalf("count = %d, want 2", data.Count)
	}
	if data.Timeframe != "24h" {
		t.Fatalf("default timeframe mismatch: %s", data.Timeframe)
	}
	if reader.lastFrom != 1000000-86400 {
		t.Fatalf("from block = %d, want %d", reader.lastFrom, 1000000-86400)
	}
}

func TestAnswerSwapsDefaultsToday(t *testing.T) {
	reader := &fakeReader{
		latest: 90000,
		events: []dex.SwapEvent{
			{Amount0In: ether(4), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: ether(2)},
		},
	}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QuerySwaps})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(SwapsData)
	if data.Timeframe != "today" {
		t.Fatalf("default timeframe mismatch: %s", data.Timeframe)
	}
	if data.Count != 1 || data.AverageSize != 4 {
		t.Fatalf("swaps data mismatch: %+v", data)
	}
	if reader.lastFrom != 90000-86400 {
		t.Fatalf("from block = %d, want %d", reader.lastFrom, 90000-86400)
	}
}

func TestAnswerPriceHistoryImpliedPrice(t *testing.T) {
	reader := &fakeReader{
		latest: 800000,
		events: []dex.SwapEvent{
			{BlockNumber: 700000, Amount0In: ether(10), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: ether(5)},
			{BlockNumber: 700500, Amount0In: big.NewInt(0), Amount1In: ether(3), Amount0Out: ether(9), Amount1Out: big.NewInt(0)},
		},
	}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPriceHistory})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(PriceHistoryData)
	if data.Period != "week" {
		t.Fatalf("default period mismatch: %s", data.Period)
	}
	if len(data.Points) != 2 {
		t.Fatalf("point count mismatch: %d", len(data.Points))
	}
	// (10+0)/(0+5) = 2, (0+9)/(3+0) = 3.
	if data.Points[0].Price != 2 || data.Points[1].Price != 3 {
		t.Fatalf("implied prices mismatch: %+v", data.Points)
	}
	if data.Points[0].Timestamp != 1600000000+700000 {
		t.Fatalf("point timestamp mismatch: %d", data.Points[0].Timestamp)
	}
}

func TestAnswerPriceHistorySkipsZeroFlowEvents(t *testing.T) {
	reader := &fakeReader{
		latest: 800000,
		events: []dex.SwapEvent{
			// token1 never crossed the pool: no price can be implied.
			{BlockNumber: 700000, Amount0In: ether(10), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: big.NewInt(0)},
			{BlockNumber: 700500, Amount0In: ether(10), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: ether(5)},
		},
	}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPriceHistory})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(PriceHistoryData)
	if len(data.Points) != 1 {
		t.Fatalf("zero-flow event must not contribute a point: %+v", data.Points)
	}
	if data.Points[0].Price != 2 {
		t.Fatalf("surviving point price = %v, want 2", data.Points[0].Price)
	}
}

func TestAnswerPriceHistoryAllZeroFlow(t *testing.T) {
	reader := &fakeReader{
		latest: 800000,
		events: []dex.SwapEvent{
			{BlockNumber: 700000, Amount0In: ether(10), Amount1In: big.NewInt(0), Amount0Out: big.NewInt(0), Amount1Out: big.NewInt(0)},
		},
	}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPriceHistory})
	if !errors.Is(result.Err, ErrNoSwapEvents) {
		t.Fatalf("a series with no priceable events is empty, got %v", result.Err)
	}
}

func TestAnswerPriceHistoryEmptyRange(t *testing.T) {
	reader := &fakeReader{latest: 800000}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryPriceHistory})
	if !errors.Is(result.Err, ErrNoSwapEvents) {
		t.Fatalf("expected ErrNoSwapEvents, got %v", result.Err)
	}
	if result.Kind != QueryPriceHistory {
		t.Fatalf("errored result must keep its kind")
	}
}

func TestAnswerLiquidityProduct(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(200), Reserve1: ether(50)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryLiquidity})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(LiquidityData)
	if data.TotalLiquidity != 10000 {
		t.Fatalf("liquidity = %v, want 10000", data.TotalLiquidity)
	}
}

func TestAnswerPriceImpact(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(200), Reserve1: ether(50)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{
		Kind:   QueryPriceImpact,
		Amount: "20",
		Token:  "TKNA",
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(PriceImpactData)

	// k = 10000 held constant: newR0 = 220, newR1 = 10000/220, and the
	// incoming token0 now buys less token1.
	oldPrice := 50.0 / 200.0
	newR0 := 220.0
	newR1 := 10000.0 / newR0
	want := (oldPrice - newR1/newR0) / oldPrice * 100
	if math.Abs(data.ImpactPercent-want) > 1e-9 {
		t.Fatalf("impact = %v, want %v", data.ImpactPercent, want)
	}
	if data.ImpactPercent <= 0 {
		t.Fatalf("swapping into the pool should report a positive impact, got %v", data.ImpactPercent)
	}
}

func TestAnswerPriceImpactZeroAmount(t *testing.T) {
	reader := &fakeReader{reserves: chain.ReserveSnapshot{Reserve0: ether(200), Reserve1: ether(50)}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{
		Kind:   QueryPriceImpact,
		Amount: "0",
		Token:  "TKNB",
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	data := result.Data.(PriceImpactData)
	if data.ImpactPercent != 0 {
		t.Fatalf("zero amount must yield 0%% impact, got %v", data.ImpactPercent)
	}
}

func TestAnswerReadFailureKeepsKind(t *testing.T) {
	reader := &fakeReader{reservesErr: &chain.ReadError{Op: "getReserves", Err: errors.New("rpc down")}}
	engine := NewEngine(reader, testRegistry(t), nil)

	result := engine.Answer(context.Background(), Query{Kind: QueryReserves})
	if result.Err == nil {
		t.Fatalf("expected read error")
	}
	var readErr *chain.ReadError
	if !errors.As(result.Err, &readErr) {
		t.Fatalf("expected *chain.ReadError, got %T", result.Err)
	}
	if result.Kind != QueryReserves || result.Data != nil {
		t.Fatalf("errored result shape mismatch: %+v", result)
	}
}

func TestAnswerUnknownPair(t *testing.T) {
	engine := NewEngine(&fakeReader{}, testRegistry(t), nil)
	result := engine.Answer(context.Background(), Query{Kind: QueryPrice, TokenA: "TKNA", TokenB: "WETH"})
	if result.Err == nil {
		t.Fatalf("expected error for unknown pair")
	}
}

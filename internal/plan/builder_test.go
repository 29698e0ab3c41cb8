package plan

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/chain"
	"swapscope/internal/instruction"
	"swapscope/internal/registry"
)

var (
	testRouter = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	testCaller = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func fixedNow() time.Time {
	return time.Unix(1700000000, 0)
}

func newTestBuilder(t *testing.T, cfg BuilderConfig) *Builder {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = registry.Default()
	}
	if cfg.Router == (common.Address{}) {
		cfg.Router = testRouter
	}
	if cfg.Caller == (common.Address{}) {
		cfg.Caller = testCaller
	}
	if cfg.Now == nil {
		cfg.Now = fixedNow
	}
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestNewBuilderMissingRouter(t *testing.T) {
	_, err := NewBuilder(BuilderConfig{Registry: registry.Default(), Caller: testCaller})
	if !errors.Is(err, ErrMissingRouterAddress) {
		t.Fatalf("expected ErrMissingRouterAddress, got %v", err)
	}
}

func TestNewBuilderRejectsFullSlippage(t *testing.T) {
	for _, bps := range []int64{10000, 12000} {
		_, err := NewBuilder(BuilderConfig{
			Registry:    registry.Default(),
			Router:      testRouter,
			Caller:      testCaller,
			SlippageBps: bps,
		})
		if err == nil {
			t.Fatalf("slippage %d bps must be rejected", bps)
		}
	}
}

func TestBuildSwapShape(t *testing.T) {
	b := newTestBuilder(t, BuilderConfig{})

	p, err := b.BuildSwap(context.Background(), &instruction.Swap{
		AmountIn: "10", TokenIn: "TKNA", TokenOut: "TKNB",
	})
	if err != nil {
		t.Fatalf("BuildSwap: %v", err)
	}
	if len(p.Calls) != 2 {
		t.Fatalf("call count = %d, want 2", len(p.Calls))
	}

	approve, swap := p.Calls[0], p.Calls[1]
	if approve.Method != "approve" {
		t.Fatalf("first call = %s, want approve", approve.Method)
	}
	tokenIn, _ := registry.Default().Token("TKNA")
	if approve.Target != tokenIn.Address {
		t.Fatalf("approve target is not tokenIn")
	}
	if approve.Args[0] != testRouter.Hex() {
		t.Fatalf("approve spender %s does not match the router %s", approve.Args[0], testRouter.Hex())
	}
	if swap.Target != testRouter {
		t.Fatalf("swap must be sent to the router")
	}
	if swap.Method != "swapExactTokensForTokens" {
		t.Fatalf("second call = %s", swap.Method)
	}
	if len(swap.Data) == 0 || len(approve.Data) == 0 {
		t.Fatalf("calls must carry packed calldata")
	}
}

func TestBuildSwapLegacyMinOut(t *testing.T) {
	b := newTestBuilder(t, BuilderConfig{})

	p, err := b.BuildSwap(context.Background(), &instruction.Swap{
		AmountIn: "10", TokenIn: "TKNA", TokenOut: "TKNB",
	})
	if err != nil {
		t.Fatalf("BuildSwap: %v", err)
	}

	amountIn, ok := new(big.Int).SetString(p.Calls[1].Args[0], 10)
	if !ok {
		t.Fatalf("amountIn arg: %s", p.Calls[1].Args[0])
	}
	minOut, ok := new(big.Int).SetString(p.Calls[1].Args[1], 10)
	if !ok {
		t.Fatalf("minOut arg: %s", p.Calls[1].Args[1])
	}
	if minOut.Cmp(amountIn) > 0 {
		t.Fatalf("minOut %s exceeds amountIn %s", minOut, amountIn)
	}
	// 95% of 10 tokens at 18 decimals.
	want, _ := new(big.Int).SetString("9500000000000000000", 10)
	if minOut.Cmp(want) != 0 {
		t.Fatalf("minOut = %s, want %s", minOut, want)
	}
}

func TestBuildSwapQuotedMinOut(t *testing.T) {
	quoted := big.NewInt(4_000_000)
	b := newTestBuilder(t, BuilderConfig{
		Quote: func(_ context.Context, _, _ registry.Token, _ *big.Int) (*big.Int, error) {
			return quoted, nil
		},
	})

	p, err := b.BuildSwap(context.Background(), &instruction.Swap{
		AmountIn: "10", TokenIn: "TKNA", TokenOut: "TKNB",
	})
	if err != nil {
		t.Fatalf("BuildSwap: %v", err)
	}
	minOut, _ := new(big.Int).SetString(p.Calls[1].Args[1], 10)
	if minOut.Cmp(big.NewInt(3_800_000)) != 0 {
		t.Fatalf("minOut = %s, want 95%% of the quote", minOut)
	}
}

func TestBuildSwapDeadlineSharedAndFixed(t *testing.T) {
	b := newTestBuilder(t, BuilderConfig{})

	p, err := b.BuildSwap(context.Background(), &instruction.Swap{
		AmountIn: "1", TokenIn: "TKNA", TokenOut: "TKNB",
	})
	if err != nil {
		t.Fatalf("BuildSwap: %v", err)
	}
	want := big.NewInt(fixedNow().Unix() + 1200)
	if p.Deadline.Cmp(want) != 0 {
		t.Fatalf("deadline = %s, want %s", p.Deadline, want)
	}
	if p.Calls[1].Args[len(p.Calls[1].Args)-1] != want.String() {
		t.Fatalf("swap call must carry the plan deadline")
	}
}

func TestBuildAddLiquidityShape(t *testing.T) {
	b := newTestBuilder(t, BuilderConfig{})

	p, err := b.BuildAddLiquidity(context.Background(), &instruction.AddLiquidity{
		TokenA: "TKNA", AmountA: "100", TokenB: "TKNB", AmountB: "40",
	})
	if err != nil {
		t.Fatalf("BuildAddLiquidity: %v", err)
	}
	if len(p.Calls) != 3 {
		t.Fatalf("call count = %d, want 3", len(p.Calls))
	}
	if p.Calls[0].Method != "approve" || p.Calls[1].Method != "approve" {
		t.Fatalf("both approvals must precede the deposit")
	}
	if p.Calls[2].Method != "addLiquidity" || p.Calls[2].Target != testRouter {
		t.Fatalf("last call mismatch: %+v", p.Calls[2])
	}

	// minA = 95, minB = 38 at 18 decimals.
	minA, _ := new(big.Int).SetString(p.Calls[2].Args[4], 10)
	wantA, _ := new(big.Int).SetString("95000000000000000000", 10)
	if minA.Cmp(wantA) != 0 {
		t.Fatalf("minA = %s, want %s", minA, wantA)
	}
}

type fixedBalance struct {
	balance *big.Int
}

func (f fixedBalance) BalanceOf(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return f.balance, nil
}

func TestBuildRemoveLiquidityBalanceCheck(t *testing.T) {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	b := newTestBuilder(t, BuilderConfig{Balances: fixedBalance{balance: one}})

	_, err := b.BuildRemoveLiquidity(context.Background(), &instruction.RemoveLiquidity{
		TokenA: "TKNA", TokenB: "TKNB", Amount: "2",
	})
	var insufficient *InsufficientLPBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientLPBalanceError, got %v", err)
	}
}

func TestBuildRemoveLiquidityShape(t *testing.T) {
	ten := new(big.Int).Mul(big.NewInt(10), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	b := newTestBuilder(t, BuilderConfig{Balances: fixedBalance{balance: ten}})

	p, err := b.BuildRemoveLiquidity(context.Background(), &instruction.RemoveLiquidity{
		TokenA: "TKNA", TokenB: "TKNB", Amount: "2",
	})
	if err != nil {
		t.Fatalf("BuildRemoveLiquidity: %v", err)
	}
	if len(p.Calls) != 2 {
		t.Fatalf("call count = %d, want 2", len(p.Calls))
	}
	pool, _ := registry.Default().Pool("TKNA", "TKNB")
	if p.Calls[0].Target != pool.Address {
		t.Fatalf("approval must target the LP token (the pair contract)")
	}
	if p.Calls[1].Method != "removeLiquidity" {
		t.Fatalf("last call = %s", p.Calls[1].Method)
	}
	// Redemption minimums are zero.
	if p.Calls[1].Args[3] != "0" || p.Calls[1].Args[4] != "0" {
		t.Fatalf("removal minimums must be zero: %+v", p.Calls[1].Args)
	}
}

func TestBuildMissingFields(t *testing.T) {
	b := newTestBuilder(t, BuilderConfig{})

	_, err := b.BuildSwap(context.Background(), &instruction.Swap{AmountIn: "1", TokenIn: "TKNA"})
	var missing *instruction.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

func TestReserveQuoteOrientsReserves(t *testing.T) {
	reg := registry.Default()
	pool := reg.DefaultPool()
	reader := staticReserves{snapshot: chain.ReserveSnapshot{
		Reserve0: big.NewInt(200),
		Reserve1: big.NewInt(50),
	}}
	quote := ReserveQuote(reader, reg)

	out, err := quote(context.Background(), pool.Token0, pool.Token1, big.NewInt(20))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 50*20/(200+20) = 4 (integer division).
	if out.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("out = %s, want 4", out)
	}

	reversed, err := quote(context.Background(), pool.Token1, pool.Token0, big.NewInt(50))
	if err != nil {
		t.Fatalf("reverse quote: %v", err)
	}
	// 200*50/(50+50) = 100.
	if reversed.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("reversed out = %s, want 100", reversed)
	}
}

type staticReserves struct {
	snapshot chain.ReserveSnapshot
}

func (s staticReserves) GetReserves(_ context.Context, _ common.Address) (chain.ReserveSnapshot, error) {
	return s.snapshot, nil
}

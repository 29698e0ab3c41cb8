package plan

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/dex"
	"swapscope/internal/instruction"
	"swapscope/internal/registry"
	"swapscope/internal/units"
)

// DefaultSlippageBps is 5% of the desired amount.
const DefaultSlippageBps = 500

// DefaultDeadlineTTL is how far past build time every deadline-carrying
// call stays valid.
const DefaultDeadlineTTL = 1200 * time.Second

const bpsDenominator = 10000

// BalanceReader supplies token balances for pre-flight checks.
// chain.Client satisfies it.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// QuoteFunc estimates the output amount for a swap so the minimum-out
// bound can be expressed in the OUTPUT token's units. A nil quote falls
// back to the input-amount approximation (95% of amountIn, in tokenIn
// units).
type QuoteFunc func(ctx context.Context, tokenIn, tokenOut registry.Token, amountIn *big.Int) (*big.Int, error)

// BuilderConfig wires a Builder. Router and Caller are required;
// everything else has a default.
type BuilderConfig struct {
	Registry    *registry.Registry
	Router      common.Address
	Caller      common.Address
	SlippageBps int64
	DeadlineTTL time.Duration
	Quote       QuoteFunc
	Balances    BalanceReader
	Now         func() time.Time
}

// Builder produces transaction plans for the mutating instruction
// variants.
type Builder struct {
	reg         *registry.Registry
	router      common.Address
	caller      common.Address
	slippageBps int64
	ttl         time.Duration
	quote       QuoteFunc
	balances    BalanceReader
	now         func() time.Time
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Router == (common.Address{}) {
		return nil, ErrMissingRouterAddress
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("builder needs a token registry")
	}
	b := &Builder{
		reg:         cfg.Registry,
		router:      cfg.Router,
		caller:      cfg.Caller,
		slippageBps: cfg.SlippageBps,
		ttl:         cfg.DeadlineTTL,
		quote:       cfg.Quote,
		balances:    cfg.Balances,
		now:         cfg.Now,
	}
	if b.slippageBps <= 0 {
		b.slippageBps = DefaultSlippageBps
	}
	if b.slippageBps >= bpsDenominator {
		return nil, fmt.Errorf("slippage %d bps leaves no minimum output; must be below %d", b.slippageBps, bpsDenominator)
	}
	if b.ttl <= 0 {
		b.ttl = DefaultDeadlineTTL
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// Build dispatches on the instruction's variant. Query and Unsupported
// instructions have no plan.
func (b *Builder) Build(ctx context.Context, inst instruction.Instruction) (Plan, error) {
	switch inst.Kind {
	case instruction.KindSwap:
		return b.BuildSwap(ctx, inst.Swap)
	case instruction.KindAddLiquidity:
		return b.BuildAddLiquidity(ctx, inst.AddLiquidity)
	case instruction.KindRemoveLiquidity:
		return b.BuildRemoveLiquidity(ctx, inst.RemoveLiquidity)
	default:
		return Plan{}, fmt.Errorf("no plan for instruction kind %s", inst.Kind)
	}
}

// BuildSwap produces [approve(tokenIn, amountIn), swapExactTokensForTokens].
func (b *Builder) BuildSwap(ctx context.Context, swap *instruction.Swap) (Plan, error) {
	if swap == nil {
		return Plan{}, &instruction.MissingFieldError{Field: "swap"}
	}
	tokenIn, err := b.token(swap.TokenIn, "tokenIn")
	if err != nil {
		return Plan{}, err
	}
	tokenOut, err := b.token(swap.TokenOut, "tokenOut")
	if err != nil {
		return Plan{}, err
	}

	amountIn, err := units.ToFixedPoint(swap.AmountIn, tokenIn.Decimals)
	if err != nil {
		return Plan{}, err
	}

	minOut, err := b.minOut(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return Plan{}, err
	}

	deadline := b.deadline()
	path := []common.Address{tokenIn.Address, tokenOut.Address}

	approveData, err := dex.PackApprove(b.router, amountIn)
	if err != nil {
		return Plan{}, err
	}
	swapData, err := dex.PackSwapExactTokensForTokens(amountIn, minOut, path, b.caller, deadline)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Deadline: deadline,
		Calls: []Call{
			{
				Target: tokenIn.Address,
				Method: "approve",
				Args:   []string{b.router.Hex(), amountIn.String()},
				Data:   approveData,
			},
			{
				Target: b.router,
				Method: "swapExactTokensForTokens",
				Args: []string{
					amountIn.String(), minOut.String(),
					tokenIn.Symbol + ">" + tokenOut.Symbol,
					b.caller.Hex(), deadline.String(),
				},
				Data: swapData,
			},
		},
	}, nil
}

// BuildAddLiquidity produces [approve(tokenA), approve(tokenB), addLiquidity]
// with both minimums at 95% of the desired amounts.
func (b *Builder) BuildAddLiquidity(ctx context.Context, add *instruction.AddLiquidity) (Plan, error) {
	if add == nil {
		return Plan{}, &instruction.MissingFieldError{Field: "addLiquidity"}
	}
	tokenA, err := b.token(add.TokenA, "tokenA")
	if err != nil {
		return Plan{}, err
	}
	tokenB, err := b.token(add.TokenB, "tokenB")
	if err != nil {
		return Plan{}, err
	}

	amountA, err := units.ToFixedPoint(add.AmountA, tokenA.Decimals)
	if err != nil {
		return Plan{}, err
	}
	amountB, err := units.ToFixedPoint(add.AmountB, tokenB.Decimals)
	if err != nil {
		return Plan{}, err
	}

	minA := b.applySlippage(amountA)
	minB := b.applySlippage(amountB)
	deadline := b.deadline()

	approveAData, err := dex.PackApprove(b.router, amountA)
	if err != nil {
		return Plan{}, err
	}
	approveBData, err := dex.PackApprove(b.router, amountB)
	if err != nil {
		return Plan{}, err
	}
	addData, err := dex.PackAddLiquidity(tokenA.Address, tokenB.Address, amountA, amountB, minA, minB, b.caller, deadline)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Deadline: deadline,
		Calls: []Call{
			{
				Target: tokenA.Address,
				Method: "approve",
				Args:   []string{b.router.Hex(), amountA.String()},
				Data:   approveAData,
			},
			{
				Target: tokenB.Address,
				Method: "approve",
				Args:   []string{b.router.Hex(), amountB.String()},
				Data:   approveBData,
			},
			{
				Target: b.router,
				Method: "addLiquidity",
				Args: []string{
					tokenA.Symbol, tokenB.Symbol,
					amountA.String(), amountB.String(),
					minA.String(), minB.String(),
					b.caller.Hex(), deadline.String(),
				},
				Data: addData,
			},
		},
	}, nil
}

// BuildRemoveLiquidity produces [approve(LP token), removeLiquidity] with
// zero minimums: redemption carries no slippage protection. The caller's
// LP balance is checked before any call is issued, when a balance reader
// is wired.
func (b *Builder) BuildRemoveLiquidity(ctx context.Context, remove *instruction.RemoveLiquidity) (Plan, error) {
	if remove == nil {
		return Plan{}, &instruction.MissingFieldError{Field: "removeLiquidity"}
	}
	tokenA, err := b.token(remove.TokenA, "tokenA")
	if err != nil {
		return Plan{}, err
	}
	tokenB, err := b.token(remove.TokenB, "tokenB")
	if err != nil {
		return Plan{}, err
	}
	pool, ok := b.reg.Pool(tokenA.Symbol, tokenB.Symbol)
	if !ok {
		return Plan{}, fmt.Errorf("no pool for pair %s-%s", tokenA.Symbol, tokenB.Symbol)
	}

	// The pair contract is its own LP token, at the registry's default
	// precision.
	amount, err := units.ToFixedPoint(remove.Amount, registry.DefaultDecimals)
	if err != nil {
		return Plan{}, err
	}

	if b.balances != nil {
		balance, err := b.balances.BalanceOf(ctx, pool.Address, b.caller)
		if err != nil {
			return Plan{}, err
		}
		if balance.Cmp(amount) < 0 {
			return Plan{}, &InsufficientLPBalanceError{
				Requested: units.ToDecimalString(amount, registry.DefaultDecimals),
				Available: units.ToDecimalString(balance, registry.DefaultDecimals),
			}
		}
	}

	deadline := b.deadline()
	zero := big.NewInt(0)

	approveData, err := dex.PackApprove(b.router, amount)
	if err != nil {
		return Plan{}, err
	}
	removeData, err := dex.PackRemoveLiquidity(tokenA.Address, tokenB.Address, amount, zero, zero, b.caller, deadline)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Deadline: deadline,
		Calls: []Call{
			{
				Target: pool.Address,
				Method: "approve",
				Args:   []string{b.router.Hex(), amount.String()},
				Data:   approveData,
			},
			{
				Target: b.router,
				Method: "removeLiquidity",
				Args: []string{
					tokenA.Symbol, tokenB.Symbol, amount.String(),
					"0", "0", b.caller.Hex(), deadline.String(),
				},
				Data: removeData,
			},
		},
	}, nil
}

func (b *Builder) token(symbol, field string) (registry.Token, error) {
	if symbol == "" {
		return registry.Token{}, &instruction.MissingFieldError{Field: field}
	}
	token, ok := b.reg.Token(symbol)
	if !ok {
		return registry.Token{}, &instruction.UnknownTokenError{Symbol: symbol}
	}
	return token, nil
}

// deadline is computed once per plan; every call in the plan shares it.
func (b *Builder) deadline() *big.Int {
	return big.NewInt(b.now().Add(b.ttl).Unix())
}

func (b *Builder) applySlippage(amount *big.Int) *big.Int {
	kept := big.NewInt(bpsDenominator - b.slippageBps)
	out := new(big.Int).Mul(amount, kept)
	return out.Div(out, big.NewInt(bpsDenominator))
}

// minOut bounds the swap output. With a quote wired it is slippage off
// the quoted output, in tokenOut units; without one it falls back to
// slippage off the INPUT amount, a unit-mismatch approximation kept for
// compatibility.
func (b *Builder) minOut(ctx context.Context, tokenIn, tokenOut registry.Token, amountIn *big.Int) (*big.Int, error) {
	if b.quote == nil {
		return b.applySlippage(amountIn), nil
	}
	quoted, err := b.quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	return b.applySlippage(quoted), nil
}

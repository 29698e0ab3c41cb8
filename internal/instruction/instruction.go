// Package instruction turns language-model output and form submissions
// into a closed set of typed instructions. Everything downstream (the
// plan builder, the analytics engine) consumes these types and nothing
// else.
package instruction

import "swapscope/internal/analytics"

// Kind tags the active variant of an Instruction.
type Kind string

const (
	KindSwap            Kind = "swap"
	KindAddLiquidity    Kind = "add_liquidity"
	KindRemoveLiquidity Kind = "remove_liquidity"
	KindQuery           Kind = "query"
	KindUnsupported     Kind = "unsupported"
)

// Swap moves amountIn of TokenIn into TokenOut through the router.
// AmountIn is a validated decimal string in display units.
type Swap struct {
	AmountIn string
	TokenIn  string
	TokenOut string
}

// AddLiquidity deposits both sides of a pair.
type AddLiquidity struct {
	TokenA  string
	AmountA string
	TokenB  string
	AmountB string
}

// RemoveLiquidity redeems LP tokens for the underlying pair. Amount is
// the LP token amount, not either underlying.
type RemoveLiquidity struct {
	TokenA string
	TokenB string
	Amount string
}

// Instruction is a tagged union: exactly one variant field is non-nil
// (or, for KindUnsupported, Reason is set). Callers must switch on Kind
// and not touch the other fields.
type Instruction struct {
	Kind            Kind
	Swap            *Swap
	AddLiquidity    *AddLiquidity
	RemoveLiquidity *RemoveLiquidity
	Query           *analytics.Query
	Reason          string
}

package plan

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapscope/internal/chain"
	"swapscope/internal/registry"
)

// ReserveReader supplies current pool reserves. chain.Client satisfies
// it.
type ReserveReader interface {
	GetReserves(ctx context.Context, pool common.Address) (chain.ReserveSnapshot, error)
}

// ReserveQuote builds a QuoteFunc from live reserves using the
// constant-product identity: out = reserveOut·dx / (reserveIn + dx).
// Fees are ignored; the slippage tolerance absorbs them.
func ReserveQuote(reader ReserveReader, reg *registry.Registry) QuoteFunc {
	return func(ctx context.Context, tokenIn, tokenOut registry.Token, amountIn *big.Int) (*big.Int, error) {
		pool, ok := reg.Pool(tokenIn.Symbol, tokenOut.Symbol)
		if !ok {
			return nil, fmt.Errorf("no pool for pair %s-%s", tokenIn.Symbol, tokenOut.Symbol)
		}
		snapshot, err := reader.GetReserves(ctx, pool.Address)
		if err != nil {
			return nil, err
		}

		reserveIn, reserveOut := snapshot.Reserve0, snapshot.Reserve1
		if pool.Token0.Symbol != tokenIn.Symbol {
			reserveIn, reserveOut = reserveOut, reserveIn
		}

		denominator := new(big.Int).Add(reserveIn, amountIn)
		if denominator.Sign() == 0 {
			return nil, fmt.Errorf("pool %s has no %s reserve", pool.Address.Hex(), tokenIn.Symbol)
		}
		out := new(big.Int).Mul(reserveOut, amountIn)
		return out.Div(out, denominator), nil
	}
}

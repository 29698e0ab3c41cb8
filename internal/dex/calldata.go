package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Calldata packers for the write surface. Argument order and typing here are
// part of the contract interface: the router rejects anything else.

// PackApprove encodes approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	tokenABI, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	data, err := tokenABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}

// PackSwapExactTokensForTokens encodes the router swap call.
func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	routerABI, err := V2RouterABI()
	if err != nil {
		return nil, err
	}
	data, err := routerABI.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return nil, fmt.Errorf("pack swapExactTokensForTokens: %w", err)
	}
	return data, nil
}

// PackAddLiquidity encodes the router addLiquidity call.
func PackAddLiquidity(tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) ([]byte, error) {
	routerABI, err := V2RouterABI()
	if err != nil {
		return nil, err
	}
	data, err := routerABI.Pack("addLiquidity", tokenA, tokenB, amountADesired, amountBDesired, amountAMin, amountBMin, to, deadline)
	if err != nil {
		return nil, fmt.Errorf("pack addLiquidity: %w", err)
	}
	return data, nil
}

// PackRemoveLiquidity encodes the router removeLiquidity call.
func PackRemoveLiquidity(tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) ([]byte, error) {
	routerABI, err := V2RouterABI()
	if err != nil {
		return nil, err
	}
	data, err := routerABI.Pack("removeLiquidity", tokenA, tokenB, liquidity, amountAMin, amountBMin, to, deadline)
	if err != nil {
		return nil, fmt.Errorf("pack removeLiquidity: %w", err)
	}
	return data, nil
}

package instruction

import (
	"encoding/json"
	"errors"
	"testing"

	"swapscope/internal/analytics"
	"swapscope/internal/llm"
	"swapscope/internal/registry"
)

func TestNormalizeModelSwap(t *testing.T) {
	payload := json.RawMessage(`{
		"function": "swapExactTokensForTokens",
		"arguments": {"amountIn": 1.5, "tokenIn": "tkna", "tokenOut": "TKNB"}
	}`)
	inst, err := NormalizeModelResponse("swap 1.5 TKNA for TKNB", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Kind != KindSwap {
		t.Fatalf("kind = %s, want %s", inst.Kind, KindSwap)
	}
	if inst.Swap.AmountIn != "1.5" || inst.Swap.TokenIn != "TKNA" || inst.Swap.TokenOut != "TKNB" {
		t.Fatalf("swap fields mismatch: %+v", inst.Swap)
	}
}

func TestNormalizeModelAddLiquidity(t *testing.T) {
	payload := json.RawMessage(`{
		"function": "addLiquidity",
		"arguments": {"tokenA": "TKNA", "tokenB": "TKNB", "amountADesired": "1,000", "amountBDesired": 250}
	}`)
	inst, err := NormalizeModelResponse("deposit 1,000 TKNA and 250 TKNB", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Kind != KindAddLiquidity {
		t.Fatalf("kind = %s, want %s", inst.Kind, KindAddLiquidity)
	}
	if inst.AddLiquidity.AmountA != "1000" {
		t.Fatalf("thousands separator not stripped: %s", inst.AddLiquidity.AmountA)
	}
	if inst.AddLiquidity.AmountB != "250" {
		t.Fatalf("numeric amount mismatch: %s", inst.AddLiquidity.AmountB)
	}
}

func TestNormalizeUnsupportedScreensRawInput(t *testing.T) {
	// The model fabricated a valid-looking query; the raw text still
	// wins.
	payload := json.RawMessage(`{"type": "price", "pool": "TKNA-TKNB"}`)
	inst, err := NormalizeModelResponse("predict the price of TKNB in TKNA next week", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Kind != KindUnsupported {
		t.Fatalf("kind = %s, want %s", inst.Kind, KindUnsupported)
	}
	if inst.Reason == "" {
		t.Fatalf("unsupported instruction needs a reason")
	}
}

func TestNormalizeModelQueryDefaults(t *testing.T) {
	payload := json.RawMessage(`{"type": "swaps", "pool": "TKNA-TKNB"}`)
	inst, err := NormalizeModelResponse("how many swaps happened", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Kind != KindQuery {
		t.Fatalf("kind = %s, want %s", inst.Kind, KindQuery)
	}
	if inst.Query.Kind != analytics.QuerySwaps {
		t.Fatalf("query kind = %s", inst.Query.Kind)
	}
	if inst.Query.Timeframe != "today" {
		t.Fatalf("default timeframe = %s, want today", inst.Query.Timeframe)
	}
	if inst.Query.TokenA != "TKNA" || inst.Query.TokenB != "TKNB" {
		t.Fatalf("pool pair mismatch: %+v", inst.Query)
	}
}

func TestNormalizeModelQueryPeriodFallback(t *testing.T) {
	payload := json.RawMessage(`{"type": "price_history", "period": "month"}`)
	inst, err := NormalizeModelResponse("price history over the month", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Query.Timeframe != "month" {
		t.Fatalf("timeframe = %s, want month", inst.Query.Timeframe)
	}
}

func TestNormalizeModelQueryPriceImpact(t *testing.T) {
	payload := json.RawMessage(`{"type": "price_impact", "pool": "TKNA-TKNB", "amount": "20", "token": "TKNA"}`)
	inst, err := NormalizeModelResponse("impact of swapping 20 TKNA", payload, registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Query.Amount != "20" || inst.Query.Token != "TKNA" {
		t.Fatalf("price impact fields mismatch: %+v", inst.Query)
	}
}

func TestNormalizeModelQueryPriceImpactMissingToken(t *testing.T) {
	payload := json.RawMessage(`{"type": "price_impact", "amount": "20"}`)
	_, err := NormalizeModelResponse("impact of swapping 20", payload, registry.Default())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

func TestNormalizeModelUnknownShape(t *testing.T) {
	payload := json.RawMessage(`{"answer": "the price is 42"}`)
	_, err := NormalizeModelResponse("what is the price", payload, registry.Default())
	var respErr *llm.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected *llm.ResponseError, got %v", err)
	}
}

func TestNormalizeModelUnknownFunction(t *testing.T) {
	payload := json.RawMessage(`{"function": "flashLoan", "arguments": {}}`)
	_, err := NormalizeModelResponse("take a flash loan", payload, registry.Default())
	var respErr *llm.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected *llm.ResponseError, got %v", err)
	}
}

func TestNormalizeSwapFormUnknownToken(t *testing.T) {
	_, err := NormalizeSwapForm("5", "WETH", "TKNB", registry.Default())
	var unknown *UnknownTokenError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTokenError, got %v", err)
	}
	if unknown.Symbol != "WETH" {
		t.Fatalf("symbol = %s, want WETH", unknown.Symbol)
	}
}

func TestNormalizeSwapFormBadAmount(t *testing.T) {
	for _, raw := range []string{"abc", "1.2.3", ".", "1.", "-5", ""} {
		_, err := NormalizeSwapForm(raw, "TKNA", "TKNB", registry.Default())
		if err == nil {
			t.Fatalf("amount %q should be rejected", raw)
		}
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1,234.5", "1234.5"},
		{"0.001", "0.001"},
		{".5", ".5"},
		{"42", "42"},
		{" 7 ", "7"},
	}
	for _, tc := range cases {
		got, err := NormalizeAmount(tc.raw)
		if err != nil {
			t.Fatalf("NormalizeAmount(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeAmount(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRemoveLiquidityForm(t *testing.T) {
	inst, err := NormalizeRemoveLiquidityForm("tkna", "tknb", "3.5", registry.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Kind != KindRemoveLiquidity {
		t.Fatalf("kind = %s", inst.Kind)
	}
	if inst.RemoveLiquidity.TokenA != "TKNA" || inst.RemoveLiquidity.TokenB != "TKNB" {
		t.Fatalf("symbols not canonicalized: %+v", inst.RemoveLiquidity)
	}
}

func TestNormalizeRemoveLiquidityFormMissingAmount(t *testing.T) {
	_, err := NormalizeRemoveLiquidityForm("TKNA", "TKNB", "", registry.Default())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

// Package units converts between human decimal amounts and the fixed-point
// integer amounts the chain contracts expect.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxDisplayDigits bounds the fractional digits shown by ToDecimalString.
const MaxDisplayDigits = 6

// ToFixedPoint converts a decimal string into an integer amount scaled by
// 10^decimals. The input must already match the strict decimal pattern
// enforced at the instruction boundary; an empty string converts to zero.
// Fractional digits beyond the token precision are rejected rather than
// silently truncated.
func ToFixedPoint(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return big.NewInt(0), nil
	}

	whole := amount
	frac := ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole = amount[:idx]
		frac = amount[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d fractional digits", amount, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount: %s", amount)
	}
	return value, nil
}

// ToDecimalString renders a fixed-point amount as a decimal string,
// truncating (not rounding) the fraction to MaxDisplayDigits and dropping a
// wholly-zero fractional part.
func ToDecimalString(amount *big.Int, decimals uint8) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	if decimals == 0 {
		return sign + abs.String()
	}

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, rem := new(big.Int).QuoRem(abs, denom, new(big.Int))

	frac := fmt.Sprintf("%0*s", decimals, rem.String())
	if len(frac) > MaxDisplayDigits {
		frac = frac[:MaxDisplayDigits]
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return sign + whole.String()
	}
	return sign + whole.String() + "." + frac
}

// ToFloat renders a fixed-point amount as a float64 for chart sampling and
// ratio math. Precision loss beyond float64 range is acceptable there.
func ToFloat(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	value := new(big.Float).SetInt(amount)
	if decimals > 0 {
		denom := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
		value.Quo(value, denom)
	}
	out, _ := value.Float64()
	return out
}

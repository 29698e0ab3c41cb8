package analytics

import (
	"fmt"
	"math"
)

// Chart sampling is pure numeric work: no chain reads, no registry.

// DefaultCurveSamples is the sample count for the constant-product curve.
const DefaultCurveSamples = 200

// DefaultImpactSteps is the step count for the price-impact curve.
const DefaultImpactSteps = 50

// maxImpactFraction caps the impact curve at 25% of the source reserve.
const maxImpactFraction = 0.25

// CurvePoint is one (x, y) sample on the constant-product curve.
type CurvePoint struct {
	X float64
	Y float64
}

// ConstantProductCurve samples y = (r0*r1)/x for x in [0.1*r0, 2*r0]. The
// pool's current position is the point (r0, r1) on the same curve.
func ConstantProductCurve(r0, r1 float64, n int) ([]CurvePoint, error) {
	if r0 <= 0 || r1 <= 0 {
		return nil, fmt.Errorf("reserves must be positive, got (%v, %v)", r0, r1)
	}
	if n < 2 {
		n = DefaultCurveSamples
	}

	k := r0 * r1
	minX := r0 * 0.1
	maxX := r0 * 2

	points := make([]CurvePoint, 0, n)
	for i := 0; i < n; i++ {
		x := minX + (maxX-minX)*float64(i)/float64(n-1)
		points = append(points, CurvePoint{X: x, Y: k / x})
	}
	return points, nil
}

// ImpactPoint is one sample on the price-impact curve.
type ImpactPoint struct {
	PercentOfReserve float64
	ImpactPercent    float64
}

// PriceImpact computes the relative price change caused by swapping
// amountIn into the pool, holding x*y = k constant. The sign follows the
// pre-trade price of the incoming token: a positive result means the
// incoming token now buys less of the other.
func PriceImpact(r0, r1, amountIn float64, fromToken0 bool) (float64, error) {
	if r0 <= 0 || r1 <= 0 {
		return 0, ErrDivisionByZero
	}
	if amountIn == 0 {
		return 0, nil
	}

	k := r0 * r1
	var oldPrice, newPrice float64
	if fromToken0 {
		oldPrice = r1 / r0
		newR0 := r0 + amountIn
		newR1 := k / newR0
		newPrice = newR1 / newR0
	} else {
		oldPrice = r0 / r1
		newR1 := r1 + amountIn
		newR0 := k / newR1
		newPrice = newR0 / newR1
	}

	return (oldPrice - newPrice) / oldPrice * 100, nil
}

// PriceImpactCurve samples the impact of swap sizes from 0% to 25% of the
// source reserve in n fixed steps (n+1 points including zero).
func PriceImpactCurve(r0, r1 float64, n int, fromToken0 bool) ([]ImpactPoint, error) {
	if r0 <= 0 || r1 <= 0 {
		return nil, fmt.Errorf("reserves must be positive, got (%v, %v)", r0, r1)
	}
	if n < 1 {
		n = DefaultImpactSteps
	}

	fromReserve := r0
	if !fromToken0 {
		fromReserve = r1
	}
	maxAmount := fromReserve * maxImpactFraction
	step := maxAmount / float64(n)

	points := make([]ImpactPoint, 0, n+1)
	for i := 0; i <= n; i++ {
		amount := float64(i) * step
		impact, err := PriceImpact(r0, r1, amount, fromToken0)
		if err != nil {
			return nil, err
		}
		points = append(points, ImpactPoint{
			PercentOfReserve: amount / fromReserve * 100,
			ImpactPercent:    impact,
		})
	}
	return points, nil
}

// ImpactCurveIndex locates a swap amount on an n-step impact curve, so a
// renderer can mark "your swap". Returns -1 when the amount is zero or
// beyond the curve's 25% range.
func ImpactCurveIndex(amount, fromReserve float64, n int) int {
	if amount <= 0 || fromReserve <= 0 {
		return -1
	}
	fraction := amount / fromReserve
	if fraction > maxImpactFraction {
		return -1
	}
	return int(math.Round(fraction / maxImpactFraction * float64(n)))
}

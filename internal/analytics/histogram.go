package analytics

import "fmt"

// DefaultHistogramBins is the bin count for the price distribution chart.
const DefaultHistogramBins = 12

// HistogramBin is one equal-width price bucket.
type HistogramBin struct {
	LowerBound float64
	Count      int
}

// Histogram is the binned price distribution. CurrentBin indexes the bin
// holding the most recent observed price.
type Histogram struct {
	Bins       []HistogramBin
	BinWidth   float64
	CurrentBin int
}

// BinPrices buckets observed swap prices into binCount equal-width bins
// spanning [min*0.95, max*1.05]. The input order matters only for the last
// element, which is treated as the current price.
func BinPrices(prices []float64, binCount int) (Histogram, error) {
	if len(prices) == 0 {
		return Histogram{}, fmt.Errorf("no prices to bin")
	}
	if binCount < 1 {
		binCount = DefaultHistogramBins
	}

	minPrice, maxPrice := prices[0], prices[0]
	for _, price := range prices[1:] {
		if price < minPrice {
			minPrice = price
		}
		if price > maxPrice {
			maxPrice = price
		}
	}

	lower := minPrice * 0.95
	upper := maxPrice * 1.05
	width := (upper - lower) / float64(binCount)
	if width <= 0 {
		// All observations are the same non-positive price; a single
		// degenerate bin holds everything.
		width = 1
	}

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		bins[i].LowerBound = lower + float64(i)*width
	}

	for _, price := range prices {
		idx := binIndex(price, lower, width, binCount)
		if idx >= 0 {
			bins[idx].Count++
		}
	}

	current := binIndex(prices[len(prices)-1], lower, width, binCount)

	return Histogram{Bins: bins, BinWidth: width, CurrentBin: current}, nil
}

func binIndex(price, lower, width float64, binCount int) int {
	idx := int((price - lower) / width)
	if idx < 0 {
		return -1
	}
	if idx >= binCount {
		idx = binCount - 1
	}
	return idx
}

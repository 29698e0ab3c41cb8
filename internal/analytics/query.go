package analytics

// QueryKind enumerates the read-only questions the engine can answer.
type QueryKind string

const (
	QueryReserves     QueryKind = "reserves"
	QuerySwaps        QueryKind = "swaps"
	QueryPrice        QueryKind = "price"
	QueryPriceHistory QueryKind = "price_history"
	QueryLiquidity    QueryKind = "liquidity"
	QueryVolume       QueryKind = "volume"
	QueryPriceImpact  QueryKind = "price_impact"
)

// KnownQueryKind reports whether kind is in the closed set.
func KnownQueryKind(kind QueryKind) bool {
	switch kind {
	case QueryReserves, QuerySwaps, QueryPrice, QueryPriceHistory,
		QueryLiquidity, QueryVolume, QueryPriceImpact:
		return true
	default:
		return false
	}
}

// Query is one analytics question. TokenA/TokenB optionally name the pair;
// when empty the engine falls back to the default pool. Timeframe applies to
// swaps/volume/price history; Amount and Token only to price impact.
type Query struct {
	Kind      QueryKind
	TokenA    string
	TokenB    string
	Timeframe string
	Amount    string
	Token     string
}

// Result pairs the query kind with its payload. The kind is always set so a
// renderer can show a typed empty or error state; Err and Data are mutually
// exclusive. Results live for one interaction and are never persisted.
type Result struct {
	Kind QueryKind
	Data interface{}
	Err  error
}

func errorResult(kind QueryKind, err error) Result {
	return Result{Kind: kind, Err: err}
}

// ReservesData is the payload for QueryReserves.
type ReservesData struct {
	Pool     string
	Token0   string
	Token1   string
	Reserve0 string
	Reserve1 string
}

// PriceData is the payload for QueryPrice: token0 per token1.
type PriceData struct {
	Token0 string
	Token1 string
	Price  float64
}

// SwapsData is the payload for QuerySwaps.
type SwapsData struct {
	Timeframe   string
	Count       int
	AverageSize float64
}

// PricePoint is one observation in a price history series. Timestamp is
// the unix time of the observation's block.
type PricePoint struct {
	BlockNumber uint64
	Timestamp   uint64
	Price       float64
}

// PriceHistoryData is the payload for QueryPriceHistory, ordered by block.
type PriceHistoryData struct {
	Period string
	Points []PricePoint
}

// LiquidityData is the payload for QueryLiquidity. The product of the two
// reserves is a depth proxy, not a USD or LP-share value.
type LiquidityData struct {
	TotalLiquidity float64
}

// VolumeData is the payload for QueryVolume: sum of amount0In+amount1In
// over the in-range swaps.
type VolumeData struct {
	Timeframe string
	Volume    float64
	Count     int
}

// PriceImpactData is the payload for QueryPriceImpact.
type PriceImpactData struct {
	Amount        string
	Token         string
	ImpactPercent float64
}

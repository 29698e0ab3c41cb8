package instruction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"swapscope/internal/analytics"
	"swapscope/internal/llm"
	"swapscope/internal/registry"
)

// amountPattern is the strict decimal shape accepted after thousands
// separators are stripped: digits, or digits around a single dot, with
// at least one digit on the fractional side.
var amountPattern = regexp.MustCompile(`^(\d+|\d*\.\d+)$`)

// unsupportedPhrases are capability gaps, matched on the RAW user text
// rather than the model output: the model happily fabricates a
// plausible-looking answer for questions the system cannot compute.
var unsupportedPhrases = []string{
	"predict",
	"optimal",
	"arbitrage",
	"impermanent loss",
	"best time",
}

// defaultTimeframes is the fixed per-kind fallback for queries that
// omit a timeframe or period.
var defaultTimeframes = map[analytics.QueryKind]string{
	analytics.QuerySwaps:        "today",
	analytics.QueryVolume:       "24h",
	analytics.QueryPriceHistory: "week",
}

// screenUnsupported classifies raw input that asks for prediction,
// optimization, arbitrage discovery, impermanent-loss estimation, or
// timing advice.
func screenUnsupported(rawInput string) (string, bool) {
	lowered := strings.ToLower(rawInput)
	for _, phrase := range unsupportedPhrases {
		if strings.Contains(lowered, phrase) {
			return fmt.Sprintf("cannot answer %q: the system does not do prediction, optimization, or arbitrage analysis", phrase), true
		}
	}
	return "", false
}

// NormalizeAmount strips thousands separators and validates the strict
// decimal pattern.
func NormalizeAmount(raw string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if !amountPattern.MatchString(cleaned) {
		return "", &InvalidAmountFormatError{Raw: raw}
	}
	return cleaned, nil
}

func resolveSymbol(reg *registry.Registry, raw, field string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &MissingFieldError{Field: field}
	}
	token, ok := reg.Token(trimmed)
	if !ok {
		return "", &UnknownTokenError{Symbol: strings.ToUpper(trimmed)}
	}
	return token.Symbol, nil
}

// flexAmount tolerates the model emitting amounts as JSON numbers or
// strings; both land as the literal text.
type flexAmount string

func (f *flexAmount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexAmount(n.String())
	return nil
}

// modelEnvelope covers both upstream shapes: operations arrive as
// {"function", "arguments"}, read-only queries as {"type", ...}.
type modelEnvelope struct {
	Function  string          `json:"function"`
	Arguments json.RawMessage `json:"arguments"`

	Type      string     `json:"type"`
	Pool      string     `json:"pool"`
	Timeframe string     `json:"timeframe"`
	Period    string     `json:"period"`
	Amount    flexAmount `json:"amount"`
	Token     string     `json:"token"`
}

type swapArguments struct {
	AmountIn flexAmount `json:"amountIn"`
	TokenIn  string     `json:"tokenIn"`
	TokenOut string     `json:"tokenOut"`
}

type addLiquidityArguments struct {
	TokenA         string     `json:"tokenA"`
	TokenB         string     `json:"tokenB"`
	AmountADesired flexAmount `json:"amountADesired"`
	AmountBDesired flexAmount `json:"amountBDesired"`
}

// NormalizeModelResponse builds a typed instruction from the upstream
// model's JSON payload. rawInput is the user's original text; the
// unsupported-request screen runs against it before the payload is even
// parsed.
func NormalizeModelResponse(rawInput string, payload json.RawMessage, reg *registry.Registry) (Instruction, error) {
	if reason, unsupported := screenUnsupported(rawInput); unsupported {
		return Instruction{Kind: KindUnsupported, Reason: reason}, nil
	}

	var envelope modelEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("parse response: %v", err)}
	}

	switch {
	case envelope.Function != "":
		return normalizeOperation(envelope, reg)
	case envelope.Type != "":
		return normalizeQuery(envelope, reg)
	default:
		return Instruction{}, &llm.ResponseError{Reason: "response matches no known shape"}
	}
}

func normalizeOperation(envelope modelEnvelope, reg *registry.Registry) (Instruction, error) {
	switch envelope.Function {
	case "swapExactTokensForTokens":
		var args swapArguments
		if err := json.Unmarshal(envelope.Arguments, &args); err != nil {
			return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("parse swap arguments: %v", err)}
		}
		return NormalizeSwapForm(string(args.AmountIn), args.TokenIn, args.TokenOut, reg)
	case "addLiquidity":
		var args addLiquidityArguments
		if err := json.Unmarshal(envelope.Arguments, &args); err != nil {
			return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("parse addLiquidity arguments: %v", err)}
		}
		return NormalizeAddLiquidityForm(args.TokenA, string(args.AmountADesired), args.TokenB, string(args.AmountBDesired), reg)
	default:
		return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("unknown function: %s", envelope.Function)}
	}
}

func normalizeQuery(envelope modelEnvelope, reg *registry.Registry) (Instruction, error) {
	kind := analytics.QueryKind(strings.ToLower(strings.TrimSpace(envelope.Type)))
	if !analytics.KnownQueryKind(kind) {
		return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("unknown query type: %s", envelope.Type)}
	}

	query := analytics.Query{Kind: kind}

	if pair := strings.TrimSpace(envelope.Pool); pair != "" {
		sides := strings.SplitN(pair, "-", 2)
		if len(sides) != 2 {
			return Instruction{}, &llm.ResponseError{Reason: fmt.Sprintf("malformed pool pair: %s", pair)}
		}
		tokenA, err := resolveSymbol(reg, sides[0], "pool")
		if err != nil {
			return Instruction{}, err
		}
		tokenB, err := resolveSymbol(reg, sides[1], "pool")
		if err != nil {
			return Instruction{}, err
		}
		query.TokenA, query.TokenB = tokenA, tokenB
	}

	query.Timeframe = strings.TrimSpace(envelope.Timeframe)
	if query.Timeframe == "" {
		query.Timeframe = strings.TrimSpace(envelope.Period)
	}
	if query.Timeframe == "" {
		query.Timeframe = defaultTimeframes[kind]
	}

	if kind == analytics.QueryPriceImpact {
		if strings.TrimSpace(string(envelope.Amount)) == "" {
			return Instruction{}, &MissingFieldError{Field: "amount"}
		}
		amount, err := NormalizeAmount(string(envelope.Amount))
		if err != nil {
			return Instruction{}, err
		}
		token, err := resolveSymbol(reg, envelope.Token, "token")
		if err != nil {
			return Instruction{}, err
		}
		query.Amount, query.Token = amount, token
	}

	return Instruction{Kind: KindQuery, Query: &query}, nil
}

// NormalizeSwapForm validates form fields for a swap. The same shape
// backs the model path once its arguments are unpacked.
func NormalizeSwapForm(amountIn, tokenIn, tokenOut string, reg *registry.Registry) (Instruction, error) {
	if strings.TrimSpace(amountIn) == "" {
		return Instruction{}, &MissingFieldError{Field: "amountIn"}
	}
	amount, err := NormalizeAmount(amountIn)
	if err != nil {
		return Instruction{}, err
	}
	in, err := resolveSymbol(reg, tokenIn, "tokenIn")
	if err != nil {
		return Instruction{}, err
	}
	out, err := resolveSymbol(reg, tokenOut, "tokenOut")
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: KindSwap, Swap: &Swap{AmountIn: amount, TokenIn: in, TokenOut: out}}, nil
}

// NormalizeAddLiquidityForm validates form fields for a deposit.
func NormalizeAddLiquidityForm(tokenA, amountA, tokenB, amountB string, reg *registry.Registry) (Instruction, error) {
	if strings.TrimSpace(amountA) == "" {
		return Instruction{}, &MissingFieldError{Field: "amountADesired"}
	}
	if strings.TrimSpace(amountB) == "" {
		return Instruction{}, &MissingFieldError{Field: "amountBDesired"}
	}
	a, err := NormalizeAmount(amountA)
	if err != nil {
		return Instruction{}, err
	}
	b, err := NormalizeAmount(amountB)
	if err != nil {
		return Instruction{}, err
	}
	symbolA, err := resolveSymbol(reg, tokenA, "tokenA")
	if err != nil {
		return Instruction{}, err
	}
	symbolB, err := resolveSymbol(reg, tokenB, "tokenB")
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: KindAddLiquidity, AddLiquidity: &AddLiquidity{
		TokenA: symbolA, AmountA: a,
		TokenB: symbolB, AmountB: b,
	}}, nil
}

// NormalizeRemoveLiquidityForm validates form fields for a redemption.
// There is no model path for removals.
func NormalizeRemoveLiquidityForm(tokenA, tokenB, amount string, reg *registry.Registry) (Instruction, error) {
	if strings.TrimSpace(amount) == "" {
		return Instruction{}, &MissingFieldError{Field: "amount"}
	}
	cleaned, err := NormalizeAmount(amount)
	if err != nil {
		return Instruction{}, err
	}
	symbolA, err := resolveSymbol(reg, tokenA, "tokenA")
	if err != nil {
		return Instruction{}, err
	}
	symbolB, err := resolveSymbol(reg, tokenB, "tokenB")
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: KindRemoveLiquidity, RemoveLiquidity: &RemoveLiquidity{
		TokenA: symbolA, TokenB: symbolB, Amount: cleaned,
	}}, nil
}

package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token describes one ERC20 token known to the dashboard.
type Token struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
}

// Pool describes one V2 pair and its two tokens.
type Pool struct {
	ID      uint64
	Address common.Address
	Token0  Token
	Token1  Token
}

// Registry is the immutable token/pool lookup table. It is built once at
// startup and passed by reference; lookups are safe for concurrent use.
type Registry struct {
	pools  []Pool
	tokens map[string]Token
	byPair map[string]Pool
}

// New validates the pool list and builds the registry. Symbols are keyed
// uppercase, so lookups are case-insensitive.
func New(pools []Pool) (*Registry, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("at least one pool is required")
	}

	reg := &Registry{
		pools:  make([]Pool, 0, len(pools)),
		tokens: make(map[string]Token),
		byPair: make(map[string]Pool),
	}

	for _, pool := range pools {
		if pool.Address == (common.Address{}) {
			return nil, fmt.Errorf("pool %d: missing address", pool.ID)
		}
		sym0 := strings.ToUpper(strings.TrimSpace(pool.Token0.Symbol))
		sym1 := strings.ToUpper(strings.TrimSpace(pool.Token1.Symbol))
		if sym0 == "" || sym1 == "" {
			return nil, fmt.Errorf("pool %d: token symbol is empty", pool.ID)
		}
		if sym0 == sym1 {
			return nil, fmt.Errorf("pool %d: token0 and token1 are both %s", pool.ID, sym0)
		}

		pool.Token0.Symbol = sym0
		pool.Token1.Symbol = sym1
		if pool.Token0.Decimals == 0 {
			pool.Token0.Decimals = DefaultDecimals
		}
		if pool.Token1.Decimals == 0 {
			pool.Token1.Decimals = DefaultDecimals
		}

		if err := reg.registerToken(pool.Token0); err != nil {
			return nil, fmt.Errorf("pool %d: %w", pool.ID, err)
		}
		if err := reg.registerToken(pool.Token1); err != nil {
			return nil, fmt.Errorf("pool %d: %w", pool.ID, err)
		}

		key := pairKey(sym0, sym1)
		if _, ok := reg.byPair[key]; ok {
			return nil, fmt.Errorf("duplicate pool for pair %s-%s", sym0, sym1)
		}
		reg.byPair[key] = pool
		reg.pools = append(reg.pools, pool)
	}

	return reg, nil
}

func (r *Registry) registerToken(token Token) error {
	if token.Address == (common.Address{}) {
		return fmt.Errorf("token %s: missing address", token.Symbol)
	}
	existing, ok := r.tokens[token.Symbol]
	if ok {
		if existing.Address != token.Address {
			return fmt.Errorf("token %s: conflicting addresses %s and %s",
				token.Symbol, existing.Address.Hex(), token.Address.Hex())
		}
		return nil
	}
	r.tokens[token.Symbol] = token
	return nil
}

// Token looks up a token by symbol, case-insensitively.
func (r *Registry) Token(symbol string) (Token, bool) {
	token, ok := r.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return token, ok
}

// Pool looks up the pool holding the two symbols, in either order.
func (r *Registry) Pool(symbolA, symbolB string) (Pool, bool) {
	a := strings.ToUpper(strings.TrimSpace(symbolA))
	b := strings.ToUpper(strings.TrimSpace(symbolB))
	pool, ok := r.byPair[pairKey(a, b)]
	return pool, ok
}

// DefaultPool returns the first configured pool. Queries that name no pair
// fall back to it.
func (r *Registry) DefaultPool() Pool {
	return r.pools[0]
}

// Pools returns a copy of the configured pools in declaration order.
func (r *Registry) Pools() []Pool {
	out := make([]Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Symbols returns all known token symbols, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.tokens))
	for symbol := range r.tokens {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}

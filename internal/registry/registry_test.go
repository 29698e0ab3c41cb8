package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDefaultRegistryLookups(t *testing.T) {
	reg := Default()

	token, ok := reg.Token("tknb")
	if !ok {
		t.Fatalf("TKNB should resolve case-insensitively")
	}
	if token.Symbol != "TKNB" {
		t.Fatalf("symbol mismatch: %s", token.Symbol)
	}
	if token.Decimals != 18 {
		t.Fatalf("decimals mismatch: %d", token.Decimals)
	}

	if _, ok := reg.Token("WETH"); ok {
		t.Fatalf("unknown token should not resolve")
	}

	pool, ok := reg.Pool("TKNB", "TKNA")
	if !ok {
		t.Fatalf("TKNB-TKNA pair should resolve in reverse order")
	}
	if pool.ID != 1 {
		t.Fatalf("pool id mismatch: %d", pool.ID)
	}

	if reg.DefaultPool().ID != 1 {
		t.Fatalf("default pool should be the first configured pool")
	}

	symbols := reg.Symbols()
	if len(symbols) != 5 {
		t.Fatalf("expected 5 symbols, got %d", len(symbols))
	}
	if symbols[0] != "TKNA" {
		t.Fatalf("symbols should be sorted, got %v", symbols)
	}
}

func TestPoolsDeclarationOrderCopy(t *testing.T) {
	reg := Default()

	pools := reg.Pools()
	if len(pools) != 5 {
		t.Fatalf("expected 5 pools, got %d", len(pools))
	}
	for i, pool := range pools {
		if pool.ID != uint64(i+1) {
			t.Fatalf("pools out of declaration order: %v at index %d", pool.ID, i)
		}
	}

	pools[0] = Pool{}
	if reg.DefaultPool().ID != 1 {
		t.Fatalf("mutating the returned slice must not touch the registry")
	}
}

func TestNewRejectsIdenticalTokens(t *testing.T) {
	token := Token{Symbol: "TKNA", Address: common.HexToAddress("0x694B9d20Ee80e474C69F7eC66904C591b9C41454")}
	_, err := New([]Pool{{
		ID:      1,
		Address: common.HexToAddress("0x147dD1C3554DCB733E4aa549c7B57c2A55A873b0"),
		Token0:  token,
		Token1:  token,
	}})
	if err == nil {
		t.Fatalf("expected error for token0 == token1")
	}
}

func TestNewRejectsConflictingTokenAddresses(t *testing.T) {
	pools := []Pool{
		{
			ID:      1,
			Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Token0:  Token{Symbol: "AAA", Address: common.HexToAddress("0x2222222222222222222222222222222222222222")},
			Token1:  Token{Symbol: "BBB", Address: common.HexToAddress("0x3333333333333333333333333333333333333333")},
		},
		{
			ID:      2,
			Address: common.HexToAddress("0x4444444444444444444444444444444444444444"),
			Token0:  Token{Symbol: "AAA", Address: common.HexToAddress("0x5555555555555555555555555555555555555555")},
			Token1:  Token{Symbol: "CCC", Address: common.HexToAddress("0x6666666666666666666666666666666666666666")},
		},
	}
	if _, err := New(pools); err == nil {
		t.Fatalf("expected error for conflicting AAA addresses")
	}
}

func TestNewAppliesDefaultDecimals(t *testing.T) {
	pools := []Pool{{
		ID:      1,
		Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Token0:  Token{Symbol: "aaa", Address: common.HexToAddress("0x2222222222222222222222222222222222222222")},
		Token1:  Token{Symbol: "bbb", Address: common.HexToAddress("0x3333333333333333333333333333333333333333")},
	}}
	reg, err := New(pools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, ok := reg.Token("AAA")
	if !ok {
		t.Fatalf("lowercase symbol should be registered uppercase")
	}
	if token.Decimals != DefaultDecimals {
		t.Fatalf("decimals default mismatch: %d", token.Decimals)
	}
}

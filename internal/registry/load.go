package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type tokenSpec struct {
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

type poolSpec struct {
	ID      uint64    `mapstructure:"id"`
	Address string    `mapstructure:"address"`
	Token0  tokenSpec `mapstructure:"token0"`
	Token1  tokenSpec `mapstructure:"token1"`
}

// LoadFile reads a pools file (yaml/json/toml, decided by extension) and
// builds a registry from it.
func LoadFile(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pools file: %w", err)
	}

	var specs []poolSpec
	if err := v.UnmarshalKey("pools", &specs); err != nil {
		return nil, fmt.Errorf("parse pools file: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("pools file %s defines no pools", path)
	}

	pools := make([]Pool, 0, len(specs))
	for _, spec := range specs {
		pool, err := poolFromSpec(spec)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}

	return New(pools)
}

func poolFromSpec(spec poolSpec) (Pool, error) {
	address, err := parseAddress(spec.Address)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %d: %w", spec.ID, err)
	}
	token0, err := tokenFromSpec(spec.Token0)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %d: %w", spec.ID, err)
	}
	token1, err := tokenFromSpec(spec.Token1)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %d: %w", spec.ID, err)
	}
	return Pool{ID: spec.ID, Address: address, Token0: token0, Token1: token1}, nil
}

func tokenFromSpec(spec tokenSpec) (Token, error) {
	address, err := parseAddress(spec.Address)
	if err != nil {
		return Token{}, fmt.Errorf("token %s: %w", spec.Symbol, err)
	}
	return Token{
		Symbol:   spec.Symbol,
		Name:     spec.Name,
		Address:  address,
		Decimals: spec.Decimals,
	}, nil
}

func parseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

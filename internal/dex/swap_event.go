package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SwapEvent is a decoded V2 pair Swap log.
type SwapEvent struct {
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	Sender      string
	To          string
	Amount0In   *big.Int
	Amount1In   *big.Int
	Amount0Out  *big.Int
	Amount1Out  *big.Int
}

// SwapTopic returns the topic0 hash of the V2 Swap event.
func SwapTopic() (common.Hash, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return common.Hash{}, err
	}
	return pairABI.Events["Swap"].ID, nil
}

// DecodeSwap converts a raw log into a SwapEvent.
func DecodeSwap(log types.Log) (SwapEvent, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return SwapEvent{}, err
	}
	event := pairABI.Events["Swap"]

	if len(log.Topics) != 3 {
		return SwapEvent{}, fmt.Errorf("expected 3 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != event.ID {
		return SwapEvent{}, fmt.Errorf("unexpected topic0: %s", log.Topics[0].Hex())
	}

	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), log.Topics[1:]); err != nil {
		return SwapEvent{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return SwapEvent{}, fmt.Errorf("unpack swap: %w", err)
	}
	if len(values) != 4 {
		return SwapEvent{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amounts := make([]*big.Int, 4)
	for i, value := range values {
		amount, err := asBigInt(value)
		if err != nil {
			return SwapEvent{}, err
		}
		amounts[i] = amount
	}

	return SwapEvent{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    log.Index,
		Sender:      indexed.Sender.Hex(),
		To:          indexed.To.Hex(),
		Amount0In:   amounts[0],
		Amount1In:   amounts[1],
		Amount0Out:  amounts[2],
		Amount1Out:  amounts[3],
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

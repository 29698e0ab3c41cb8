package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"swapscope/internal/dex"
)

// ReserveSnapshot is one fresh getReserves read. It is valid only at the
// moment it was taken; reserves may move between read and use.
type ReserveSnapshot struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// Client wraps go-ethereum RPC and provides the V2 pair read surface.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, &ReadError{Op: "chain id", Err: err}
	}
	return id, nil
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, &ReadError{Op: "latest block", Err: err}
	}
	return number, nil
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, &ReadError{Op: fmt.Sprintf("header %d", number), Err: err}
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// GetReserves reads the pair's current reserves.
func (c *Client) GetReserves(ctx context.Context, pool common.Address) (ReserveSnapshot, error) {
	pairABI, err := dex.V2PairABI()
	if err != nil {
		return ReserveSnapshot{}, err
	}

	data, err := pairABI.Pack("getReserves")
	if err != nil {
		return ReserveSnapshot{}, fmt.Errorf("pack getReserves: %w", err)
	}

	output, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, nil)
	if err != nil {
		return ReserveSnapshot{}, &ReadError{Op: "getReserves " + pool.Hex(), Err: err}
	}

	values, err := pairABI.Unpack("getReserves", output)
	if err != nil {
		return ReserveSnapshot{}, fmt.Errorf("unpack getReserves: %w", err)
	}
	if len(values) != 3 {
		return ReserveSnapshot{}, fmt.Errorf("unexpected getReserves values: %d", len(values))
	}

	reserve0, ok := values[0].(*big.Int)
	if !ok {
		return ReserveSnapshot{}, fmt.Errorf("reserve0 type %T", values[0])
	}
	reserve1, ok := values[1].(*big.Int)
	if !ok {
		return ReserveSnapshot{}, fmt.Errorf("reserve1 type %T", values[1])
	}
	lastTS, ok := values[2].(uint32)
	if !ok {
		return ReserveSnapshot{}, fmt.Errorf("blockTimestampLast type %T", values[2])
	}

	return ReserveSnapshot{Reserve0: reserve0, Reserve1: reserve1, BlockTimestampLast: lastTS}, nil
}

// BalanceOf reads an ERC20 balance. The pair contract is itself an ERC20,
// so this also serves LP balance checks.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	tokenABI, err := dex.ERC20ABI()
	if err != nil {
		return nil, err
	}

	data, err := tokenABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	output, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, &ReadError{Op: "balanceOf " + token.Hex(), Err: err}
	}

	values, err := tokenABI.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balance type %T", values[0])
	}
	return balance, nil
}

// SwapEvents returns decoded Swap events for the pool in the block range.
func (c *Client) SwapEvents(ctx context.Context, pool common.Address, fromBlock, toBlock uint64) ([]dex.SwapEvent, error) {
	topic, err := dex.SwapTopic()
	if err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{pool},
		Topics:    [][]common.Hash{{topic}},
	}

	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, &ReadError{Op: "filter swap logs", Err: err}
	}

	events := make([]dex.SwapEvent, 0, len(logs))
	for _, log := range logs {
		event, err := dex.DecodeSwap(log)
		if err != nil {
			return nil, fmt.Errorf("decode swap at block %d: %w", log.BlockNumber, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// TransactionReceipt returns the receipt for a transaction hash, or
// ethereum.NotFound while the transaction is pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Sender signs and submits transactions through the client.
type Sender struct {
	client  *Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	signer  types.Signer
	poll    time.Duration
}

// NewSender builds a sender from a hex-encoded private key.
func NewSender(ctx context.Context, client *Client, hexKey string, poll time.Duration) (*Sender, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, err
	}

	if poll <= 0 {
		poll = 2 * time.Second
	}

	return &Sender{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		signer:  types.LatestSignerForChainID(chainID),
		poll:    poll,
	}, nil
}

// From returns the sender's address.
func (s *Sender) From() common.Address {
	return s.from
}

// Send signs and submits one call, returning the transaction hash.
func (s *Sender) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	nonce, err := s.client.ethClient.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, &WriteError{Op: "pending nonce", Err: err}
	}

	gasPrice, err := s.client.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, &WriteError{Op: "suggest gas price", Err: err}
	}

	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, err := s.client.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, &WriteError{Op: "estimate gas", Err: err}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return common.Hash{}, &WriteError{Op: "sign", Err: err}
	}

	if err := s.client.ethClient.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, &WriteError{Op: "send " + to.Hex(), Err: err}
	}

	return signed.Hash(), nil
}

// WaitReceipt polls until the transaction is mined or the context ends.
// It returns an error for a mined-but-reverted transaction.
func (s *Sender) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, &WriteError{Op: "receipt " + txHash.Hex(), Err: fmt.Errorf("transaction reverted")}
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, &WriteError{Op: "receipt " + txHash.Hex(), Err: err}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

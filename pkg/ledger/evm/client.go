// Package evm implements the ledger capabilities on an EVM chain holding an ERC-20 token.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const erc20ABI = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":false,"name":"value","type":"uint256"}],
	 "name":"Transfer","type":"event"},
	{"inputs":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"}],
	 "name":"transfer","outputs":[{"name":"","type":"bool"}],
	 "stateMutability":"nonpayable","type":"function"}
]`

var (
	_ ledger.Query     = (*Client)(nil)
	_ ledger.Submitter = (*Client)(nil)

	errNoSigner = errors.New("refund signer key not configured")
)

// Client reads token transfers into the deposit address and signs refunds.
type Client struct {
	config  *config.LedgerConfig
	client  *ethclient.Client
	logger  *zap.Logger
	token   common.Address
	deposit common.Address
	chainID *big.Int
	abi     abi.ABI

	privateKey *ecdsa.PrivateKey
	address    common.Address

	nonceMu  sync.Mutex
	inflight map[uint64]time.Time
}

// NewClient dials the RPC endpoint. Without a signer key the client can only read.
func NewClient(cfg *config.LedgerConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger RPC: %w", err)
	}

	c, err := newClient(cfg, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Connected to ledger",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("token_contract", c.token.Hex()),
		zap.String("deposit_address", c.deposit.Hex()),
		zap.String("signer_address", c.address.Hex()))

	return c, nil
}

func newClient(cfg *config.LedgerConfig, client *ethclient.Client, logger *zap.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token abi: %w", err)
	}

	c := &Client{
		config:  cfg,
		client:  client,
		logger:  logger,
		token:   common.HexToAddress(cfg.TokenContract),
		deposit: common.HexToAddress(cfg.DepositAddress),
		chainID: big.NewInt(cfg.ChainID),
		abi:     parsed,

		inflight: make(map[uint64]time.Time),
	}

	if cfg.SignerPrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.SignerPrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to load signer key: %w", err)
		}
		c.privateKey = key
		c.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// Close closes the RPC connection
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ListIncomingTransfers returns token transfers into address within one block window
// after since. The cursor is the first block of the next window.
func (c *Client) ListIncomingTransfers(ctx context.Context, address string, since deposit.Checkpoint, cursor string) (*ledger.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	from := uint64(since) + 1
	if cursor != "" {
		n, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
		from = n
	} else if from < c.config.StartBlock {
		from = c.config.StartBlock
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return nil, ledger.Transient(fmt.Errorf("failed to get latest block: %w", err))
	}
	if from > head {
		return &ledger.Page{Checkpoint: deposit.Checkpoint(from - 1)}, nil
	}

	to := from + c.config.BlockWindow - 1
	if to > head {
		to = head
	}

	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.token},
		Topics: [][]common.Hash{
			{c.abi.Events["Transfer"].ID},
			nil,
			{common.BytesToHash(common.HexToAddress(address).Bytes())},
		},
	})
	if err != nil {
		return nil, ledger.Transient(fmt.Errorf("failed to filter transfer logs [%d,%d]: %w", from, to, err))
	}

	page := &ledger.Page{Checkpoint: deposit.Checkpoint(to)}
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		tr, err := decodeTransferLog(lg)
		if err != nil {
			c.logger.Warn("Skipping malformed transfer log",
				zap.String("tx_hash", lg.TxHash.Hex()),
				zap.Uint("log_index", lg.Index),
				zap.Error(err))
			continue
		}
		tr.Confirmations = head - tr.BlockNumber + 1
		page.Transfers = append(page.Transfers, tr)
	}
	if to < head {
		page.Next = strconv.FormatUint(to+1, 10)
	}

	c.logger.Debug("Listed incoming transfers",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to),
		zap.Int("count", len(page.Transfers)))

	return page, nil
}

// Confirmations returns the number of blocks including and after the one holding txHash.
func (c *Client) Confirmations(ctx context.Context, txHash string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, ledger.Transient(fmt.Errorf("failed to get receipt: %w", err))
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, ledger.Transient(fmt.Errorf("failed to get latest block: %w", err))
	}
	bn := receipt.BlockNumber.Uint64()
	if head < bn {
		return 0, nil
	}
	return head - bn + 1, nil
}

// Prepare builds and signs a token transfer of amount to the given address. The
// transfer is estimated first, so one the token contract would reject (for example
// on an insufficient refund wallet balance) fails here with deposit.ErrRefundSubmission.
// The nonce stays reserved until Broadcast or Release.
func (c *Client) Prepare(ctx context.Context, to string, amount *big.Int) (*ledger.SignedTransfer, error) {
	if c.privateKey == nil {
		return nil, errNoSigner
	}
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid refund destination %q", to)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.abi.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}

	gas, err := c.estimateGas(ctx, data)
	if err != nil {
		return nil, err
	}

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := c.nextNonce(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.token,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.privateKey)
	if err != nil {
		c.releaseNonce(nonce)
		return nil, fmt.Errorf("failed to sign transfer: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		c.releaseNonce(nonce)
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}

	return &ledger.SignedTransfer{
		Hash:   signed.Hash().Hex(),
		Raw:    raw,
		To:     to,
		Amount: new(big.Int).Set(amount),
		Nonce:  nonce,
	}, nil
}

// Release frees the nonce of a prepared transfer that will not be broadcast.
func (c *Client) Release(st *ledger.SignedTransfer) {
	c.releaseNonce(st.Nonce)
}

// Broadcast sends a signed transfer to the network.
func (c *Client) Broadcast(ctx context.Context, st *ledger.SignedTransfer) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(st.Raw); err != nil {
		return fmt.Errorf("failed to decode signed transfer: %w", err)
	}

	err := classifyBroadcastError(c.client.SendTransaction(ctx, tx))
	c.releaseNonce(tx.Nonce())
	if err != nil {
		c.logger.Warn("Broadcast failed",
			zap.String("tx_hash", st.Hash),
			zap.Error(err))
		return err
	}

	c.logger.Info("Broadcast refund transfer",
		zap.String("tx_hash", st.Hash),
		zap.String("to", st.To),
		zap.String("amount", st.Amount.String()))
	return nil
}

// Lookup reports whether txHash is mined, pending or unknown to the node.
func (c *Client) Lookup(ctx context.Context, txHash string) (ledger.TxState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	receipt, err := c.client.TransactionReceipt(ctx, hash)
	switch {
	case err == nil:
		if receipt.Status == types.ReceiptStatusSuccessful {
			return ledger.TxConfirmed, nil
		}
		return ledger.TxReverted, nil
	case !errors.Is(err, ethereum.NotFound):
		return ledger.TxUnknown, ledger.Transient(fmt.Errorf("failed to get receipt: %w", err))
	}

	_, isPending, err := c.client.TransactionByHash(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return ledger.TxUnknown, nil
	case err != nil:
		return ledger.TxUnknown, ledger.Transient(fmt.Errorf("failed to get transaction: %w", err))
	case isPending:
		return ledger.TxPending, nil
	default:
		// Mined but the receipt is not indexed yet.
		return ledger.TxPending, nil
	}
}

// estimateGas runs the transfer against the latest state. GasLimit caps the result.
func (c *Client) estimateGas(ctx context.Context, data []byte) (uint64, error) {
	gas, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From: c.address,
		To:   &c.token,
		Data: data,
	})
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return 0, fmt.Errorf("%w: transfer rejected by gas estimation: %w", deposit.ErrRefundSubmission, err)
		}
		return 0, ledger.Transient(fmt.Errorf("failed to estimate gas: %w", err))
	}
	if c.config.GasLimit > 0 && gas > c.config.GasLimit {
		return 0, fmt.Errorf("%w: estimated gas %d exceeds limit %d", deposit.ErrRefundSubmission, gas, c.config.GasLimit)
	}
	return gas, nil
}

func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	suggested, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, ledger.Transient(fmt.Errorf("failed to suggest gas price: %w", err))
	}

	capped, limited, err := capGasPrice(suggested, c.config.MaxGasPrice)
	if err != nil {
		return nil, err
	}
	if limited {
		c.logger.Warn("Suggested gas price exceeds maximum",
			zap.String("suggested", suggested.String()),
			zap.String("max", capped.String()))
	}
	return capped, nil
}

// nextNonce reserves the lowest nonce at or above the node's pending nonce that is
// not held by a transfer prepared but not yet broadcast.
func (c *Client) nextNonce(ctx context.Context) (uint64, error) {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	pending, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return 0, ledger.Transient(fmt.Errorf("failed to get nonce: %w", err))
	}

	now := time.Now()
	for n, at := range c.inflight {
		if n < pending || now.Sub(at) > reservationTTL(c.config.RequestTimeout) {
			delete(c.inflight, n)
		}
	}

	n := pending
	for {
		if _, held := c.inflight[n]; !held {
			break
		}
		n++
	}
	c.inflight[n] = now
	return n, nil
}

func (c *Client) releaseNonce(n uint64) {
	c.nonceMu.Lock()
	delete(c.inflight, n)
	c.nonceMu.Unlock()
}

// reservationTTL bounds how long a prepared transfer may hold its nonce before broadcast.
func reservationTTL(requestTimeout time.Duration) time.Duration {
	return 4 * requestTimeout
}

func capGasPrice(suggested *big.Int, maxGasPrice string) (*big.Int, bool, error) {
	if maxGasPrice == "" {
		return suggested, false, nil
	}
	limit, ok := new(big.Int).SetString(maxGasPrice, 10)
	if !ok {
		return nil, false, fmt.Errorf("invalid max gas price %q", maxGasPrice)
	}
	if suggested.Cmp(limit) > 0 {
		return limit, true, nil
	}
	return suggested, false, nil
}

func decodeTransferLog(lg types.Log) (deposit.Transfer, error) {
	if len(lg.Topics) != 3 {
		return deposit.Transfer{}, fmt.Errorf("expected 3 topics, got %d", len(lg.Topics))
	}
	if len(lg.Data) != 32 {
		return deposit.Transfer{}, fmt.Errorf("expected 32 bytes of data, got %d", len(lg.Data))
	}
	return deposit.Transfer{
		TxHash:      lg.TxHash.Hex(),
		OutputIndex: uint32(lg.Index),
		From:        common.BytesToAddress(lg.Topics[1].Bytes()).Hex(),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()).Hex(),
		Amount:      new(big.Int).SetBytes(lg.Data),
		BlockNumber: lg.BlockNumber,
	}, nil
}

func classifyBroadcastError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already known"), strings.Contains(msg, "known transaction"):
		return nil
	case strings.Contains(msg, "nonce too low"):
		return fmt.Errorf("%w: %w", ledger.ErrNonceTooLow, err)
	}

	// Anything other than a node-side rejection leaves the outcome unknown.
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %w", deposit.ErrRefundSubmission, err)
	}
	return fmt.Errorf("%w: %w", ledger.ErrMaybeSubmitted, ledger.Transient(err))
}

package evm

import (
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/config"
)

const testChainID = 1337

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testDeposit = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	transferID  = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

type filterArgs struct {
	FromBlock *hexutil.Big     `json:"fromBlock"`
	ToBlock   *hexutil.Big     `json:"toBlock"`
	Address   []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
}

// fakeNode serves the eth_ methods the client uses from in-memory chain state.
type fakeNode struct {
	mu sync.Mutex

	head     uint64
	logs     []types.Log
	nonce    uint64
	gasPrice *big.Int
	gas      uint64
	gasErr   error
	sendErr  error

	sent     []*types.Transaction
	txs      map[common.Hash]*types.Transaction
	minedAt  map[common.Hash]uint64
	receipts map[common.Hash]*types.Receipt
	filters  []filterArgs
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		gasPrice: big.NewInt(1_000_000_000),
		gas:      52_000,
		txs:      make(map[common.Hash]*types.Transaction),
		minedAt:  make(map[common.Hash]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (n *fakeNode) BlockNumber() hexutil.Uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return hexutil.Uint64(n.head)
}

func (n *fakeNode) GetLogs(crit filterArgs) ([]types.Log, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.filters = append(n.filters, crit)

	if crit.FromBlock == nil || crit.ToBlock == nil {
		return nil, errors.New("block range required")
	}
	from, to := crit.FromBlock.ToInt().Uint64(), crit.ToBlock.ToInt().Uint64()

	out := []types.Log{}
	for _, lg := range n.logs {
		if lg.BlockNumber < from || lg.BlockNumber > to || !containsAddress(crit.Address, lg.Address) {
			continue
		}
		if matchTopics(crit.Topics, lg.Topics) {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (n *fakeNode) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receipts[hash]
}

func (n *fakeNode) GetTransactionByHash(hash common.Hash) (json.RawMessage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	tx, ok := n.txs[hash]
	if !ok {
		return nil, nil
	}
	enc, err := tx.MarshalJSON()
	if err != nil {
		return nil, err
	}
	block, mined := n.minedAt[hash]
	if !mined {
		return enc, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(enc, &fields); err != nil {
		return nil, err
	}
	fields["blockNumber"] = hexutil.EncodeUint64(block)
	return json.Marshal(fields)
}

func (n *fakeNode) GetTransactionCount(_ common.Address, _ string) hexutil.Uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return hexutil.Uint64(n.nonce)
}

func (n *fakeNode) GasPrice() *hexutil.Big {
	n.mu.Lock()
	defer n.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(n.gasPrice))
}

func (n *fakeNode) EstimateGas(args callArgs) (hexutil.Uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gasErr != nil {
		return 0, n.gasErr
	}
	if args.To == nil || len(args.Input) == 0 {
		return 0, errors.New("missing call target")
	}
	return hexutil.Uint64(n.gas), nil
}

func (n *fakeNode) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return common.Hash{}, n.sendErr
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	if tx.Nonce() < n.nonce {
		return common.Hash{}, errors.New("nonce too low")
	}
	n.sent = append(n.sent, tx)
	n.txs[tx.Hash()] = tx
	n.nonce = tx.Nonce() + 1
	return tx.Hash(), nil
}

// mine includes a known transaction at block with the given receipt status.
func (n *fakeNode) mine(hash common.Hash, block uint64, status uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minedAt[hash] = block
	n.receipts[hash] = &types.Receipt{
		Status:            status,
		CumulativeGasUsed: 52_000,
		GasUsed:           52_000,
		Logs:              []*types.Log{},
		TxHash:            hash,
		BlockNumber:       new(big.Int).SetUint64(block),
	}
}

// addTransfer appends a token Transfer log.
func (n *fakeNode) addTransfer(token, from, to common.Address, amount int64, block uint64, tx byte, index uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, types.Log{
		Address: token,
		Topics: []common.Hash{
			transferID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte{tx}),
		Index:       index,
	})
}

func (n *fakeNode) set(fn func(n *fakeNode)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n)
}

func containsAddress(set []common.Address, addr common.Address) bool {
	if len(set) == 0 {
		return true
	}
	for _, a := range set {
		if a == addr {
			return true
		}
	}
	return false
}

func matchTopics(crit [][]common.Hash, topics []common.Hash) bool {
	for i, set := range crit {
		if len(set) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		found := false
		for _, h := range set {
			if h == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func testLedgerConfig(t *testing.T) *config.LedgerConfig {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate signer key: %v", err)
	}
	return &config.LedgerConfig{
		RPCURL:           "inproc",
		ChainID:          testChainID,
		TokenContract:    testToken.Hex(),
		DepositAddress:   testDeposit.Hex(),
		SignerPrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		GasLimit:         100_000,
		RequestTimeout:   5 * time.Second,
		BlockWindow:      10,
	}
}

// newTestClient serves node in-process and connects a Client to it.
func newTestClient(t *testing.T, node *fakeNode, cfg *config.LedgerConfig) *Client {
	t.Helper()
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", node); err != nil {
		t.Fatalf("failed to register eth service: %v", err)
	}
	t.Cleanup(srv.Stop)

	c, err := newClient(cfg, ethclient.NewClient(rpc.DialInProc(srv)), zap.NewNop())
	if err != nil {
		t.Fatalf("newClient() failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

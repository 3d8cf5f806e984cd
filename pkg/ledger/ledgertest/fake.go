// Package ledgertest provides an in-memory ledger for exercising the reconciliation engine.
package ledgertest

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
)

var (
	_ ledger.Query     = (*Fake)(nil)
	_ ledger.Submitter = (*Fake)(nil)
)

// BroadcastHook intercepts a broadcast. Returning a non-nil error fails it.
type BroadcastHook func(f *Fake, st *ledger.SignedTransfer) error

// Fake is a deterministic ledger: transfers live at block heights, pages cover a
// fixed block window and every broadcast lands immediately unless a hook fails it.
type Fake struct {
	mu         sync.Mutex
	head       uint64
	window     uint64
	transfers  []deposit.Transfer
	listErr    error
	listPage   int
	listCalls  int
	nonce      uint64
	landed     map[string]ledger.SignedTransfer
	order      []string
	hook       BroadcastHook
	lookupErr  error
	prepareErr error
	prepared   int
	released   []string
}

// New creates an empty fake ledger with a 100 block page window.
func New() *Fake {
	return &Fake{
		window: 100,
		landed: make(map[string]ledger.SignedTransfer),
	}
}

// SetWindow sets the number of blocks covered by one page.
func (f *Fake) SetWindow(blocks uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = blocks
}

// SetHead moves the chain head.
func (f *Fake) SetHead(head uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

// Head returns the chain head.
func (f *Fake) Head() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head
}

// AddTransfer appends a transfer. A zero BlockNumber places it in a new block at the head.
func (f *Fake) AddTransfer(tr deposit.Transfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tr.BlockNumber == 0 {
		f.head++
		tr.BlockNumber = f.head
	}
	if tr.BlockNumber > f.head {
		f.head = tr.BlockNumber
	}
	if tr.Amount != nil {
		tr.Amount = new(big.Int).Set(tr.Amount)
	}
	f.transfers = append(f.transfers, tr)
}

// FailListing makes the next poll fail with err when it requests page index page.
func (f *Fake) FailListing(err error, page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
	f.listPage = page
	f.listCalls = 0
}

// SetBroadcastHook installs a hook consulted before every broadcast.
func (f *Fake) SetBroadcastHook(hook BroadcastHook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

// SetLookupError makes Lookup fail with err until cleared with nil.
func (f *Fake) SetLookupError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupErr = err
}

// SetPrepareError makes Prepare fail with err until cleared with nil.
func (f *Fake) SetPrepareError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepareErr = err
}

// Land puts a transfer on-chain without going through Broadcast.
func (f *Fake) Land(st *ledger.SignedTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.land(st)
}

func (f *Fake) land(st *ledger.SignedTransfer) {
	if _, ok := f.landed[st.Hash]; ok {
		return
	}
	f.landed[st.Hash] = *st
	f.order = append(f.order, st.Hash)
}

// Submissions returns every transfer that reached the chain, in order.
func (f *Fake) Submissions() []ledger.SignedTransfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.SignedTransfer, 0, len(f.order))
	for _, h := range f.order {
		out = append(out, f.landed[h])
	}
	return out
}

// SubmissionsTo counts on-chain transfers sent to addr.
func (f *Fake) SubmissionsTo(addr string) int {
	n := 0
	for _, st := range f.Submissions() {
		if deposit.NormalizeAddress(st.To) == deposit.NormalizeAddress(addr) {
			n++
		}
	}
	return n
}

// Prepared returns how many transfers were built and signed.
func (f *Fake) Prepared() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prepared
}

// Released returns the hashes of prepared transfers given back without a broadcast.
func (f *Fake) Released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func (f *Fake) ListIncomingTransfers(ctx context.Context, address string, since deposit.Checkpoint, cursor string) (*ledger.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, ledger.Transient(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cursor == "" {
		f.listCalls = 0
	}
	page := f.listCalls
	f.listCalls++
	if f.listErr != nil && page == f.listPage {
		err := f.listErr
		f.listErr = nil
		return nil, err
	}

	from := uint64(since) + 1
	if cursor != "" {
		n, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
		from = n
	}
	if from > f.head {
		return &ledger.Page{Checkpoint: deposit.Checkpoint(from - 1)}, nil
	}

	to := from + f.window - 1
	if to > f.head {
		to = f.head
	}

	out := &ledger.Page{Checkpoint: deposit.Checkpoint(to)}
	addr := deposit.NormalizeAddress(address)
	for _, tr := range f.transfers {
		if deposit.NormalizeAddress(tr.To) != addr || tr.BlockNumber < from || tr.BlockNumber > to {
			continue
		}
		tr.Confirmations = f.head - tr.BlockNumber + 1
		tr.Amount = new(big.Int).Set(tr.Amount)
		out.Transfers = append(out.Transfers, tr)
	}
	if to < f.head {
		out.Next = strconv.FormatUint(to+1, 10)
	}
	return out, nil
}

func (f *Fake) Confirmations(_ context.Context, txHash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.transfers {
		if tr.TxHash == txHash {
			return f.head - tr.BlockNumber + 1, nil
		}
	}
	return 0, nil
}

func (f *Fake) Prepare(_ context.Context, to string, amount *big.Int) (*ledger.SignedTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	f.nonce++
	f.prepared++
	hash := fmt.Sprintf("0xrefund%06d", f.nonce)
	return &ledger.SignedTransfer{
		Hash:   hash,
		Raw:    []byte(fmt.Sprintf("%s|%s|%s", hash, to, amount)),
		To:     to,
		Amount: new(big.Int).Set(amount),
		Nonce:  f.nonce,
	}, nil
}

func (f *Fake) Release(st *ledger.SignedTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, st.Hash)
}

func (f *Fake) Broadcast(ctx context.Context, st *ledger.SignedTransfer) error {
	if err := ctx.Err(); err != nil {
		return ledger.Transient(err)
	}

	f.mu.Lock()
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(f, st); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.land(st)
	return nil
}

func (f *Fake) Lookup(_ context.Context, txHash string) (ledger.TxState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return ledger.TxUnknown, f.lookupErr
	}
	if _, ok := f.landed[txHash]; ok {
		return ledger.TxConfirmed, nil
	}
	return ledger.TxUnknown, nil
}

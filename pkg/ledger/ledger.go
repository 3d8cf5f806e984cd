// Package ledger defines the capabilities the reconciliation engine consumes from
// the external ledger: listing incoming transfers and submitting refunds.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

var (
	// ErrTransient marks network and timeout failures. Callers retry on the next cycle.
	ErrTransient = errors.New("transient ledger error")

	// ErrMaybeSubmitted marks a broadcast whose outcome is unknown: the transfer
	// may already be on-chain and must be checked before resubmitting.
	ErrMaybeSubmitted = errors.New("transfer may already be submitted")

	// ErrNonceTooLow is returned when a signed transfer can no longer be included
	// because its nonce was consumed.
	ErrNonceTooLow = errors.New("signed transfer nonce already used")
)

// Page is one slice of an incoming-transfer listing.
type Page struct {
	Transfers []deposit.Transfer
	// Checkpoint is the ledger height fully covered by this and previous pages.
	Checkpoint deposit.Checkpoint
	// Next is the cursor of the following page, empty when the listing is exhausted.
	Next string
}

// Query lists transfers and reports confirmations.
type Query interface {
	ListIncomingTransfers(ctx context.Context, address string, since deposit.Checkpoint, cursor string) (*Page, error)
	Confirmations(ctx context.Context, txHash string) (uint64, error)
}

// SignedTransfer is a built and signed refund ready to broadcast. Raw is kept so
// the exact same transaction can be rebroadcast after a crash.
type SignedTransfer struct {
	Hash   string
	Raw    []byte
	To     string
	Amount *big.Int
	Nonce  uint64
}

// TxState is the ledger's view of a submitted transaction.
type TxState int

const (
	TxUnknown TxState = iota
	TxPending
	TxConfirmed
	TxReverted
)

func (s TxState) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Submitter builds, broadcasts and looks up refund transfers. Building a transfer is
// split from broadcasting it so the signed transfer can be persisted in between.
type Submitter interface {
	// Prepare builds and signs a transfer, reserving its sequence number.
	Prepare(ctx context.Context, to string, amount *big.Int) (*SignedTransfer, error)
	// Broadcast sends a prepared transfer. Re-sending an already known transfer succeeds.
	Broadcast(ctx context.Context, st *SignedTransfer) error
	// Release gives back the reservation of a prepared transfer that will not be broadcast.
	Release(st *SignedTransfer)
	Lookup(ctx context.Context, txHash string) (TxState, error)
}

// Transient wraps err as a transient ledger error.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err should be retried on a later cycle.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Package deposit defines the identity-deposit domain: observed ledger transfers,
// the reconciliation records built from them, and the monitor's persisted state.
package deposit

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a deposit record.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusVerified      Status = "VERIFIED"
	StatusRefundPending Status = "REFUND_PENDING"
	StatusRefunded      Status = "REFUNDED"
	StatusFailed        Status = "FAILED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRefundPending, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// Checkpoint is the ledger cursor the poller has scanned up to (block height).
type Checkpoint uint64

// Key is the idempotency key of an observed transfer.
type Key struct {
	TxHash      string
	OutputIndex uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.TxHash, k.OutputIndex)
}

// Transfer is an incoming transfer to the deposit address as reported by the ledger.
type Transfer struct {
	TxHash        string
	OutputIndex   uint32
	From          string
	To            string
	Amount        *big.Int
	BlockNumber   uint64
	Confirmations uint64
	// Reference is an optional memo carried by the transfer, matched against
	// registration correlation keys.
	Reference string
}

// Key returns the transfer's idempotency key.
func (t Transfer) Key() Key {
	return Key{TxHash: t.TxHash, OutputIndex: t.OutputIndex}
}

// Record is one reconciliation row per observed qualifying transfer.
type Record struct {
	TxHash               string
	OutputIndex          uint32
	UserAddress          string
	SenderAddress        string
	Amount               *big.Int
	Status               Status
	Unmatched            bool
	BlockNumber          uint64
	Confirmations        uint64
	VerificationAttempts int
	RefundAttempts       int
	RefundTxHash         *string
	RefundRawTx          []byte
	RefundDestination    *string
	NextAttemptAt        *time.Time
	LastError            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Key returns the record's idempotency key.
func (r *Record) Key() Key {
	return Key{TxHash: r.TxHash, OutputIndex: r.OutputIndex}
}

// Active reports whether the record still holds its user's single in-flight registration slot.
func (r *Record) Active() bool {
	return r.Status != StatusRefunded
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Amount != nil {
		c.Amount = new(big.Int).Set(r.Amount)
	}
	if r.RefundTxHash != nil {
		h := *r.RefundTxHash
		c.RefundTxHash = &h
	}
	if r.RefundRawTx != nil {
		c.RefundRawTx = append([]byte(nil), r.RefundRawTx...)
	}
	if r.RefundDestination != nil {
		d := *r.RefundDestination
		c.RefundDestination = &d
	}
	if r.NextAttemptAt != nil {
		t := *r.NextAttemptAt
		c.NextAttemptAt = &t
	}
	return &c
}

// PlaceholderUser builds the synthetic identity assigned to deposits that match no registration.
func PlaceholderUser(k Key) string {
	return "unmatched:" + k.String()
}

// NormalizeAddress canonicalizes a ledger address for comparisons and storage.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Stats are the monitor's persisted counters.
type Stats struct {
	Processed     int64      `json:"processed"`
	Refunded      int64      `json:"refunded"`
	Failed        int64      `json:"failed"`
	Unmatched     int64      `json:"unmatched"`
	LastError     string     `json:"last_error,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
}

// MonitorState is the process-wide singleton persisted alongside the records.
type MonitorState struct {
	Running        bool
	LastCheckpoint Checkpoint
	Stats          Stats
	UpdatedAt      time.Time
}

// RegistrationStatus tracks whether a pending registration has been paired with a deposit.
type RegistrationStatus string

const (
	RegistrationPending RegistrationStatus = "PENDING"
	RegistrationMatched RegistrationStatus = "MATCHED"
)

// Registration is an identity registration awaiting its deposit.
type Registration struct {
	UserAddress    string
	SenderAddress  string
	CorrelationKey string
	Status         RegistrationStatus
	MatchedKey     *Key
	CreatedAt      time.Time
	MatchedAt      *time.Time
}

// WebhookRegistration is a notification sink; losing one never affects reconciliation.
type WebhookRegistration struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

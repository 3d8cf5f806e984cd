package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// EventType identifies the kind of notification.
type EventType string

const (
	EventDepositDetected EventType = "deposit_detected"
	EventRefundCompleted EventType = "refund_completed"
	EventRefundFailed    EventType = "refund_failed"
	EventTest            EventType = "test"
)

// Event is the JSON body posted to every registered webhook.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Deposit    *DepositPayload `json:"deposit,omitempty"`
}

// DepositPayload describes the record an event refers to.
type DepositPayload struct {
	TxHash        string  `json:"tx_hash"`
	OutputIndex   uint32  `json:"output_index"`
	UserAddress   string  `json:"user_address"`
	SenderAddress string  `json:"sender_address"`
	Amount        string  `json:"amount"`
	Status        string  `json:"status"`
	UserStatus    string  `json:"user_status"`
	Unmatched     bool    `json:"unmatched"`
	RefundTxHash  *string `json:"refund_tx_hash,omitempty"`
	LastError     string  `json:"last_error,omitempty"`
}

// NewDepositEvent builds an event of type t for rec.
func NewDepositEvent(t EventType, rec *deposit.Record) Event {
	p := &DepositPayload{
		TxHash:        rec.TxHash,
		OutputIndex:   rec.OutputIndex,
		UserAddress:   rec.UserAddress,
		SenderAddress: rec.SenderAddress,
		Status:        string(rec.Status),
		UserStatus:    deposit.UserStatus(rec.Status),
		Unmatched:     rec.Unmatched,
		RefundTxHash:  rec.RefundTxHash,
		LastError:     rec.LastError,
	}
	if rec.Amount != nil {
		p.Amount = rec.Amount.String()
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Deposit:    p,
	}
}

func newTestEvent() Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventTest,
		OccurredAt: time.Now().UTC(),
	}
}

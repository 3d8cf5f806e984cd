// Package admin defines the operator-facing request and response types of the
// deposit monitor API.
package admin

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// RegistrationRequest announces a user that is about to send its identity deposit.
type RegistrationRequest struct {
	UserAddress    string `json:"user_address"`
	SenderAddress  string `json:"sender_address,omitempty"`
	CorrelationKey string `json:"correlation_key,omitempty"`
}

// Registration is the API view of a pending or matched registration.
type Registration struct {
	UserAddress    string     `json:"user_address"`
	SenderAddress  string     `json:"sender_address,omitempty"`
	CorrelationKey string     `json:"correlation_key,omitempty"`
	Status         string     `json:"status"`
	MatchedTxHash  string     `json:"matched_tx_hash,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	MatchedAt      *time.Time `json:"matched_at,omitempty"`
}

// WebhookRequest registers or tests a webhook sink.
type WebhookRequest struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// RefundRequest triggers a manual refund. Destination overrides the sender address.
type RefundRequest struct {
	Destination string `json:"destination,omitempty"`
}

// RefundResponse reports the submitted refund transfer.
type RefundResponse struct {
	TxHash       string `json:"tx_hash"`
	OutputIndex  uint32 `json:"output_index"`
	RefundTxHash string `json:"refund_tx_hash"`
}

// DepositFilter narrows ListDeposits.
type DepositFilter struct {
	Status      deposit.Status
	UserAddress string
	Limit       int
}

// Deposit is the API view of a reconciliation record.
type Deposit struct {
	TxHash               string     `json:"tx_hash"`
	OutputIndex          uint32     `json:"output_index"`
	UserAddress          string     `json:"user_address"`
	SenderAddress        string     `json:"sender_address"`
	Amount               string     `json:"amount"`
	AmountFormatted      string     `json:"amount_formatted"`
	Status               string     `json:"status"`
	UserStatus           string     `json:"user_status"`
	Unmatched            bool       `json:"unmatched"`
	BlockNumber          uint64     `json:"block_number"`
	Confirmations        uint64     `json:"confirmations"`
	VerificationAttempts int        `json:"verification_attempts"`
	RefundAttempts       int        `json:"refund_attempts"`
	RefundTxHash         *string    `json:"refund_tx_hash,omitempty"`
	RefundDestination    *string    `json:"refund_destination,omitempty"`
	NextAttemptAt        *time.Time `json:"next_attempt_at,omitempty"`
	LastError            string     `json:"last_error,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewDeposit converts rec for the API, formatting the amount with the token's decimals.
func NewDeposit(rec *deposit.Record, decimals int32) *Deposit {
	amount := rec.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return &Deposit{
		TxHash:               rec.TxHash,
		OutputIndex:          rec.OutputIndex,
		UserAddress:          rec.UserAddress,
		SenderAddress:        rec.SenderAddress,
		Amount:               amount.String(),
		AmountFormatted:      decimal.NewFromBigInt(amount, -decimals).String(),
		Status:               string(rec.Status),
		UserStatus:           deposit.UserStatus(rec.Status),
		Unmatched:            rec.Unmatched,
		BlockNumber:          rec.BlockNumber,
		Confirmations:        rec.Confirmations,
		VerificationAttempts: rec.VerificationAttempts,
		RefundAttempts:       rec.RefundAttempts,
		RefundTxHash:         rec.RefundTxHash,
		RefundDestination:    rec.RefundDestination,
		NextAttemptAt:        rec.NextAttemptAt,
		LastError:            rec.LastError,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
}

// NewRegistration converts reg for the API.
func NewRegistration(reg *deposit.Registration) *Registration {
	out := &Registration{
		UserAddress:    reg.UserAddress,
		SenderAddress:  reg.SenderAddress,
		CorrelationKey: reg.CorrelationKey,
		Status:         string(reg.Status),
		CreatedAt:      reg.CreatedAt,
		MatchedAt:      reg.MatchedAt,
	}
	if reg.MatchedKey != nil {
		out.MatchedTxHash = reg.MatchedKey.TxHash
	}
	return out
}

// Package depositstore persists deposit records, pending registrations, webhook
// sinks and the monitor state singleton.
package depositstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// Store is the reconciliation store. It is the single source of truth for
// record state transitions.
type Store interface {
	DepositStore
	RegistrationStore
	WebhookStore
	StateStore

	// RunInTx runs fn in a single transaction. The Store passed to fn is bound to it.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// DepositStore defines deposit record persistence
type DepositStore interface {
	// CreateDeposit inserts a record. It returns deposit.ErrDuplicateObservation when the
	// key exists and deposit.ErrUserHasActiveDeposit when the user already holds an active record.
	CreateDeposit(ctx context.Context, rec *deposit.Record) error
	GetDeposit(ctx context.Context, key deposit.Key) (*deposit.Record, error)
	ListDeposits(ctx context.Context, opts ...QueryOption) ([]*deposit.Record, error)
	CountDeposits(ctx context.Context, status deposit.Status) (int, error)
	HasActiveDeposit(ctx context.Context, userAddress string) (bool, error)
	// UpdateDeposit applies change only if the record still satisfies guard.
	// It returns deposit.ErrClaimLost when the guard does not hold.
	UpdateDeposit(ctx context.Context, key deposit.Key, guard Guard, change Change) (*deposit.Record, error)
}

// RegistrationStore defines pending registration persistence
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, reg *deposit.Registration) error
	// FindPendingRegistration returns the oldest pending registration whose sender address
	// or correlation key matches. It returns deposit.ErrRegistrationNotFound otherwise.
	FindPendingRegistration(ctx context.Context, senderAddress, correlationKey string) (*deposit.Registration, error)
	MarkRegistrationMatched(ctx context.Context, userAddress string, key deposit.Key) error
}

// WebhookStore defines webhook sink persistence
type WebhookStore interface {
	CreateWebhook(ctx context.Context, hook *deposit.WebhookRegistration) error
	ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error)
	DeleteWebhook(ctx context.Context, id uuid.UUID) error
}

// StateStore defines persistence of the monitor state singleton
type StateStore interface {
	GetState(ctx context.Context) (*deposit.MonitorState, error)
	SetRunning(ctx context.Context, running bool) error
	SaveCheckpoint(ctx context.Context, checkpoint deposit.Checkpoint) error
	SaveStats(ctx context.Context, stats deposit.Stats) error
}

// Guard is the compare half of a conditional update.
type Guard struct {
	Status deposit.Status
	// RefundAttempts, when set, must equal the stored attempt counter.
	RefundAttempts *int
	// DueBy, when set, requires the next attempt to be unscheduled or due at DueBy.
	DueBy *time.Time
}

// Change is the swap half of a conditional update. Nil fields are left untouched.
type Change struct {
	Status               *deposit.Status
	Confirmations        *uint64
	VerificationAttempts *int
	RefundAttempts       *int
	RefundTxHash         *string
	RefundRawTx          []byte
	RefundDestination    *string
	ClearRefundTx        bool
	NextAttemptAt        *time.Time
	ClearNextAttempt     bool
	LastError            *string
}

// StatusGuard guards on status only.
func StatusGuard(status deposit.Status) Guard {
	return Guard{Status: status}
}

// AttemptGuard guards on status and the refund attempt counter.
func AttemptGuard(status deposit.Status, attempts int) Guard {
	return Guard{Status: status, RefundAttempts: &attempts}
}

// LeaseGuard guards on status, attempt counter and an expired next-attempt lease.
func LeaseGuard(status deposit.Status, attempts int, now time.Time) Guard {
	return Guard{Status: status, RefundAttempts: &attempts, DueBy: &now}
}

// QueryOptions defines filters for listing deposits
type QueryOptions struct {
	Status      *deposit.Status
	UserAddress *string
	DueBefore   *time.Time
	Limit       int
}

// QueryOption is a functional option for listing deposits
type QueryOption func(*QueryOptions)

// WithStatus filters deposits by status
func WithStatus(status deposit.Status) QueryOption {
	return func(o *QueryOptions) {
		o.Status = &status
	}
}

// WithUserAddress filters deposits by user address
func WithUserAddress(addr string) QueryOption {
	return func(o *QueryOptions) {
		a := deposit.NormalizeAddress(addr)
		o.UserAddress = &a
	}
}

// WithDueBefore keeps deposits with no next attempt scheduled or one scheduled at or before t
func WithDueBefore(t time.Time) QueryOption {
	return func(o *QueryOptions) {
		o.DueBefore = &t
	}
}

// WithLimit caps the number of results
func WithLimit(n int) QueryOption {
	return func(o *QueryOptions) {
		o.Limit = n
	}
}

func buildOptions(opts []QueryOption) *QueryOptions {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func applyChange(rec *deposit.Record, c Change, now time.Time) {
	if c.Status != nil {
		rec.Status = *c.Status
	}
	if c.Confirmations != nil {
		rec.Confirmations = *c.Confirmations
	}
	if c.VerificationAttempts != nil {
		rec.VerificationAttempts = *c.VerificationAttempts
	}
	if c.RefundAttempts != nil {
		rec.RefundAttempts = *c.RefundAttempts
	}
	if c.ClearRefundTx {
		rec.RefundTxHash = nil
		rec.RefundRawTx = nil
	}
	if c.RefundTxHash != nil {
		h := *c.RefundTxHash
		rec.RefundTxHash = &h
	}
	if c.RefundRawTx != nil {
		rec.RefundRawTx = append([]byte(nil), c.RefundRawTx...)
	}
	if c.RefundDestination != nil {
		d := *c.RefundDestination
		rec.RefundDestination = &d
	}
	if c.ClearNextAttempt {
		rec.NextAttemptAt = nil
	}
	if c.NextAttemptAt != nil {
		t := *c.NextAttemptAt
		rec.NextAttemptAt = &t
	}
	if c.LastError != nil {
		rec.LastError = *c.LastError
	}
	rec.UpdatedAt = now
}

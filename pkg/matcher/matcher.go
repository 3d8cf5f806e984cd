// Package matcher turns observed ledger transfers into deposit records.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/internal/metrics"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
)

// Matcher validates transfers, correlates them with pending registrations and
// persists one record per qualifying transfer.
type Matcher struct {
	store            depositstore.Store
	query            ledger.Query
	required         *big.Int
	minConfirmations uint64
	logger           *zap.Logger
}

// New creates a Matcher requiring transfers of exactly required base units.
func New(store depositstore.Store, query ledger.Query, required *big.Int, minConfirmations uint64, logger *zap.Logger) *Matcher {
	return &Matcher{
		store:            store,
		query:            query,
		required:         new(big.Int).Set(required),
		minConfirmations: minConfirmations,
		logger:           logger,
	}
}

// Ingest records tr. It returns deposit.ErrInvalidAmount without writing anything when
// the amount is not exactly the required deposit, and the existing record with
// created=false when the transfer was already observed.
func (m *Matcher) Ingest(ctx context.Context, tr deposit.Transfer) (*deposit.Record, bool, error) {
	if tr.Amount == nil || tr.Amount.Cmp(m.required) != 0 {
		metrics.TransfersObserved.WithLabelValues("invalid_amount").Inc()
		return nil, false, deposit.ErrInvalidAmount
	}

	rec, created, err := m.ingest(ctx, tr, true)
	if errors.Is(err, deposit.ErrUserHasActiveDeposit) {
		// Lost a race for the user's slot; keep the funds refundable.
		m.logger.Warn("Registered user gained an active deposit concurrently, recording as unmatched",
			zap.String("tx_hash", tr.TxHash),
			zap.Uint32("output_index", tr.OutputIndex))
		rec, created, err = m.ingest(ctx, tr, false)
	}
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("matcher", "ingest").Inc()
		return nil, false, err
	}

	switch {
	case !created:
		metrics.TransfersObserved.WithLabelValues("duplicate").Inc()
	case rec.Unmatched:
		metrics.TransfersObserved.WithLabelValues("unmatched").Inc()
	default:
		metrics.TransfersObserved.WithLabelValues("matched").Inc()
	}
	return rec, created, nil
}

func (m *Matcher) ingest(ctx context.Context, tr deposit.Transfer, allowMatch bool) (*deposit.Record, bool, error) {
	var (
		out     *deposit.Record
		created bool
	)

	err := m.store.RunInTx(ctx, func(ctx context.Context, tx depositstore.Store) error {
		existing, err := tx.GetDeposit(ctx, tr.Key())
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, deposit.ErrRecordNotFound) {
			return err
		}

		var reg *deposit.Registration
		if allowMatch {
			reg, err = m.findRegistration(ctx, tx, tr)
			if err != nil {
				return err
			}
		}

		rec := m.newRecord(tr, reg)
		if err := tx.CreateDeposit(ctx, rec); err != nil {
			return err
		}
		if reg != nil {
			if err := tx.MarkRegistrationMatched(ctx, reg.UserAddress, rec.Key()); err != nil {
				return fmt.Errorf("failed to mark registration matched: %w", err)
			}
		}

		out = rec
		created = true
		return nil
	})
	if errors.Is(err, deposit.ErrDuplicateObservation) {
		// Inserted by a concurrent ingest after our lookup.
		existing, getErr := m.store.GetDeposit(ctx, tr.Key())
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		m.logger.Info("Deposit recorded",
			zap.String("tx_hash", out.TxHash),
			zap.Uint32("output_index", out.OutputIndex),
			zap.String("user_address", out.UserAddress),
			zap.String("sender", out.SenderAddress),
			zap.String("status", string(out.Status)),
			zap.Bool("unmatched", out.Unmatched))
	}
	return out, created, nil
}

// findRegistration returns the pending registration for tr, or nil when none can take it.
func (m *Matcher) findRegistration(ctx context.Context, tx depositstore.Store, tr deposit.Transfer) (*deposit.Registration, error) {
	reg, err := tx.FindPendingRegistration(ctx, tr.From, tr.Reference)
	if errors.Is(err, deposit.ErrRegistrationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}

	active, err := tx.HasActiveDeposit(ctx, reg.UserAddress)
	if err != nil {
		return nil, err
	}
	if active {
		m.logger.Warn("Registration already has an active deposit",
			zap.String("user_address", reg.UserAddress),
			zap.String("tx_hash", tr.TxHash))
		return nil, nil
	}
	return reg, nil
}

func (m *Matcher) newRecord(tr deposit.Transfer, reg *deposit.Registration) *deposit.Record {
	rec := &deposit.Record{
		TxHash:        tr.TxHash,
		OutputIndex:   tr.OutputIndex,
		SenderAddress: deposit.NormalizeAddress(tr.From),
		Amount:        new(big.Int).Set(tr.Amount),
		Status:        deposit.StatusPending,
		BlockNumber:   tr.BlockNumber,
		Confirmations: tr.Confirmations,
	}
	if reg != nil {
		rec.UserAddress = reg.UserAddress
	} else {
		rec.UserAddress = deposit.PlaceholderUser(tr.Key())
		rec.Unmatched = true
	}
	if tr.Confirmations >= m.minConfirmations {
		rec.Status = deposit.StatusVerified
	}
	return rec
}

// VerifyPending promotes PENDING records whose transfers reached the required
// confirmations. It returns the records promoted to VERIFIED.
func (m *Matcher) VerifyPending(ctx context.Context) ([]*deposit.Record, error) {
	pending, err := m.store.ListDeposits(ctx, depositstore.WithStatus(deposit.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}

	var verified []*deposit.Record
	for _, rec := range pending {
		confirmations, err := m.query.Confirmations(ctx, rec.TxHash)
		if err != nil {
			if ledger.IsTransient(err) {
				return verified, err
			}
			m.logger.Warn("Failed to get confirmations",
				zap.String("tx_hash", rec.TxHash),
				zap.Error(err))
			continue
		}

		attempts := rec.VerificationAttempts + 1
		change := depositstore.Change{
			Confirmations:        &confirmations,
			VerificationAttempts: &attempts,
		}
		if confirmations >= m.minConfirmations {
			status := deposit.StatusVerified
			change.Status = &status
		}

		updated, err := m.store.UpdateDeposit(ctx, rec.Key(), depositstore.StatusGuard(deposit.StatusPending), change)
		if errors.Is(err, deposit.ErrClaimLost) {
			continue
		}
		if err != nil {
			return verified, fmt.Errorf("failed to update deposit %s: %w", rec.Key(), err)
		}
		if updated.Status == deposit.StatusVerified {
			m.logger.Info("Deposit verified",
				zap.String("tx_hash", updated.TxHash),
				zap.Uint32("output_index", updated.OutputIndex),
				zap.Uint64("confirmations", confirmations),
				zap.Int("attempt", attempts))
			verified = append(verified, updated)
		}
	}
	return verified, nil
}

// Package dispatcher claims verified deposits and returns their funds to the sender.
//
// A record is claimed with a conditional VERIFIED -> REFUND_PENDING update before any
// transfer is built, so concurrent passes can never both refund it. The signed
// transfer is stored on the claimed row before it is broadcast. A REFUND_PENDING row
// without a transfer hash therefore never reached the ledger, and one with a hash is
// checked against the ledger before anything is resubmitted.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chainsafe/deposit-monitor/internal/metrics"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
)

var errReverted = errors.New("refund transfer reverted")

// Dispatcher issues refunds for verified deposits.
type Dispatcher struct {
	store     depositstore.Store
	submitter ledger.Submitter
	cfg       config.RefundConfig
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Dispatcher.
func New(store depositstore.Store, submitter ledger.Submitter, cfg config.RefundConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the dispatcher's time source.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Option customizes a single dispatch.
type Option func(*options)

type options struct {
	destination string
}

// WithDestination overrides the refund destination. The record's sender is still logged.
func WithDestination(addr string) Option {
	return func(o *options) {
		o.destination = addr
	}
}

// Result summarizes a dispatch or recovery pass.
type Result struct {
	Refunded []*deposit.Record
	Failed   []*deposit.Record
	Retrying int
	Skipped  int
}

func (r *Result) merge(o *Result) {
	r.Refunded = append(r.Refunded, o.Refunded...)
	r.Failed = append(r.Failed, o.Failed...)
	r.Retrying += o.Retrying
	r.Skipped += o.Skipped
}

// Dispatch claims rec and refunds it. It returns deposit.ErrNotRefundable for records
// that are not VERIFIED and deposit.ErrClaimLost when another pass claimed it first.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *deposit.Record, opts ...Option) (string, error) {
	out, err := d.dispatch(ctx, rec, opts...)
	if out != nil && out.RefundTxHash != nil {
		return *out.RefundTxHash, err
	}
	return "", err
}

func (d *Dispatcher) dispatch(ctx context.Context, rec *deposit.Record, opts ...Option) (*deposit.Record, error) {
	if rec.Status != deposit.StatusVerified {
		return nil, fmt.Errorf("%w: %s is %s", deposit.ErrNotRefundable, rec.Key(), rec.Status)
	}

	o := &options{destination: rec.SenderAddress}
	for _, opt := range opts {
		opt(o)
	}
	dest := deposit.NormalizeAddress(o.destination)
	if dest == "" {
		return nil, fmt.Errorf("%w: %s has no refund destination", deposit.ErrNotRefundable, rec.Key())
	}

	now := d.now()
	leaseUntil := now.Add(d.cfg.ClaimLease)
	pending := deposit.StatusRefundPending
	noError := ""
	claimed, err := d.store.UpdateDeposit(ctx, rec.Key(),
		depositstore.StatusGuard(deposit.StatusVerified),
		depositstore.Change{
			Status:            &pending,
			RefundDestination: &dest,
			NextAttemptAt:     &leaseUntil,
			LastError:         &noError,
		})
	if errors.Is(err, deposit.ErrClaimLost) {
		d.logger.Warn("Refund already claimed, skipping",
			zap.String("tx_hash", rec.TxHash),
			zap.Uint32("output_index", rec.OutputIndex))
		metrics.RefundsTotal.WithLabelValues("skipped").Inc()
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim %s: %w", rec.Key(), err)
	}

	fields := []zap.Field{
		zap.String("tx_hash", claimed.TxHash),
		zap.Uint32("output_index", claimed.OutputIndex),
		zap.String("sender", claimed.SenderAddress),
		zap.String("destination", dest),
		zap.Int("attempt", claimed.RefundAttempts+1),
	}
	if dest != claimed.SenderAddress {
		d.logger.Warn("Refund destination overridden", fields...)
	} else {
		d.logger.Info("Refund claimed", fields...)
	}

	start := time.Now()
	defer func() { metrics.RefundDuration.Observe(time.Since(start).Seconds()) }()
	return d.submit(ctx, claimed, dest)
}

// submit builds a fresh transfer for a claimed record, stores it and broadcasts it.
func (d *Dispatcher) submit(ctx context.Context, rec *deposit.Record, dest string) (*deposit.Record, error) {
	st, err := d.submitter.Prepare(ctx, dest, rec.Amount)
	if err != nil {
		return d.fail(ctx, rec, fmt.Errorf("failed to prepare refund: %w", err))
	}

	hash := st.Hash
	stored, err := d.store.UpdateDeposit(ctx, rec.Key(),
		depositstore.AttemptGuard(deposit.StatusRefundPending, rec.RefundAttempts),
		depositstore.Change{
			RefundTxHash: &hash,
			RefundRawTx:  st.Raw,
		})
	if err != nil {
		// Nothing was broadcast; the claim lease expires and recovery rebuilds.
		d.submitter.Release(st)
		return nil, fmt.Errorf("failed to store refund transfer for %s: %w", rec.Key(), err)
	}

	return d.broadcast(ctx, stored, st)
}

func (d *Dispatcher) broadcast(ctx context.Context, rec *deposit.Record, st *ledger.SignedTransfer) (*deposit.Record, error) {
	if err := d.submitter.Broadcast(ctx, st); err != nil {
		return d.fail(ctx, rec, err)
	}
	return d.complete(ctx, rec)
}

// complete marks a record whose stored transfer was accepted by the ledger as REFUNDED.
func (d *Dispatcher) complete(ctx context.Context, rec *deposit.Record) (*deposit.Record, error) {
	refunded := deposit.StatusRefunded
	noError := ""
	out, err := d.store.UpdateDeposit(ctx, rec.Key(),
		depositstore.AttemptGuard(deposit.StatusRefundPending, rec.RefundAttempts),
		depositstore.Change{
			Status:           &refunded,
			ClearNextAttempt: true,
			LastError:        &noError,
		})
	if err != nil {
		// The transfer is out; recovery finds it on the ledger.
		return nil, fmt.Errorf("failed to mark %s refunded: %w", rec.Key(), err)
	}

	metrics.RefundsTotal.WithLabelValues("refunded").Inc()
	d.logger.Info("Refund completed",
		zap.String("tx_hash", out.TxHash),
		zap.Uint32("output_index", out.OutputIndex),
		zap.String("refund_tx_hash", derefString(out.RefundTxHash)),
		zap.String("sender", out.SenderAddress))
	return out, nil
}

// fail records a failed attempt. Ambiguous broadcasts keep their transfer and stay
// REFUND_PENDING until the ledger can be checked. Timeouts are retried indefinitely;
// other failures drop the transfer and move the record to FAILED once attempts are
// exhausted.
func (d *Dispatcher) fail(ctx context.Context, rec *deposit.Record, cause error) (*deposit.Record, error) {
	attempts := rec.RefundAttempts + 1
	ambiguous := errors.Is(cause, ledger.ErrMaybeSubmitted)
	transient := ambiguous || ledger.IsTransient(cause)
	msg := cause.Error()

	change := depositstore.Change{
		RefundAttempts: &attempts,
		LastError:      &msg,
	}
	if !ambiguous {
		change.ClearRefundTx = true
	}

	exhausted := !transient && attempts >= d.cfg.MaxAttempts
	if exhausted {
		failed := deposit.StatusFailed
		change.Status = &failed
		change.ClearNextAttempt = true
		if rec.RefundTxHash != nil {
			msg = fmt.Sprintf("%s (last refund tx %s)", msg, *rec.RefundTxHash)
		}
	} else {
		next := d.now().Add(d.Backoff(attempts))
		change.NextAttemptAt = &next
	}

	out, err := d.store.UpdateDeposit(ctx, rec.Key(),
		depositstore.AttemptGuard(deposit.StatusRefundPending, rec.RefundAttempts), change)
	if err != nil {
		return nil, fmt.Errorf("failed to record refund failure for %s (%v): %w", rec.Key(), cause, err)
	}

	fields := []zap.Field{
		zap.String("tx_hash", out.TxHash),
		zap.Uint32("output_index", out.OutputIndex),
		zap.Int("attempt", attempts),
		zap.Bool("ambiguous", ambiguous),
		zap.Error(cause),
	}
	if exhausted {
		metrics.RefundsTotal.WithLabelValues("failed").Inc()
		d.logger.Error("Refund failed permanently, operator action required", fields...)
	} else {
		metrics.RefundsTotal.WithLabelValues("retry").Inc()
		d.logger.Warn("Refund attempt failed, will retry",
			append(fields, zap.Timep("next_attempt_at", out.NextAttemptAt))...)
	}
	return out, fmt.Errorf("%w: %w", deposit.ErrRefundSubmission, cause)
}

// Backoff returns the delay before attempt+1, doubling from BaseBackoff up to MaxBackoff.
func (d *Dispatcher) Backoff(attempt int) time.Duration {
	delay := d.cfg.BaseBackoff
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if delay >= d.cfg.MaxBackoff/2 {
			return d.cfg.MaxBackoff
		}
		delay *= 2
	}
	if delay > d.cfg.MaxBackoff {
		return d.cfg.MaxBackoff
	}
	return delay
}

// Refund is the operator entry point: it dispatches a VERIFIED record, first resetting
// a FAILED one to VERIFIED with a fresh attempt budget. It returns the record as the
// dispatch left it, nil when the record was never claimed.
func (d *Dispatcher) Refund(ctx context.Context, key deposit.Key, opts ...Option) (*deposit.Record, error) {
	rec, err := d.store.GetDeposit(ctx, key)
	if err != nil {
		return nil, err
	}

	if rec.Status == deposit.StatusFailed {
		verified := deposit.StatusVerified
		zero := 0
		rec, err = d.store.UpdateDeposit(ctx, key,
			depositstore.StatusGuard(deposit.StatusFailed),
			depositstore.Change{
				Status:           &verified,
				RefundAttempts:   &zero,
				ClearRefundTx:    true,
				ClearNextAttempt: true,
			})
		if err != nil {
			return nil, fmt.Errorf("failed to reset %s: %w", key, err)
		}
		d.logger.Info("Failed refund reset for manual retry",
			zap.String("tx_hash", key.TxHash),
			zap.Uint32("output_index", key.OutputIndex))
	}

	return d.dispatch(ctx, rec, opts...)
}

// Run dispatches up to BatchSize VERIFIED records through a bounded worker pool.
func (d *Dispatcher) Run(ctx context.Context) (*Result, error) {
	verified, err := d.store.ListDeposits(ctx,
		depositstore.WithStatus(deposit.StatusVerified),
		depositstore.WithLimit(d.cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list verified deposits: %w", err)
	}
	return d.pool(ctx, verified, func(ctx context.Context, rec *deposit.Record) (*deposit.Record, error) {
		return d.dispatch(ctx, rec)
	})
}

// Recover resumes REFUND_PENDING records whose next attempt is due.
func (d *Dispatcher) Recover(ctx context.Context) (*Result, error) {
	due, err := d.store.ListDeposits(ctx,
		depositstore.WithStatus(deposit.StatusRefundPending),
		depositstore.WithDueBefore(d.now()),
		depositstore.WithLimit(d.cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending refunds: %w", err)
	}
	return d.pool(ctx, due, d.recover)
}

func (d *Dispatcher) recover(ctx context.Context, rec *deposit.Record) (*deposit.Record, error) {
	now := d.now()
	leaseUntil := now.Add(d.cfg.ClaimLease)
	claimed, err := d.store.UpdateDeposit(ctx, rec.Key(),
		depositstore.LeaseGuard(deposit.StatusRefundPending, rec.RefundAttempts, now),
		depositstore.Change{NextAttemptAt: &leaseUntil})
	if err != nil {
		return nil, err
	}

	dest := claimed.SenderAddress
	if claimed.RefundDestination != nil && *claimed.RefundDestination != "" {
		dest = *claimed.RefundDestination
	}

	if claimed.RefundTxHash == nil {
		d.logger.Info("Resuming refund with nothing broadcast",
			zap.String("tx_hash", claimed.TxHash),
			zap.Uint32("output_index", claimed.OutputIndex),
			zap.Int("attempt", claimed.RefundAttempts+1))
		return d.submit(ctx, claimed, dest)
	}

	hash := *claimed.RefundTxHash
	state, err := d.submitter.Lookup(ctx, hash)
	if err != nil {
		d.logger.Warn("Refund lookup failed, retrying after lease",
			zap.String("tx_hash", claimed.TxHash),
			zap.String("refund_tx_hash", hash),
			zap.Error(err))
		return claimed, err
	}

	d.logger.Info("Resuming refund",
		zap.String("tx_hash", claimed.TxHash),
		zap.Uint32("output_index", claimed.OutputIndex),
		zap.String("refund_tx_hash", hash),
		zap.Stringer("ledger_state", state))

	switch state {
	case ledger.TxConfirmed, ledger.TxPending:
		return d.complete(ctx, claimed)
	case ledger.TxReverted:
		return d.fail(ctx, claimed, fmt.Errorf("%w: %s", errReverted, hash))
	}

	if len(claimed.RefundRawTx) == 0 {
		return d.resign(ctx, claimed, dest)
	}
	st := &ledger.SignedTransfer{Hash: hash, Raw: claimed.RefundRawTx, To: dest, Amount: claimed.Amount}
	err = d.submitter.Broadcast(ctx, st)
	if errors.Is(err, ledger.ErrNonceTooLow) {
		// The nonce was consumed; make sure it was not by this very transfer.
		if state, lookupErr := d.submitter.Lookup(ctx, hash); lookupErr == nil && state != ledger.TxUnknown && state != ledger.TxReverted {
			return d.complete(ctx, claimed)
		}
		return d.resign(ctx, claimed, dest)
	}
	if err != nil {
		return d.fail(ctx, claimed, err)
	}
	return d.complete(ctx, claimed)
}

func (d *Dispatcher) resign(ctx context.Context, rec *deposit.Record, dest string) (*deposit.Record, error) {
	d.logger.Info("Stored refund transfer is stale, signing a new one",
		zap.String("tx_hash", rec.TxHash),
		zap.Uint32("output_index", rec.OutputIndex),
		zap.String("refund_tx_hash", derefString(rec.RefundTxHash)))
	return d.submit(ctx, rec, dest)
}

type workFn func(ctx context.Context, rec *deposit.Record) (*deposit.Record, error)

// pool runs fn over recs with at most Workers in flight. A failing record never
// cancels the others, so a submission already sent is always followed up.
func (d *Dispatcher) pool(ctx context.Context, recs []*deposit.Record, fn workFn) (*Result, error) {
	var (
		mu       sync.Mutex
		result   = &Result{}
		firstErr error
	)

	workers := d.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, rec := range recs {
		g.Go(func() error {
			out, err := fn(ctx, rec)
			partial := Summarize(out, err)

			mu.Lock()
			defer mu.Unlock()
			result.merge(partial)
			if err != nil && !expected(err) && firstErr == nil {
				firstErr = err
			}
			return nil
		})
	}
	_ = g.Wait()

	return result, firstErr
}

// Summarize files the outcome of one dispatch or recovery into a Result.
func Summarize(out *deposit.Record, err error) *Result {
	r := &Result{}
	switch {
	case errors.Is(err, deposit.ErrClaimLost):
		r.Skipped++
	case err == nil && out != nil && out.Status == deposit.StatusRefunded:
		r.Refunded = append(r.Refunded, out)
	case out != nil && out.Status == deposit.StatusFailed:
		r.Failed = append(r.Failed, out)
	default:
		r.Retrying++
	}
	return r
}

// expected reports errors handled by the record's own retry schedule.
func expected(err error) bool {
	return errors.Is(err, deposit.ErrClaimLost) ||
		errors.Is(err, deposit.ErrRefundSubmission) ||
		ledger.IsTransient(err)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

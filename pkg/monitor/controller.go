// Package monitor owns the reconciliation loop: it polls the ledger, ingests
// transfers, dispatches refunds, keeps statistics and reports health.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/internal/metrics"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/dispatcher"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
	"github.com/chainsafe/deposit-monitor/pkg/lock"
	"github.com/chainsafe/deposit-monitor/pkg/webhook"
)

const cycleLockName = "cycle"

var (
	// ErrCycleBusy is returned by TriggerOnce when another replica holds the cycle lock.
	ErrCycleBusy = errors.New("reconciliation cycle running on another replica")

	// ErrInvalidWebhookURL is returned when registering a webhook with a malformed URL.
	ErrInvalidWebhookURL = errors.New("webhook url must be an absolute http(s) url")
)

// Poller fetches transfers after a checkpoint.
type Poller interface {
	Poll(ctx context.Context, since deposit.Checkpoint) ([]deposit.Transfer, deposit.Checkpoint, error)
}

// Matcher records transfers and promotes confirmed ones.
type Matcher interface {
	Ingest(ctx context.Context, tr deposit.Transfer) (*deposit.Record, bool, error)
	VerifyPending(ctx context.Context) ([]*deposit.Record, error)
}

// Dispatcher refunds verified records and resumes interrupted refunds.
type Dispatcher interface {
	Run(ctx context.Context) (*dispatcher.Result, error)
	Recover(ctx context.Context) (*dispatcher.Result, error)
	Refund(ctx context.Context, key deposit.Key, opts ...dispatcher.Option) (*deposit.Record, error)
}

// Notifier delivers webhook events.
type Notifier interface {
	Notify(e webhook.Event) bool
	TestWebhook(ctx context.Context, url, secret string) error
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Store      depositstore.Store
	Poller     Poller
	Matcher    Matcher
	Dispatcher Dispatcher
	Notifier   Notifier
	// Locker is optional and serializes cycles across replicas.
	Locker lock.Locker
}

// CycleReport summarizes one reconciliation cycle.
type CycleReport struct {
	Trigger    string             `json:"trigger"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration_ns"`
	Transfers  int                `json:"transfers"`
	Detected   int                `json:"detected"`
	Unmatched  int                `json:"unmatched"`
	Duplicates int                `json:"duplicates"`
	Ignored    int                `json:"ignored"`
	Verified   int                `json:"verified"`
	Refunded   int                `json:"refunded"`
	Failed     int                `json:"failed"`
	Retrying   int                `json:"retrying"`
	Skipped    int                `json:"skipped"`
	Checkpoint deposit.Checkpoint `json:"checkpoint"`
	Error      string             `json:"error,omitempty"`
}

// Controller is the monitor state machine: STOPPED -> RUNNING -> STOPPED.
type Controller struct {
	deps     Deps
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	// cycleMu keeps one cycle at a time in this process.
	cycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a stopped Controller.
func New(deps Deps, cfg config.MonitorConfig, logger *zap.Logger) *Controller {
	return &Controller{
		deps:     deps,
		interval: cfg.Interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Init restores the persisted running flag, starting the loop if it was running
// before the restart or autoStart is set.
func (c *Controller) Init(ctx context.Context, autoStart bool) error {
	state, err := c.deps.Store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monitor state: %w", err)
	}
	metrics.LastCheckpoint.Set(float64(state.LastCheckpoint))

	if state.Running || autoStart {
		c.logger.Info("Resuming monitor loop",
			zap.Bool("persisted_running", state.Running),
			zap.Uint64("checkpoint", uint64(state.LastCheckpoint)))
		return c.Start(ctx)
	}
	return nil
}

// Start launches the timed loop. It is a no-op when already running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if err := c.deps.Store.SetRunning(ctx, true); err != nil {
		return fmt.Errorf("failed to persist running flag: %w", err)
	}

	c.running = true
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stopCh, c.done)

	metrics.Running.Set(1)
	c.logger.Info("Monitor started", zap.Duration("interval", c.interval))
	return nil
}

// Stop prevents further cycles and waits for an in-flight cycle to finish, or for ctx.
// It is a no-op when already stopped.
func (c *Controller) Stop(ctx context.Context) error {
	return c.halt(ctx, true)
}

// Shutdown halts the loop for process exit. The persisted running flag is kept so
// Init resumes the loop on the next start.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.halt(ctx, false)
}

func (c *Controller) halt(ctx context.Context, persist bool) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		if !persist {
			return nil
		}
		return c.deps.Store.SetRunning(ctx, false)
	}
	c.running = false
	close(c.stopCh)
	done := c.done
	c.mu.Unlock()

	metrics.Running.Set(0)
	if persist {
		if err := c.deps.Store.SetRunning(ctx, false); err != nil {
			return fmt.Errorf("failed to persist running flag: %w", err)
		}
	}

	select {
	case <-done:
		c.logger.Info("Monitor stopped", zap.Bool("persisted", persist))
		return nil
	case <-ctx.Done():
		c.logger.Warn("Monitor stop requested, cycle still in flight")
		return nil
	}
}

// Running reports whether the loop is running in this process.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Monitor loop crashed", zap.Any("panic", r), zap.Stack("stack"))
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			metrics.Running.Set(0)
		}
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if _, err := c.serialCycle(context.Background(), "timer"); err != nil && !errors.Is(err, ErrCycleBusy) {
			c.logger.Error("Reconciliation cycle failed", zap.Error(err))
		}

		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
		select {
		case <-stopCh:
			return
		default:
		}
	}
}

// TriggerOnce runs one cycle now, after any cycle already in progress. Cancelling
// ctx does not interrupt refunds already being submitted. Transient ledger errors
// are reported in the CycleReport only.
func (c *Controller) TriggerOnce(ctx context.Context) (*CycleReport, error) {
	report, err := c.serialCycle(context.WithoutCancel(ctx), "manual")
	return report, withoutTransient(err)
}

// withoutTransient drops the transient parts of a cycle error.
func withoutTransient(err error) error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		if ledger.IsTransient(err) {
			return nil
		}
		return err
	}
	var fatal []error
	for _, e := range joined.Unwrap() {
		if e := withoutTransient(e); e != nil {
			fatal = append(fatal, e)
		}
	}
	return errors.Join(fatal...)
}

// Refund dispatches an operator-requested refund for one deposit between cycles and
// counts its outcome like a cycle would. It returns the refund transfer hash when one
// was stored.
func (c *Controller) Refund(ctx context.Context, key deposit.Key, opts ...dispatcher.Option) (string, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	out, err := c.deps.Dispatcher.Refund(context.WithoutCancel(ctx), key, opts...)

	res := dispatcher.Summarize(out, err)
	if len(res.Refunded) > 0 || len(res.Failed) > 0 {
		report := &CycleReport{Trigger: "refund"}
		c.applyResult(report, res)
		if saveErr := c.saveStats(ctx, func(stats *deposit.Stats) {
			stats.Refunded += int64(report.Refunded)
			stats.Failed += int64(report.Failed)
		}); saveErr != nil {
			c.logger.Error("Failed to save monitor stats", zap.Error(saveErr))
		}
		c.updateGauges(ctx)
	}

	if out != nil && out.RefundTxHash != nil {
		return *out.RefundTxHash, err
	}
	return "", err
}

func (c *Controller) serialCycle(ctx context.Context, trigger string) (*CycleReport, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if c.deps.Locker != nil {
		lease, ok, err := c.deps.Locker.TryAcquire(ctx, cycleLockName)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire cycle lock: %w", err)
		}
		if !ok {
			c.logger.Debug("Cycle lock held elsewhere, skipping", zap.String("trigger", trigger))
			return nil, ErrCycleBusy
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("Failed to release cycle lock", zap.Error(err))
			}
		}()
	}

	return c.cycle(ctx, trigger)
}

// cycle runs poll, ingest, verify, recover and dispatch once. Safety against double
// refunds comes from the store's conditional claims, not from cycleMu.
func (c *Controller) cycle(ctx context.Context, trigger string) (*CycleReport, error) {
	start := c.now()
	report := &CycleReport{Trigger: trigger, StartedAt: start}

	var errs []error
	fail := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	state, err := c.deps.Store.GetState(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load monitor state: %w", err)
		c.finish(ctx, report, start, err)
		return report, err
	}
	report.Checkpoint = state.LastCheckpoint

	transfers, checkpoint, pollErr := c.deps.Poller.Poll(ctx, state.LastCheckpoint)
	fail(pollErr)
	report.Transfers = len(transfers)

	ingestOK := true
	for _, tr := range transfers {
		rec, created, err := c.deps.Matcher.Ingest(ctx, tr)
		switch {
		case errors.Is(err, deposit.ErrInvalidAmount):
			report.Ignored++
			c.logger.Debug("Ignoring transfer with wrong amount",
				zap.String("tx_hash", tr.TxHash),
				zap.Uint32("output_index", tr.OutputIndex),
				zap.Stringer("amount", tr.Amount))
		case err != nil:
			ingestOK = false
			fail(fmt.Errorf("failed to ingest %s: %w", tr.Key(), err))
		case !created:
			report.Duplicates++
		default:
			report.Detected++
			if rec.Unmatched {
				report.Unmatched++
			}
			c.notify(webhook.EventDepositDetected, rec)
		}
	}

	// The checkpoint only moves once every transfer up to it is stored.
	if pollErr == nil && ingestOK && checkpoint > state.LastCheckpoint {
		if err := c.deps.Store.SaveCheckpoint(ctx, checkpoint); err != nil {
			fail(fmt.Errorf("failed to save checkpoint: %w", err))
		} else {
			report.Checkpoint = checkpoint
			metrics.LastCheckpoint.Set(float64(checkpoint))
		}
	}

	verified, err := c.deps.Matcher.VerifyPending(ctx)
	fail(err)
	report.Verified = len(verified)

	recovered, err := c.deps.Dispatcher.Recover(ctx)
	fail(err)
	c.applyResult(report, recovered)

	dispatched, err := c.deps.Dispatcher.Run(ctx)
	fail(err)
	c.applyResult(report, dispatched)

	cycleErr := errors.Join(errs...)
	c.finish(ctx, report, start, cycleErr)
	return report, cycleErr
}

func (c *Controller) applyResult(report *CycleReport, res *dispatcher.Result) {
	if res == nil {
		return
	}
	report.Refunded += len(res.Refunded)
	report.Failed += len(res.Failed)
	report.Retrying += res.Retrying
	report.Skipped += res.Skipped
	for _, rec := range res.Refunded {
		c.notify(webhook.EventRefundCompleted, rec)
	}
	for _, rec := range res.Failed {
		c.notify(webhook.EventRefundFailed, rec)
	}
}

func (c *Controller) notify(t webhook.EventType, rec *deposit.Record) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(webhook.NewDepositEvent(t, rec))
}

// finish folds the cycle into the persisted stats.
func (c *Controller) finish(ctx context.Context, report *CycleReport, start time.Time, cycleErr error) {
	end := c.now()
	report.Duration = end.Sub(start)

	status := "success"
	if cycleErr != nil {
		status = "error"
		report.Error = cycleErr.Error()
	}
	metrics.CyclesTotal.WithLabelValues(report.Trigger, status).Inc()
	metrics.CycleDuration.WithLabelValues(report.Trigger).Observe(report.Duration.Seconds())

	err := c.saveStats(ctx, func(stats *deposit.Stats) {
		stats.Processed += int64(report.Detected)
		stats.Unmatched += int64(report.Unmatched)
		stats.Refunded += int64(report.Refunded)
		stats.Failed += int64(report.Failed)
		stats.LastRunAt = &end
		if cycleErr != nil {
			stats.LastError = cycleErr.Error()
		} else {
			stats.LastError = ""
			stats.LastSuccessAt = &end
		}
	})
	if err != nil {
		c.logger.Error("Failed to save monitor stats", zap.Error(err))
	}

	c.updateGauges(ctx)

	fields := []zap.Field{
		zap.String("trigger", report.Trigger),
		zap.Duration("duration", report.Duration),
		zap.Int("transfers", report.Transfers),
		zap.Int("detected", report.Detected),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("refunded", report.Refunded),
		zap.Int("failed", report.Failed),
		zap.Uint64("checkpoint", uint64(report.Checkpoint)),
	}
	if cycleErr != nil {
		c.logger.Warn("Reconciliation cycle completed with errors", append(fields, zap.Error(cycleErr))...)
		return
	}
	c.logger.Info("Reconciliation cycle completed", fields...)
}

// saveStats applies fold to the persisted stats in one transaction.
func (c *Controller) saveStats(ctx context.Context, fold func(*deposit.Stats)) error {
	return c.deps.Store.RunInTx(ctx, func(ctx context.Context, tx depositstore.Store) error {
		state, err := tx.GetState(ctx)
		if err != nil {
			return err
		}
		stats := state.Stats
		fold(&stats)
		return tx.SaveStats(ctx, stats)
	})
}

func (c *Controller) updateGauges(ctx context.Context) {
	for _, status := range []deposit.Status{
		deposit.StatusPending,
		deposit.StatusVerified,
		deposit.StatusRefundPending,
		deposit.StatusRefunded,
		deposit.StatusFailed,
	} {
		n, err := c.deps.Store.CountDeposits(ctx, status)
		if err != nil {
			return
		}
		metrics.DepositsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// GetStats returns the persisted statistics.
func (c *Controller) GetStats(ctx context.Context) (deposit.Stats, error) {
	state, err := c.deps.Store.GetState(ctx)
	if err != nil {
		return deposit.Stats{}, fmt.Errorf("failed to load monitor state: %w", err)
	}
	return state.Stats, nil
}

// ResetStats zeroes the counters. Deposit records are never touched.
func (c *Controller) ResetStats(ctx context.Context) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	state, err := c.deps.Store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monitor state: %w", err)
	}
	stats := deposit.Stats{
		LastError:     state.Stats.LastError,
		LastRunAt:     state.Stats.LastRunAt,
		LastSuccessAt: state.Stats.LastSuccessAt,
	}
	if err := c.deps.Store.SaveStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to reset stats: %w", err)
	}
	c.logger.Info("Monitor stats reset")
	return nil
}

// RegisterWebhook stores a new webhook sink.
func (c *Controller) RegisterWebhook(ctx context.Context, rawURL, secret string) (*deposit.WebhookRegistration, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidWebhookURL
	}

	hook := &deposit.WebhookRegistration{
		ID:     uuid.New(),
		URL:    rawURL,
		Secret: secret,
	}
	if err := c.deps.Store.CreateWebhook(ctx, hook); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}
	c.logger.Info("Webhook registered", zap.String("webhook_id", hook.ID.String()), zap.String("url", rawURL))
	return hook, nil
}

// TestWebhook sends a synthetic event to url and reports whether it was accepted.
func (c *Controller) TestWebhook(ctx context.Context, rawURL, secret string) error {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return ErrInvalidWebhookURL
	}
	if c.deps.Notifier == nil {
		return errors.New("webhook notifier not configured")
	}
	return c.deps.Notifier.TestWebhook(ctx, rawURL, secret)
}

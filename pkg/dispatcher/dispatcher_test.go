package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
	"github.com/chainsafe/deposit-monitor/pkg/ledger/ledgertest"
)

var amount = big.NewInt(1_000_000)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// hashWriteFailingStore refuses to store refund transfer hashes.
type hashWriteFailingStore struct {
	depositstore.Store
	err error
}

func (s hashWriteFailingStore) UpdateDeposit(ctx context.Context, key deposit.Key, guard depositstore.Guard, change depositstore.Change) (*deposit.Record, error) {
	if change.RefundTxHash != nil {
		return nil, s.err
	}
	return s.Store.UpdateDeposit(ctx, key, guard, change)
}

type fixture struct {
	store  depositstore.Store
	ledger *ledgertest.Fake
	clock  *clock
	cfg    config.RefundConfig
	d      *Dispatcher
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	f := &fixture{
		store:  depositstore.NewMemoryStore(),
		ledger: ledgertest.New(),
		clock:  &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		cfg: config.RefundConfig{
			Workers:     4,
			MaxAttempts: maxAttempts,
			BaseBackoff: time.Second,
			MaxBackoff:  10 * time.Second,
			ClaimLease:  time.Minute,
			BatchSize:   100,
		},
	}
	f.d = New(f.store, f.ledger, f.cfg, zap.NewNop()).WithClock(f.clock.Now)
	return f
}

func (f *fixture) seed(t *testing.T, hash string, idx uint32, sender string) *deposit.Record {
	t.Helper()
	key := deposit.Key{TxHash: hash, OutputIndex: idx}
	rec := &deposit.Record{
		TxHash:        hash,
		OutputIndex:   idx,
		UserAddress:   deposit.PlaceholderUser(key),
		SenderAddress: sender,
		Amount:        amount,
		Status:        deposit.StatusVerified,
		Unmatched:     true,
	}
	if err := f.store.CreateDeposit(context.Background(), rec); err != nil {
		t.Fatalf("CreateDeposit() failed: %v", err)
	}
	return f.get(t, rec)
}

func (f *fixture) get(t *testing.T, rec *deposit.Record) *deposit.Record {
	t.Helper()
	got, err := f.store.GetDeposit(context.Background(), rec.Key())
	if err != nil {
		t.Fatalf("GetDeposit() failed: %v", err)
	}
	return got
}

func (f *fixture) recover(t *testing.T) *Result {
	t.Helper()
	res, err := f.d.Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover() failed: %v", err)
	}
	return res
}

func TestDispatch_Refunds(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	hash, err := f.d.Dispatch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected a refund hash")
	}

	got := f.get(t, rec)
	if got.Status != deposit.StatusRefunded {
		t.Fatalf("expected REFUNDED, got %s", got.Status)
	}
	if got.RefundTxHash == nil || *got.RefundTxHash != hash {
		t.Fatalf("expected stored hash %s, got %v", hash, got.RefundTxHash)
	}
	if got.NextAttemptAt != nil {
		t.Errorf("expected no next attempt, got %v", got.NextAttemptAt)
	}

	subs := f.ledger.Submissions()
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	if subs[0].To != "0xa" || subs[0].Amount.Cmp(amount) != 0 {
		t.Errorf("unexpected submission to %s of %s", subs[0].To, subs[0].Amount)
	}
}

func TestDispatch_OnlyVerified(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")
	rec.Status = deposit.StatusPending

	if _, err := f.d.Dispatch(context.Background(), rec); !errors.Is(err, deposit.ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
	if n := len(f.ledger.Submissions()); n != 0 {
		t.Fatalf("expected no submissions, got %d", n)
	}
}

func TestDispatch_ConcurrentClaimsRefundOnce(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	const n = 32
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.d.Dispatch(context.Background(), rec.Clone())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, deposit.ErrClaimLost):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || losses != n-1 {
		t.Fatalf("expected 1 win and %d losses, got %d and %d", n-1, wins, losses)
	}
	if len(f.ledger.Submissions()) != 1 || f.ledger.Prepared() != 1 {
		t.Fatalf("expected exactly one transfer, got %d submitted and %d prepared",
			len(f.ledger.Submissions()), f.ledger.Prepared())
	}
}

func TestDispatch_DestinationOverride(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	if _, err := f.d.Dispatch(context.Background(), rec, WithDestination("0xOperator")); err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}

	got := f.get(t, rec)
	if got.SenderAddress != "0xa" {
		t.Errorf("sender changed to %s", got.SenderAddress)
	}
	if got.RefundDestination == nil || *got.RefundDestination != "0xoperator" {
		t.Fatalf("expected destination 0xoperator, got %v", got.RefundDestination)
	}
	if f.ledger.SubmissionsTo("0xoperator") != 1 || f.ledger.SubmissionsTo("0xa") != 0 {
		t.Fatal("expected the refund to go to the override only")
	}
}

func TestDispatch_RejectedThenRecovered(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return errors.New("insufficient funds")
	})

	if _, err := f.d.Dispatch(context.Background(), rec); !errors.Is(err, deposit.ErrRefundSubmission) {
		t.Fatalf("expected ErrRefundSubmission, got %v", err)
	}

	got := f.get(t, rec)
	if got.Status != deposit.StatusRefundPending || got.RefundAttempts != 1 {
		t.Fatalf("expected REFUND_PENDING after 1 attempt, got %s after %d", got.Status, got.RefundAttempts)
	}
	if got.RefundTxHash != nil {
		t.Errorf("expected the rejected transfer dropped, got %s", *got.RefundTxHash)
	}
	if want := f.clock.Now().Add(time.Second); got.NextAttemptAt == nil || !got.NextAttemptAt.Equal(want) {
		t.Errorf("expected next attempt at %v, got %v", want, got.NextAttemptAt)
	}
	if !strings.Contains(got.LastError, "insufficient funds") {
		t.Errorf("unexpected last error %q", got.LastError)
	}

	// Not due yet.
	if res := f.recover(t); len(res.Refunded) != 0 || len(f.ledger.Submissions()) != 0 {
		t.Fatal("expected nothing recovered before the backoff elapsed")
	}

	f.ledger.SetBroadcastHook(nil)
	f.clock.Advance(2 * time.Second)

	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}

	got = f.get(t, rec)
	if got.Status != deposit.StatusRefunded || got.RefundAttempts != 1 || got.LastError != "" {
		t.Fatalf("unexpected record %s attempts=%d error=%q", got.Status, got.RefundAttempts, got.LastError)
	}
	if n := len(f.ledger.Submissions()); n != 1 {
		t.Fatalf("expected 1 submission, got %d", n)
	}
}

func TestDispatch_ExhaustedAttemptsFail(t *testing.T) {
	f := newFixture(t, 2)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return errors.New("execution reverted")
	})

	if _, err := f.d.Dispatch(context.Background(), rec); err == nil {
		t.Fatal("expected Dispatch() to fail")
	}

	f.clock.Advance(time.Minute)
	if res := f.recover(t); len(res.Failed) != 1 {
		t.Fatalf("expected 1 failed, got %d", len(res.Failed))
	}

	got := f.get(t, rec)
	if got.Status != deposit.StatusFailed || got.RefundAttempts != 2 {
		t.Fatalf("expected FAILED after 2 attempts, got %s after %d", got.Status, got.RefundAttempts)
	}
	if got.RefundTxHash != nil || got.NextAttemptAt != nil {
		t.Error("expected transfer and schedule cleared")
	}
	if s := deposit.UserStatus(got.Status); s != "refund failed, contact support" {
		t.Errorf("unexpected user status %q", s)
	}

	// FAILED is never retried automatically.
	f.clock.Advance(time.Hour)
	if res := f.recover(t); len(res.Refunded) != 0 || len(res.Failed) != 0 {
		t.Fatalf("expected FAILED left alone, got %+v", res)
	}
}

func TestDispatch_GasEstimateRejectionFails(t *testing.T) {
	f := newFixture(t, 2)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetPrepareError(fmt.Errorf("%w: transfer rejected by gas estimation: execution reverted", deposit.ErrRefundSubmission))

	if _, err := f.d.Dispatch(context.Background(), rec); !errors.Is(err, deposit.ErrRefundSubmission) {
		t.Fatalf("expected ErrRefundSubmission, got %v", err)
	}
	got := f.get(t, rec)
	if got.Status != deposit.StatusRefundPending || got.RefundTxHash != nil {
		t.Fatalf("expected REFUND_PENDING without a transfer, got %s", got.Status)
	}

	f.clock.Advance(time.Minute)
	if res := f.recover(t); len(res.Failed) != 1 {
		t.Fatalf("expected 1 failed, got %d", len(res.Failed))
	}
	got = f.get(t, rec)
	if got.Status != deposit.StatusFailed || got.RefundAttempts != 2 {
		t.Fatalf("expected FAILED after 2 attempts, got %s after %d", got.Status, got.RefundAttempts)
	}
	if !strings.Contains(got.LastError, "gas estimation") {
		t.Errorf("unexpected last error %q", got.LastError)
	}
	if f.ledger.Prepared() != 0 || len(f.ledger.Submissions()) != 0 {
		t.Fatal("expected nothing signed or sent")
	}
}

func TestDispatch_StoreFailureReleasesTransfer(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	storeErr := errors.New("connection reset")
	d := New(hashWriteFailingStore{Store: f.store, err: storeErr}, f.ledger, f.cfg, zap.NewNop()).WithClock(f.clock.Now)

	if _, err := d.Dispatch(context.Background(), rec); !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error, got %v", err)
	}

	released := f.ledger.Released()
	if len(released) != 1 || released[0] != "0xrefund000001" {
		t.Fatalf("expected the prepared transfer released, got %v", released)
	}
	if n := len(f.ledger.Submissions()); n != 0 {
		t.Fatalf("expected nothing broadcast, got %d", n)
	}
	got := f.get(t, rec)
	if got.Status != deposit.StatusRefundPending || got.RefundTxHash != nil {
		t.Fatalf("expected REFUND_PENDING without a transfer, got %s", got.Status)
	}

	// The claim lease expires and recovery signs a new transfer.
	f.clock.Advance(2 * time.Minute)
	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}
	if f.ledger.Prepared() != 2 || len(f.ledger.Submissions()) != 1 {
		t.Fatalf("expected 2 prepared and 1 submitted, got %d and %d",
			f.ledger.Prepared(), len(f.ledger.Submissions()))
	}
}

func TestDispatch_TransientFailuresNeverExhaust(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return ledger.Transient(context.DeadlineExceeded)
	})

	if _, err := f.d.Dispatch(context.Background(), rec); err == nil {
		t.Fatal("expected Dispatch() to fail")
	}
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		f.recover(t)
	}

	got := f.get(t, rec)
	if got.Status != deposit.StatusRefundPending || got.RefundAttempts != 4 {
		t.Fatalf("expected REFUND_PENDING after 4 attempts, got %s after %d", got.Status, got.RefundAttempts)
	}
}

func TestRecover_AmbiguousBroadcastThatLanded(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	// The transfer reaches the ledger but the response is lost.
	f.ledger.SetBroadcastHook(func(fake *ledgertest.Fake, st *ledger.SignedTransfer) error {
		fake.Land(st)
		return ledger.Transient(ledger.ErrMaybeSubmitted)
	})

	hash, err := f.d.Dispatch(context.Background(), rec)
	if !errors.Is(err, deposit.ErrRefundSubmission) {
		t.Fatalf("expected ErrRefundSubmission, got %v", err)
	}

	got := f.get(t, rec)
	if got.Status != deposit.StatusRefundPending || got.RefundTxHash == nil || *got.RefundTxHash != hash {
		t.Fatalf("expected REFUND_PENDING holding %s, got %s", hash, got.Status)
	}

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		t.Error("landed refund must not be broadcast again")
		return nil
	})
	f.clock.Advance(time.Minute)

	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}

	got = f.get(t, rec)
	if got.Status != deposit.StatusRefunded || *got.RefundTxHash != hash {
		t.Fatalf("expected REFUNDED with %s, got %s", hash, got.Status)
	}
	if len(f.ledger.Submissions()) != 1 || f.ledger.Prepared() != 1 {
		t.Fatal("expected one signed transfer only")
	}
}

func TestRecover_AmbiguousBroadcastThatDidNotLand(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return ledger.Transient(ledger.ErrMaybeSubmitted)
	})

	hash, err := f.d.Dispatch(context.Background(), rec)
	if err == nil {
		t.Fatal("expected Dispatch() to fail")
	}
	if n := len(f.ledger.Submissions()); n != 0 {
		t.Fatalf("expected nothing landed, got %d", n)
	}

	f.ledger.SetBroadcastHook(nil)
	f.clock.Advance(time.Minute)

	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}

	// The stored transfer is rebroadcast rather than a new one signed.
	subs := f.ledger.Submissions()
	if len(subs) != 1 || subs[0].Hash != hash {
		t.Fatalf("expected %s rebroadcast, got %+v", hash, subs)
	}
	if n := f.ledger.Prepared(); n != 1 {
		t.Fatalf("expected 1 prepared, got %d", n)
	}
}

func TestRecover_StaleNonceResigns(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return ledger.Transient(ledger.ErrMaybeSubmitted)
	})
	first, err := f.d.Dispatch(context.Background(), rec)
	if err == nil {
		t.Fatal("expected Dispatch() to fail")
	}

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, st *ledger.SignedTransfer) error {
		if st.Hash == first {
			return ledger.ErrNonceTooLow
		}
		return nil
	})
	f.clock.Advance(time.Minute)

	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}

	got := f.get(t, rec)
	if *got.RefundTxHash == first {
		t.Fatal("expected a newly signed transfer")
	}
	if len(f.ledger.Submissions()) != 1 || f.ledger.Prepared() != 2 {
		t.Fatalf("expected 2 prepared and 1 submitted, got %d and %d",
			f.ledger.Prepared(), len(f.ledger.Submissions()))
	}
}

func TestRecover_ClaimedButNothingBroadcast(t *testing.T) {
	f := newFixture(t, 3)
	rec := f.seed(t, "0xT1", 0, "0xA")

	// Simulate a crash right after the claim.
	pending := deposit.StatusRefundPending
	lease := f.clock.Now().Add(time.Minute)
	_, err := f.store.UpdateDeposit(context.Background(), rec.Key(),
		depositstore.StatusGuard(deposit.StatusVerified),
		depositstore.Change{Status: &pending, NextAttemptAt: &lease})
	if err != nil {
		t.Fatalf("UpdateDeposit() failed: %v", err)
	}

	// Lease still held.
	if res := f.recover(t); len(res.Refunded) != 0 {
		t.Fatal("expected the held lease to be respected")
	}

	f.clock.Advance(2 * time.Minute)
	if res := f.recover(t); len(res.Refunded) != 1 {
		t.Fatalf("expected 1 refunded, got %d", len(res.Refunded))
	}
	if n := f.ledger.SubmissionsTo("0xa"); n != 1 {
		t.Fatalf("expected 1 refund to 0xa, got %d", n)
	}
}

func TestRun_IndependentDeposits(t *testing.T) {
	f := newFixture(t, 3)
	f.seed(t, "0xT1", 0, "0xA")
	f.seed(t, "0xT2", 0, "0xA")
	f.seed(t, "0xT3", 0, "0xB")

	res, err := f.d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(res.Refunded) != 3 {
		t.Fatalf("expected 3 refunded, got %d", len(res.Refunded))
	}
	if f.ledger.SubmissionsTo("0xa") != 2 || f.ledger.SubmissionsTo("0xb") != 1 {
		t.Fatal("expected one refund per deposit")
	}

	res, err = f.d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(res.Refunded) != 0 || len(f.ledger.Submissions()) != 3 {
		t.Fatal("expected the second run to refund nothing")
	}
}

func TestRefund_ResetsFailed(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.seed(t, "0xT1", 0, "0xA")

	f.ledger.SetBroadcastHook(func(_ *ledgertest.Fake, _ *ledger.SignedTransfer) error {
		return errors.New("rejected")
	})
	if _, err := f.d.Dispatch(context.Background(), rec); err == nil {
		t.Fatal("expected Dispatch() to fail")
	}
	if s := f.get(t, rec).Status; s != deposit.StatusFailed {
		t.Fatalf("expected FAILED, got %s", s)
	}

	f.ledger.SetBroadcastHook(nil)
	out, err := f.d.Refund(context.Background(), rec.Key(), WithDestination("0xNew"))
	if err != nil {
		t.Fatalf("Refund() failed: %v", err)
	}
	if out == nil || out.Status != deposit.StatusRefunded || out.RefundTxHash == nil {
		t.Fatalf("expected a REFUNDED record with a hash, got %+v", out)
	}
	if n := f.ledger.SubmissionsTo("0xnew"); n != 1 {
		t.Fatalf("expected 1 refund to 0xnew, got %d", n)
	}

	out, err = f.d.Refund(context.Background(), rec.Key())
	if !errors.Is(err, deposit.ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
	if out != nil {
		t.Errorf("expected no record for an unclaimed refund, got %+v", out)
	}
}

func TestSummarize(t *testing.T) {
	refunded := &deposit.Record{Status: deposit.StatusRefunded}
	failed := &deposit.Record{Status: deposit.StatusFailed}
	pending := &deposit.Record{Status: deposit.StatusRefundPending}

	tests := []struct {
		name string
		out  *deposit.Record
		err  error
		want Result
	}{
		{name: "refunded", out: refunded, want: Result{Refunded: []*deposit.Record{refunded}}},
		{name: "failed", out: failed, err: deposit.ErrRefundSubmission, want: Result{Failed: []*deposit.Record{failed}}},
		{name: "retrying", out: pending, err: deposit.ErrRefundSubmission, want: Result{Retrying: 1}},
		{name: "claim lost", err: deposit.ErrClaimLost, want: Result{Skipped: 1}},
		{name: "store error", err: errors.New("boom"), want: Result{Retrying: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.out, tc.err)
			if len(got.Refunded) != len(tc.want.Refunded) || len(got.Failed) != len(tc.want.Failed) ||
				got.Retrying != tc.want.Retrying || got.Skipped != tc.want.Skipped {
				t.Fatalf("Summarize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	d := New(nil, nil, config.RefundConfig{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}, zap.NewNop())

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{60, 10 * time.Second},
	}
	for _, tc := range tests {
		if got := d.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

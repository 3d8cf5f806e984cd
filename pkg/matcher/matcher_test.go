package matcher

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/ledger/ledgertest"
)

var required = big.NewInt(1_000_000)

func newMatcher(t *testing.T, minConf uint64) (*Matcher, depositstore.Store, *ledgertest.Fake) {
	t.Helper()
	store := depositstore.NewMemoryStore()
	f := ledgertest.New()
	return New(store, f, required, minConf, zap.NewNop()), store, f
}

func transfer(hash string, idx uint32, from string, amount *big.Int, confirmations uint64) deposit.Transfer {
	return deposit.Transfer{
		TxHash:        hash,
		OutputIndex:   idx,
		From:          from,
		To:            "0xdeposit",
		Amount:        amount,
		BlockNumber:   10,
		Confirmations: confirmations,
	}
}

func mustIngest(t *testing.T, m *Matcher, tr deposit.Transfer) (*deposit.Record, bool) {
	t.Helper()
	rec, created, err := m.Ingest(context.Background(), tr)
	if err != nil {
		t.Fatalf("Ingest(%s) failed: %v", tr.Key(), err)
	}
	return rec, created
}

func mustRegister(t *testing.T, store depositstore.Store, reg *deposit.Registration) {
	t.Helper()
	if err := store.CreateRegistration(context.Background(), reg); err != nil {
		t.Fatalf("CreateRegistration() failed: %v", err)
	}
}

func TestIngest_ExactAmountOnly(t *testing.T) {
	m, store, _ := newMatcher(t, 1)
	ctx := context.Background()

	for _, amount := range []*big.Int{
		new(big.Int).Sub(required, big.NewInt(1)),
		new(big.Int).Add(required, big.NewInt(1)),
		big.NewInt(0),
	} {
		rec, created, err := m.Ingest(ctx, transfer("0xbad"+amount.String(), 0, "0xA", amount, 5))
		if !errors.Is(err, deposit.ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if rec != nil || created {
			t.Fatalf("amount %s: expected no record", amount)
		}
	}

	if _, _, err := m.Ingest(ctx, deposit.Transfer{TxHash: "0xnil", From: "0xA"}); !errors.Is(err, deposit.ErrInvalidAmount) {
		t.Fatalf("nil amount: expected ErrInvalidAmount, got %v", err)
	}

	all, err := store.ListDeposits(ctx)
	if err != nil {
		t.Fatalf("ListDeposits() failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no records, got %d", len(all))
	}
}

func TestIngest_DuplicateIsNoop(t *testing.T) {
	m, store, _ := newMatcher(t, 1)
	tr := transfer("0xT1", 0, "0xA", required, 5)

	first, created := mustIngest(t, m, tr)
	if !created || first.Status != deposit.StatusVerified {
		t.Fatalf("expected a new VERIFIED record, got created=%v status=%s", created, first.Status)
	}

	second, created := mustIngest(t, m, tr)
	if created {
		t.Fatal("expected the duplicate not to create a record")
	}
	if second.Key() != first.Key() || second.UserAddress != first.UserAddress {
		t.Fatalf("expected the existing record back, got %+v", second)
	}

	all, err := store.ListDeposits(context.Background())
	if err != nil {
		t.Fatalf("ListDeposits() failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
}

func TestIngest_PlaceholderForUnmatched(t *testing.T) {
	m, _, _ := newMatcher(t, 1)

	rec, created := mustIngest(t, m, transfer("0xT1", 0, "0xA", required, 5))
	if !created || !rec.Unmatched {
		t.Fatalf("expected a new unmatched record, got created=%v unmatched=%v", created, rec.Unmatched)
	}
	if want := deposit.NormalizeAddress(deposit.PlaceholderUser(rec.Key())); rec.UserAddress != want {
		t.Errorf("user = %s, want %s", rec.UserAddress, want)
	}
	if rec.SenderAddress != "0xa" {
		t.Errorf("sender = %s, want 0xa", rec.SenderAddress)
	}
}

func TestIngest_MatchesRegistrationBySender(t *testing.T) {
	m, store, _ := newMatcher(t, 1)
	mustRegister(t, store, &deposit.Registration{
		UserAddress:   "0xUser",
		SenderAddress: "0xA",
	})

	rec, created := mustIngest(t, m, transfer("0xT1", 0, "0xA", required, 5))
	if !created || rec.Unmatched {
		t.Fatalf("expected a new matched record, got created=%v unmatched=%v", created, rec.Unmatched)
	}
	if rec.UserAddress != "0xuser" {
		t.Errorf("user = %s, want 0xuser", rec.UserAddress)
	}

	_, err := store.FindPendingRegistration(context.Background(), "0xA", "")
	if !errors.Is(err, deposit.ErrRegistrationNotFound) {
		t.Fatalf("expected the registration consumed, got %v", err)
	}
}

func TestIngest_MatchesRegistrationByReference(t *testing.T) {
	m, store, _ := newMatcher(t, 1)
	mustRegister(t, store, &deposit.Registration{
		UserAddress:    "0xUser",
		SenderAddress:  "0xSomeoneElse",
		CorrelationKey: "ref-42",
	})

	tr := transfer("0xT1", 0, "0xA", required, 5)
	tr.Reference = "ref-42"
	rec, _ := mustIngest(t, m, tr)
	if rec.UserAddress != "0xuser" || rec.Unmatched {
		t.Fatalf("expected the record matched to 0xuser, got %s unmatched=%v", rec.UserAddress, rec.Unmatched)
	}
}

func TestIngest_SecondDepositForActiveUserIsUnmatched(t *testing.T) {
	m, store, _ := newMatcher(t, 1)
	mustRegister(t, store, &deposit.Registration{
		UserAddress:   "0xUser",
		SenderAddress: "0xA",
	})

	first, _ := mustIngest(t, m, transfer("0xT1", 0, "0xA", required, 5))
	if first.Unmatched {
		t.Fatal("expected the first deposit matched")
	}

	second, created := mustIngest(t, m, transfer("0xT2", 0, "0xA", required, 5))
	if !created || !second.Unmatched {
		t.Fatalf("expected a new unmatched record, got created=%v unmatched=%v", created, second.Unmatched)
	}

	active, err := store.ListDeposits(context.Background(), depositstore.WithUserAddress("0xUser"))
	if err != nil {
		t.Fatalf("ListDeposits() failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 record for the user, got %d", len(active))
	}
}

func TestIngest_TwoDepositsSameSender(t *testing.T) {
	m, store, _ := newMatcher(t, 1)

	if _, created := mustIngest(t, m, transfer("0xT1", 0, "0xA", required, 5)); !created {
		t.Fatal("expected output 0 created")
	}
	if _, created := mustIngest(t, m, transfer("0xT1", 1, "0xA", required, 5)); !created {
		t.Fatal("expected output 1 created")
	}

	all, err := store.ListDeposits(context.Background(), depositstore.WithStatus(deposit.StatusVerified))
	if err != nil {
		t.Fatalf("ListDeposits() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 VERIFIED records, got %d", len(all))
	}
}

func TestVerifyPending(t *testing.T) {
	m, store, f := newMatcher(t, 3)
	ctx := context.Background()

	f.AddTransfer(deposit.Transfer{TxHash: "0xT1", From: "0xA", To: "0xdeposit", Amount: required, BlockNumber: 10})
	f.SetHead(10)

	rec, _ := mustIngest(t, m, transfer("0xT1", 0, "0xA", required, 1))
	if rec.Status != deposit.StatusPending {
		t.Fatalf("expected PENDING, got %s", rec.Status)
	}

	verified, err := m.VerifyPending(ctx)
	if err != nil {
		t.Fatalf("VerifyPending() failed: %v", err)
	}
	if len(verified) != 0 {
		t.Fatalf("expected nothing verified, got %d", len(verified))
	}

	got, err := store.GetDeposit(ctx, rec.Key())
	if err != nil {
		t.Fatalf("GetDeposit() failed: %v", err)
	}
	if got.Status != deposit.StatusPending || got.VerificationAttempts != 1 {
		t.Fatalf("expected PENDING after 1 check, got %s after %d", got.Status, got.VerificationAttempts)
	}

	f.SetHead(12)
	verified, err = m.VerifyPending(ctx)
	if err != nil {
		t.Fatalf("VerifyPending() failed: %v", err)
	}
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified, got %d", len(verified))
	}
	v := verified[0]
	if v.Status != deposit.StatusVerified || v.Confirmations != 3 || v.VerificationAttempts != 2 {
		t.Fatalf("unexpected record %s confirmations=%d attempts=%d", v.Status, v.Confirmations, v.VerificationAttempts)
	}
}

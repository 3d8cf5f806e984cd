package webhook

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

type staticRegistry []*deposit.WebhookRegistration

func (r staticRegistry) ListWebhooks(context.Context) ([]*deposit.WebhookRegistration, error) {
	return r, nil
}

type received struct {
	header http.Header
	body   []byte
}

func testConfig() config.WebhookConfig {
	return config.WebhookConfig{
		QueueSize:    4,
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: 10 * time.Millisecond,
	}
}

func TestNotifier_DeliversSignedEvent(t *testing.T) {
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{header: r.Header.Clone(), body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := staticRegistry{{ID: uuid.New(), URL: srv.URL, Secret: "s3cret"}}
	n := NewNotifier(reg, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	hash := "0xrefund"
	rec := &deposit.Record{
		TxHash:        "0xT1",
		SenderAddress: "0xa",
		UserAddress:   "0xuser",
		Amount:        big.NewInt(1000),
		Status:        deposit.StatusRefunded,
		RefundTxHash:  &hash,
	}
	if !n.Notify(NewDepositEvent(EventRefundCompleted, rec)) {
		t.Fatal("expected the event queued")
	}

	select {
	case r := <-got:
		if et := r.header.Get(HeaderEventType); et != string(EventRefundCompleted) {
			t.Errorf("event type header = %q", et)
		}
		if !Verify("s3cret", r.body, r.header.Get(HeaderSignature)) {
			t.Error("signature does not verify")
		}

		var e Event
		if err := json.Unmarshal(r.body, &e); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if e.Type != EventRefundCompleted || e.Deposit == nil {
			t.Fatalf("unexpected event %+v", e)
		}
		if e.Deposit.Amount != "1000" || e.Deposit.UserStatus != "refunded" {
			t.Errorf("unexpected deposit payload %+v", e.Deposit)
		}
		if e.Deposit.RefundTxHash == nil || *e.Deposit.RefundTxHash != hash {
			t.Errorf("expected refund hash %s, got %v", hash, e.Deposit.RefundTxHash)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
}

func TestNotifier_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	n := NewNotifier(staticRegistry{{ID: uuid.New(), URL: srv.URL}}, testConfig(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	n.Notify(NewDepositEvent(EventDepositDetected, &deposit.Record{TxHash: "0xT1", Status: deposit.StatusVerified}))

	select {
	case <-done:
		if c := calls.Load(); c != 3 {
			t.Fatalf("expected 3 deliveries, got %d", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered after retries")
	}
}

func TestNotifier_NotifyNeverBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 2
	n := NewNotifier(staticRegistry{}, cfg, zap.NewNop())

	e := NewDepositEvent(EventDepositDetected, &deposit.Record{TxHash: "0xT1"})
	if !n.Notify(e) || !n.Notify(e) {
		t.Fatal("expected the queue to accept two events")
	}

	done := make(chan bool)
	go func() { done <- n.Notify(e) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected a full queue to drop the event")
		}
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestTestWebhook(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(HeaderEventType))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	n := NewNotifier(staticRegistry{}, testConfig(), zap.NewNop())

	if err := n.TestWebhook(context.Background(), ok.URL, "secret"); err != nil {
		t.Fatalf("TestWebhook() failed: %v", err)
	}
	if err := n.TestWebhook(context.Background(), failing.URL, "secret"); err == nil {
		t.Error("expected an HTTP 500 to fail")
	}
	if err := n.TestWebhook(context.Background(), "http://127.0.0.1:1", ""); err == nil {
		t.Error("expected an unreachable endpoint to fail")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != string(EventTest) {
		t.Fatalf("expected one test event, got %v", seen)
	}
}

func TestSign(t *testing.T) {
	body := []byte(`{"type":"test"}`)
	sig := Sign("k", body)
	if len(sig) != len("sha256=")+64 {
		t.Fatalf("unexpected signature %q", sig)
	}
	if !Verify("k", body, sig) {
		t.Error("expected the signature to verify")
	}
	if Verify("other", body, sig) {
		t.Error("expected a different secret to fail")
	}
	if Verify("k", []byte(`{}`), sig) {
		t.Error("expected a different body to fail")
	}
}

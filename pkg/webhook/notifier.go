// Package webhook delivers reconciliation events to external subscribers.
// Delivery is best-effort and never blocks the reconciliation cycle.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/internal/metrics"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

const (
	HeaderSignature = "X-Signature"
	HeaderEventType = "X-Event-Type"
	HeaderEventID   = "X-Event-ID"
)

// Registry lists the webhook sinks events fan out to.
type Registry interface {
	ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error)
}

// Notifier queues events on a bounded channel and posts them from a single worker.
type Notifier struct {
	registry Registry
	client   *http.Client
	cfg      config.WebhookConfig
	queue    chan Event
	logger   *zap.Logger
}

// NewNotifier creates a Notifier. Run must be started for queued events to be sent.
func NewNotifier(registry Registry, cfg config.WebhookConfig, logger *zap.Logger) *Notifier {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Notifier{
		registry: registry,
		client:   &http.Client{},
		cfg:      cfg,
		queue:    make(chan Event, size),
		logger:   logger,
	}
}

// Notify enqueues e without blocking. It reports false when the queue is full and the event was dropped.
func (n *Notifier) Notify(e Event) bool {
	select {
	case n.queue <- e:
		return true
	default:
		metrics.WebhookDeliveries.WithLabelValues(string(e.Type), "dropped").Inc()
		n.logger.Warn("Webhook queue full, dropping event",
			zap.String("event_type", string(e.Type)),
			zap.String("event_id", e.ID.String()))
		return false
	}
}

// Run delivers queued events until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-n.queue:
			n.dispatch(ctx, e)
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, e Event) {
	hooks, err := n.registry.ListWebhooks(ctx)
	if err != nil {
		n.logger.Error("Failed to list webhooks", zap.Error(err))
		return
	}
	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(e)
	if err != nil {
		n.logger.Error("Failed to encode webhook event", zap.Error(err))
		return
	}

	for _, hook := range hooks {
		if err := n.deliverWithRetry(ctx, hook.URL, hook.Secret, e, body); err != nil {
			n.logger.Warn("Webhook delivery failed",
				zap.String("webhook_id", hook.ID.String()),
				zap.String("url", hook.URL),
				zap.String("event_type", string(e.Type)),
				zap.Error(err))
		}
	}
}

func (n *Notifier) deliverWithRetry(ctx context.Context, url, secret string, e Event, body []byte) error {
	var err error
	for attempt := 0; attempt <= n.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * n.cfg.RetryBackoff):
			}
		}
		if err = n.deliver(ctx, url, secret, e, body); err == nil {
			return nil
		}
	}
	return err
}

func (n *Notifier) deliver(ctx context.Context, url, secret string, e Event, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "deposit-monitor-webhook/1.0")
	req.Header.Set(HeaderEventType, string(e.Type))
	req.Header.Set(HeaderEventID, e.ID.String())
	if secret != "" {
		req.Header.Set(HeaderSignature, Sign(secret, body))
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues(string(e.Type), "error").Inc()
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.WebhookDeliveries.WithLabelValues(string(e.Type), "rejected").Inc()
		return fmt.Errorf("webhook responded with HTTP %d", resp.StatusCode)
	}

	metrics.WebhookDeliveries.WithLabelValues(string(e.Type), "delivered").Inc()
	n.logger.Debug("Webhook delivered",
		zap.String("url", url),
		zap.String("event_type", string(e.Type)),
		zap.Duration("latency", time.Since(start)))
	return nil
}

// TestWebhook sends a synthetic test event to url once and reports the outcome.
func (n *Notifier) TestWebhook(ctx context.Context, url, secret string) error {
	e := newTestEvent()
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode test event: %w", err)
	}
	return n.deliver(ctx, url, secret, e, body)
}

// Sign returns the X-Signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

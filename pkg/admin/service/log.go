package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/admin"
	"github.com/chainsafe/deposit-monitor/pkg/auth"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/monitor"
)

const serviceName = "AdminService"

// logService wraps Service with logging of state-changing calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the admin Service.
// Mutating methods log entry, outcome, duration and the calling operator; reads pass through.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// track logs the start of method and returns a func that logs its outcome.
func (ls *logService) track(ctx context.Context, method string, fields ...zap.Field) func(err error, extra ...zap.Field) {
	start := time.Now()
	base := []zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}
	if sub, ok := auth.SubjectFromContext(ctx); ok {
		base = append(base, zap.String("operator", sub))
	}
	base = append(base, fields...)
	ls.logger.Info(method+" started", base...)

	return func(err error, extra ...zap.Field) {
		out := append(append([]zap.Field{}, base...), zap.Duration("duration", time.Since(start)))
		if err != nil {
			ls.logger.Error(method+" failed", append(out, zap.Error(err))...)
			return
		}
		ls.logger.Info(method+" completed", append(out, extra...)...)
	}
}

func (ls *logService) StartMonitor(ctx context.Context) (err error) {
	done := ls.track(ctx, "StartMonitor")
	defer func() { done(err) }()
	return ls.svc.StartMonitor(ctx)
}

func (ls *logService) StopMonitor(ctx context.Context) (err error) {
	done := ls.track(ctx, "StopMonitor")
	defer func() { done(err) }()
	return ls.svc.StopMonitor(ctx)
}

func (ls *logService) TriggerCycle(ctx context.Context) (report *monitor.CycleReport, err error) {
	done := ls.track(ctx, "TriggerCycle")
	defer func() {
		if report == nil {
			done(err)
			return
		}
		done(err,
			zap.Int("detected", report.Detected),
			zap.Int("refunded", report.Refunded),
			zap.Int("failed", report.Failed),
			zap.Uint64("checkpoint", uint64(report.Checkpoint)))
	}()
	return ls.svc.TriggerCycle(ctx)
}

func (ls *logService) Stats(ctx context.Context) (*deposit.Stats, error) {
	return ls.svc.Stats(ctx)
}

func (ls *logService) ResetStats(ctx context.Context) (err error) {
	done := ls.track(ctx, "ResetStats")
	defer func() { done(err) }()
	return ls.svc.ResetStats(ctx)
}

func (ls *logService) Health(ctx context.Context) (*monitor.Health, error) {
	return ls.svc.Health(ctx)
}

func (ls *logService) RegisterWebhook(ctx context.Context, req *admin.WebhookRequest) (hook *deposit.WebhookRegistration, err error) {
	done := ls.track(ctx, "RegisterWebhook", zap.String("url", req.URL))
	defer func() {
		if hook != nil {
			done(err, zap.String("webhook_id", hook.ID.String()))
			return
		}
		done(err)
	}()
	return ls.svc.RegisterWebhook(ctx, req)
}

func (ls *logService) ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error) {
	return ls.svc.ListWebhooks(ctx)
}

func (ls *logService) DeleteWebhook(ctx context.Context, id uuid.UUID) (err error) {
	done := ls.track(ctx, "DeleteWebhook", zap.String("webhook_id", id.String()))
	defer func() { done(err) }()
	return ls.svc.DeleteWebhook(ctx, id)
}

func (ls *logService) TestWebhook(ctx context.Context, req *admin.WebhookRequest) (err error) {
	done := ls.track(ctx, "TestWebhook", zap.String("url", req.URL))
	defer func() { done(err) }()
	return ls.svc.TestWebhook(ctx, req)
}

func (ls *logService) CreateRegistration(ctx context.Context, req *admin.RegistrationRequest) (reg *admin.Registration, err error) {
	done := ls.track(ctx, "CreateRegistration",
		zap.String("user_address", req.UserAddress),
		zap.String("sender_address", req.SenderAddress),
		zap.Bool("has_correlation_key", req.CorrelationKey != ""))
	defer func() { done(err) }()
	return ls.svc.CreateRegistration(ctx, req)
}

func (ls *logService) ListDeposits(ctx context.Context, filter *admin.DepositFilter) ([]*admin.Deposit, error) {
	return ls.svc.ListDeposits(ctx, filter)
}

func (ls *logService) GetDeposit(ctx context.Context, key deposit.Key) (*admin.Deposit, error) {
	return ls.svc.GetDeposit(ctx, key)
}

func (ls *logService) RefundDeposit(ctx context.Context, key deposit.Key, req *admin.RefundRequest) (resp *admin.RefundResponse, err error) {
	done := ls.track(ctx, "RefundDeposit",
		zap.String("tx_hash", key.TxHash),
		zap.Uint32("output_index", key.OutputIndex),
		zap.String("destination", req.Destination))
	defer func() {
		if resp != nil {
			done(err, zap.String("refund_tx_hash", resp.RefundTxHash))
			return
		}
		done(err)
	}()
	return ls.svc.RefundDeposit(ctx, key, req)
}

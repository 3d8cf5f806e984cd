// Package service implements the operator API over the monitor controller and store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/admin"
	apperrors "github.com/chainsafe/deposit-monitor/pkg/app/errors"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/dispatcher"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
	"github.com/chainsafe/deposit-monitor/pkg/monitor"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

var ErrInvalidAddress = errors.New("invalid address")

// Controller is the subset of the monitor controller exposed to operators.
//
//go:generate mockery --name Controller --output mocks --outpkg mocks --filename mock_controller.go --with-expecter
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	TriggerOnce(ctx context.Context) (*monitor.CycleReport, error)
	GetStats(ctx context.Context) (deposit.Stats, error)
	ResetStats(ctx context.Context) error
	Health(ctx context.Context) (*monitor.Health, error)
	RegisterWebhook(ctx context.Context, url, secret string) (*deposit.WebhookRegistration, error)
	TestWebhook(ctx context.Context, url, secret string) error
}

// Refunder dispatches a manual refund for one deposit.
//
//go:generate mockery --name Refunder --output mocks --outpkg mocks --filename mock_refunder.go --with-expecter
type Refunder interface {
	Refund(ctx context.Context, key deposit.Key, opts ...dispatcher.Option) (string, error)
}

// Service is the operator API.
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	StartMonitor(ctx context.Context) error
	StopMonitor(ctx context.Context) error
	TriggerCycle(ctx context.Context) (*monitor.CycleReport, error)
	Stats(ctx context.Context) (*deposit.Stats, error)
	ResetStats(ctx context.Context) error
	Health(ctx context.Context) (*monitor.Health, error)

	RegisterWebhook(ctx context.Context, req *admin.WebhookRequest) (*deposit.WebhookRegistration, error)
	ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error)
	DeleteWebhook(ctx context.Context, id uuid.UUID) error
	TestWebhook(ctx context.Context, req *admin.WebhookRequest) error

	CreateRegistration(ctx context.Context, req *admin.RegistrationRequest) (*admin.Registration, error)
	ListDeposits(ctx context.Context, filter *admin.DepositFilter) ([]*admin.Deposit, error)
	GetDeposit(ctx context.Context, key deposit.Key) (*admin.Deposit, error)
	RefundDeposit(ctx context.Context, key deposit.Key, req *admin.RefundRequest) (*admin.RefundResponse, error)
}

type service struct {
	controller    Controller
	store         depositstore.Store
	refunder      Refunder
	tokenDecimals int32
	logger        *zap.Logger
}

// NewService creates the operator service.
func NewService(controller Controller, store depositstore.Store, refunder Refunder, tokenDecimals int32, logger *zap.Logger) Service {
	return &service{
		controller:    controller,
		store:         store,
		refunder:      refunder,
		tokenDecimals: tokenDecimals,
		logger:        logger,
	}
}

func (s *service) StartMonitor(ctx context.Context) error {
	return s.controller.Start(ctx)
}

func (s *service) StopMonitor(ctx context.Context) error {
	return s.controller.Stop(ctx)
}

func (s *service) TriggerCycle(ctx context.Context) (*monitor.CycleReport, error) {
	report, err := s.controller.TriggerOnce(ctx)
	if errors.Is(err, monitor.ErrCycleBusy) {
		return nil, apperrors.UnavailableError(err, "reconciliation cycle already running")
	}
	if err != nil {
		return nil, fmt.Errorf("cycle failed: %w", err)
	}
	return report, nil
}

func (s *service) Stats(ctx context.Context) (*deposit.Stats, error) {
	stats, err := s.controller.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *service) ResetStats(ctx context.Context) error {
	return s.controller.ResetStats(ctx)
}

func (s *service) Health(ctx context.Context) (*monitor.Health, error) {
	return s.controller.Health(ctx)
}

func (s *service) RegisterWebhook(ctx context.Context, req *admin.WebhookRequest) (*deposit.WebhookRegistration, error) {
	if strings.TrimSpace(req.Secret) == "" {
		return nil, apperrors.BadRequestError(nil, "secret required")
	}
	hook, err := s.controller.RegisterWebhook(ctx, strings.TrimSpace(req.URL), req.Secret)
	if errors.Is(err, monitor.ErrInvalidWebhookURL) {
		return nil, apperrors.BadRequestError(err, "url must be an absolute http(s) url")
	}
	return hook, err
}

func (s *service) ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error) {
	return s.store.ListWebhooks(ctx)
}

func (s *service) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	err := s.store.DeleteWebhook(ctx, id)
	if errors.Is(err, deposit.ErrWebhookNotFound) {
		return apperrors.ResourceNotFoundError(err, "webhook not found")
	}
	return err
}

func (s *service) TestWebhook(ctx context.Context, req *admin.WebhookRequest) error {
	err := s.controller.TestWebhook(ctx, strings.TrimSpace(req.URL), req.Secret)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, monitor.ErrInvalidWebhookURL):
		return apperrors.BadRequestError(err, "url must be an absolute http(s) url")
	default:
		return apperrors.DependencyError(err, "webhook endpoint did not accept the test event")
	}
}

func (s *service) CreateRegistration(ctx context.Context, req *admin.RegistrationRequest) (*admin.Registration, error) {
	if !common.IsHexAddress(req.UserAddress) {
		return nil, apperrors.BadRequestError(ErrInvalidAddress, "invalid user_address")
	}
	if req.SenderAddress != "" && !common.IsHexAddress(req.SenderAddress) {
		return nil, apperrors.BadRequestError(ErrInvalidAddress, "invalid sender_address")
	}
	if req.SenderAddress == "" && strings.TrimSpace(req.CorrelationKey) == "" {
		return nil, apperrors.BadRequestError(nil, "sender_address or correlation_key required")
	}

	reg := &deposit.Registration{
		UserAddress:    deposit.NormalizeAddress(req.UserAddress),
		SenderAddress:  deposit.NormalizeAddress(req.SenderAddress),
		CorrelationKey: strings.TrimSpace(req.CorrelationKey),
		Status:         deposit.RegistrationPending,
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		if errors.Is(err, deposit.ErrRegistrationExists) {
			return nil, apperrors.ConflictError(err, "registration already exists")
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return admin.NewRegistration(reg), nil
}

func (s *service) ListDeposits(ctx context.Context, filter *admin.DepositFilter) ([]*admin.Deposit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	opts := []depositstore.QueryOption{depositstore.WithLimit(limit)}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, apperrors.BadRequestError(nil, fmt.Sprintf("unknown status %q", filter.Status))
		}
		opts = append(opts, depositstore.WithStatus(filter.Status))
	}
	if filter.UserAddress != "" {
		opts = append(opts, depositstore.WithUserAddress(filter.UserAddress))
	}

	recs, err := s.store.ListDeposits(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	out := make([]*admin.Deposit, 0, len(recs))
	for _, rec := range recs {
		out = append(out, admin.NewDeposit(rec, s.tokenDecimals))
	}
	return out, nil
}

func (s *service) GetDeposit(ctx context.Context, key deposit.Key) (*admin.Deposit, error) {
	rec, err := s.store.GetDeposit(ctx, key)
	if err != nil {
		if errors.Is(err, deposit.ErrRecordNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "deposit not found")
		}
		return nil, err
	}
	return admin.NewDeposit(rec, s.tokenDecimals), nil
}

func (s *service) RefundDeposit(ctx context.Context, key deposit.Key, req *admin.RefundRequest) (*admin.RefundResponse, error) {
	var opts []dispatcher.Option
	if req.Destination != "" {
		if !common.IsHexAddress(req.Destination) {
			return nil, apperrors.BadRequestError(ErrInvalidAddress, "invalid destination")
		}
		opts = append(opts, dispatcher.WithDestination(deposit.NormalizeAddress(req.Destination)))
	}

	hash, err := s.refunder.Refund(ctx, key, opts...)
	switch {
	case err == nil:
	case errors.Is(err, deposit.ErrRecordNotFound):
		return nil, apperrors.ResourceNotFoundError(err, "deposit not found")
	case errors.Is(err, deposit.ErrNotRefundable), errors.Is(err, deposit.ErrClaimLost):
		return nil, apperrors.ConflictError(err, "deposit is not refundable in its current state")
	case ledger.IsTransient(err), errors.Is(err, ledger.ErrMaybeSubmitted):
		return nil, apperrors.UnavailableError(err, "refund submission pending, retry later")
	case errors.Is(err, deposit.ErrRefundSubmission):
		return nil, apperrors.DependencyError(err, "ledger rejected the refund transfer")
	default:
		return nil, err
	}

	return &admin.RefundResponse{
		TxHash:       key.TxHash,
		OutputIndex:  key.OutputIndex,
		RefundTxHash: hash,
	}, nil
}

// Package server implements app.Runner for the deposit monitor process.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	adminservice "github.com/chainsafe/deposit-monitor/pkg/admin/service"
	apphttp "github.com/chainsafe/deposit-monitor/pkg/app/http"
	"github.com/chainsafe/deposit-monitor/pkg/auth"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	"github.com/chainsafe/deposit-monitor/pkg/dispatcher"
	"github.com/chainsafe/deposit-monitor/pkg/ledger/evm"
	"github.com/chainsafe/deposit-monitor/pkg/lock"
	"github.com/chainsafe/deposit-monitor/pkg/matcher"
	"github.com/chainsafe/deposit-monitor/pkg/monitor"
	"github.com/chainsafe/deposit-monitor/pkg/pgutil"
	"github.com/chainsafe/deposit-monitor/pkg/poller"
	"github.com/chainsafe/deposit-monitor/pkg/webhook"
)

// Server holds cfg to init the monitor process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new monitor server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run wires the reconciliation engine and the HTTP surface, then blocks until an OS
// shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting deposit monitor",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("deposit_address", cfg.Ledger.DepositAddress),
	)

	required, err := cfg.Deposit.RequiredBaseUnits()
	if err != nil {
		return err
	}

	store, closeStore, err := s.openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ledgerClient, err := evm.NewClient(&cfg.Ledger, logger)
	if err != nil {
		return fmt.Errorf("initialize ledger client: %w", err)
	}
	defer ledgerClient.Close()

	locker, closeLocker, err := s.openLocker(logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	notifier := webhook.NewNotifier(store, cfg.Webhook, logger)
	ctrl := monitor.New(monitor.Deps{
		Store:      store,
		Poller:     poller.New(ledgerClient, cfg.Ledger.DepositAddress, cfg.Monitor.MaxPages, logger),
		Matcher:    matcher.New(store, ledgerClient, required, cfg.Deposit.MinConfirmations, logger),
		Dispatcher: dispatcher.New(store, ledgerClient, cfg.Refund, logger),
		Notifier:   notifier,
		Locker:     locker,
	}, cfg.Monitor, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := notifier.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := ctrl.Init(ctx, cfg.Monitor.AutoStart); err != nil {
		stop()
		_ = g.Wait()
		return fmt.Errorf("init monitor: %w", err)
	}

	admin := adminservice.NewLog(
		adminservice.NewService(ctrl, store, ctrl, cfg.Deposit.TokenDecimals, logger),
		logger,
	)
	router := NewRouter(cfg, ctrl, admin, auth.NewJWTValidator(cfg.Auth), logger)

	g.Go(func() error {
		return apphttp.ServeAndWait(gctx, logger, apphttp.NewServer(&cfg.Server, router), cfg.Shutdown.Timeout)
	})

	runErr := g.Wait()

	// Halt the loop before deferred store and ledger closes kick in.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Monitor shutdown failed", zap.Error(err))
	}

	return runErr
}

func (s *Server) openStore(logger *zap.Logger) (depositstore.Store, func(), error) {
	if s.cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store; reconciliation state is lost on restart")
		return depositstore.NewMemoryStore(), func() {}, nil
	}

	db, err := pgutil.ConnectDB(&s.cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return depositstore.NewStore(db), func() { _ = db.Close() }, nil
}

func (s *Server) openLocker(logger *zap.Logger) (lock.Locker, func(), error) {
	client, err := lock.NewClient(s.cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return lock.NewLocalLocker(), func() {}, nil
	}
	logger.Info("Distributed cycle lock enabled", zap.String("key_prefix", s.cfg.Redis.KeyPrefix))
	return lock.NewRedisLocker(client, s.cfg.Redis.KeyPrefix, s.cfg.Redis.LockTTL), func() { _ = client.Close() }, nil
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	adminservice "github.com/chainsafe/deposit-monitor/pkg/admin/service"
	apphttp "github.com/chainsafe/deposit-monitor/pkg/app/http"
	"github.com/chainsafe/deposit-monitor/pkg/auth"
	"github.com/chainsafe/deposit-monitor/pkg/config"
	"github.com/chainsafe/deposit-monitor/pkg/monitor"
)

const defaultHTTPMiddlewareTimeout = 60 * time.Second

// HealthChecker reports engine health for the /ready endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (*monitor.Health, error)
}

// NewRouter builds the health, metrics and admin routes.
func NewRouter(
	cfg *config.Config,
	health HealthChecker,
	admin adminservice.Service,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultHTTPMiddlewareTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		h, err := health.Health(req.Context())
		if err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
		}
		if h == nil || h.Status == monitor.HealthUnhealthy {
			apphttp.WriteJSON(w, http.StatusServiceUnavailable, h)
			return
		}
		apphttp.WriteJSON(w, http.StatusOK, h)
	})

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(validator.Middleware(logger))
		adminservice.RegisterRoutes(r, admin, logger)
	})

	return r
}

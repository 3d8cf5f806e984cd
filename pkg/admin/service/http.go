package service

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/admin"
	apperrors "github.com/chainsafe/deposit-monitor/pkg/app/errors"
	apphttp "github.com/chainsafe/deposit-monitor/pkg/app/http"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/monitor"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

type statusResponse struct {
	Status string `json:"status"`
}

// RegisterRoutes registers the admin endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}
	handle := func(fn apphttp.HandlerFunc) http.HandlerFunc {
		return apphttp.HandleError(logger, fn)
	}

	r.Route("/monitor", func(r chi.Router) {
		r.Post("/start", handle(h.start))
		r.Post("/stop", handle(h.stop))
		r.Post("/trigger", handle(h.trigger))
		r.Get("/stats", handle(h.stats))
		r.Post("/stats/reset", handle(h.resetStats))
		r.Get("/health", handle(h.health))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/", handle(h.registerWebhook))
		r.Get("/", handle(h.listWebhooks))
		r.Post("/test", handle(h.testWebhook))
		r.Delete("/{id}", handle(h.deleteWebhook))
	})

	r.Post("/registrations", handle(h.createRegistration))

	r.Route("/deposits", func(r chi.Router) {
		r.Get("/", handle(h.listDeposits))
		r.Get("/{txHash}/{outputIndex}", handle(h.getDeposit))
		r.Post("/{txHash}/{outputIndex}/refund", handle(h.refund))
	})
}

func (h *HTTP) start(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.StartMonitor(r.Context()); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, &statusResponse{Status: "running"})
	return nil
}

func (h *HTTP) stop(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.StopMonitor(r.Context()); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, &statusResponse{Status: "stopped"})
	return nil
}

func (h *HTTP) trigger(w http.ResponseWriter, r *http.Request) error {
	report, err := h.service.TriggerCycle(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, report)
	return nil
}

func (h *HTTP) stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, stats)
	return nil
}

func (h *HTTP) resetStats(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.ResetStats(r.Context()); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, &statusResponse{Status: "reset"})
	return nil
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) error {
	health, err := h.service.Health(r.Context())
	if health == nil {
		return err
	}
	status := http.StatusOK
	if health.Status == monitor.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	apphttp.WriteJSON(w, status, health)
	return nil
}

func (h *HTTP) registerWebhook(w http.ResponseWriter, r *http.Request) error {
	var req admin.WebhookRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	hook, err := h.service.RegisterWebhook(r.Context(), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusCreated, hook)
	return nil
}

func (h *HTTP) listWebhooks(w http.ResponseWriter, r *http.Request) error {
	hooks, err := h.service.ListWebhooks(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, hooks)
	return nil
}

func (h *HTTP) deleteWebhook(w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return apperrors.BadRequestError(err, "invalid webhook id")
	}
	if err := h.service.DeleteWebhook(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) testWebhook(w http.ResponseWriter, r *http.Request) error {
	var req admin.WebhookRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.service.TestWebhook(r.Context(), &req); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, &statusResponse{Status: "delivered"})
	return nil
}

func (h *HTTP) createRegistration(w http.ResponseWriter, r *http.Request) error {
	var req admin.RegistrationRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	reg, err := h.service.CreateRegistration(r.Context(), &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusCreated, reg)
	return nil
}

func (h *HTTP) listDeposits(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := &admin.DepositFilter{
		Status:      deposit.Status(q.Get("status")),
		UserAddress: q.Get("user"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return apperrors.BadRequestError(err, "invalid limit")
		}
		filter.Limit = limit
	}

	deposits, err := h.service.ListDeposits(r.Context(), filter)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, deposits)
	return nil
}

func (h *HTTP) getDeposit(w http.ResponseWriter, r *http.Request) error {
	key, err := depositKey(r)
	if err != nil {
		return err
	}
	d, err := h.service.GetDeposit(r.Context(), key)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, d)
	return nil
}

func (h *HTTP) refund(w http.ResponseWriter, r *http.Request) error {
	key, err := depositKey(r)
	if err != nil {
		return err
	}
	var req admin.RefundRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.RefundDeposit(r.Context(), key, &req)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusAccepted, resp)
	return nil
}

func depositKey(r *http.Request) (deposit.Key, error) {
	txHash := chi.URLParam(r, "txHash")
	if txHash == "" {
		return deposit.Key{}, apperrors.BadRequestError(nil, "tx hash required")
	}
	idx, err := strconv.ParseUint(chi.URLParam(r, "outputIndex"), 10, 32)
	if err != nil {
		return deposit.Key{}, apperrors.BadRequestError(err, "invalid output index")
	}
	return deposit.Key{TxHash: txHash, OutputIndex: uint32(idx)}, nil
}

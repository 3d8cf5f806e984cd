package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// HealthStatus is the coarse health of the engine.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health describes the engine for operators and readiness checks.
type Health struct {
	Status         HealthStatus       `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	Running        bool               `json:"running"`
	Checkpoint     deposit.Checkpoint `json:"checkpoint"`
	FailedDeposits int                `json:"failed_deposits"`
	LastError      string             `json:"last_error,omitempty"`
	LastRunAt      *time.Time         `json:"last_run_at,omitempty"`
	LastSuccessAt  *time.Time         `json:"last_success_at,omitempty"`
}

// Health evaluates the engine:
//   - unhealthy when the loop should be running but is not
//   - degraded when the last cycle errored or deposits await operator action
//   - healthy when a cycle succeeded within two intervals
func (c *Controller) Health(ctx context.Context) (*Health, error) {
	state, err := c.deps.Store.GetState(ctx)
	if err != nil {
		return &Health{Status: HealthUnhealthy, Reason: "store unavailable"}, fmt.Errorf("failed to load monitor state: %w", err)
	}
	failed, err := c.deps.Store.CountDeposits(ctx, deposit.StatusFailed)
	if err != nil {
		return &Health{Status: HealthUnhealthy, Reason: "store unavailable"}, fmt.Errorf("failed to count failed deposits: %w", err)
	}

	h := &Health{
		Running:        c.Running(),
		Checkpoint:     state.LastCheckpoint,
		FailedDeposits: failed,
		LastError:      state.Stats.LastError,
		LastRunAt:      state.Stats.LastRunAt,
		LastSuccessAt:  state.Stats.LastSuccessAt,
	}

	switch {
	case state.Running && !h.Running:
		h.Status, h.Reason = HealthUnhealthy, "monitor loop is not running"
	case state.Stats.LastError != "":
		h.Status, h.Reason = HealthDegraded, "last cycle failed"
	case failed > 0:
		h.Status, h.Reason = HealthDegraded, fmt.Sprintf("%d deposits need operator action", failed)
	case !h.Running:
		h.Status, h.Reason = HealthDegraded, "monitor stopped"
	case state.Stats.LastSuccessAt != nil && c.now().Sub(*state.Stats.LastSuccessAt) <= 2*c.interval:
		h.Status = HealthHealthy
	default:
		h.Status, h.Reason = HealthDegraded, "no successful cycle within two intervals"
	}
	return h, nil
}

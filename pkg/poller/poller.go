// Package poller scans the ledger for transfers into the deposit address.
package poller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/internal/metrics"
	"github.com/chainsafe/deposit-monitor/pkg/deposit"
	"github.com/chainsafe/deposit-monitor/pkg/ledger"
)

const defaultMaxPages = 10

// Poller fetches incoming transfers page by page from a checkpoint.
type Poller struct {
	query    ledger.Query
	address  string
	maxPages int
	logger   *zap.Logger
}

// New creates a poller for transfers into address. maxPages bounds the pages read per poll.
func New(query ledger.Query, address string, maxPages int, logger *zap.Logger) *Poller {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Poller{
		query:    query,
		address:  address,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Poll returns the transfers after since and the checkpoint they cover.
// On error the returned checkpoint is since, so the same range is scanned again.
// Transfers already returned by a previous poll may be returned again.
func (p *Poller) Poll(ctx context.Context, since deposit.Checkpoint) ([]deposit.Transfer, deposit.Checkpoint, error) {
	var (
		transfers []deposit.Transfer
		cursor    string
		reached   = since
	)

	for page := 0; page < p.maxPages; page++ {
		res, err := p.query.ListIncomingTransfers(ctx, p.address, since, cursor)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("poller", errorType(err)).Inc()
			return nil, since, fmt.Errorf("failed to list transfers (page %d, since %d): %w", page, since, err)
		}

		transfers = append(transfers, res.Transfers...)
		if res.Checkpoint > reached {
			reached = res.Checkpoint
		}
		if res.Next == "" {
			break
		}
		cursor = res.Next

		if page == p.maxPages-1 {
			p.logger.Info("Page cap reached, continuing next cycle",
				zap.Int("max_pages", p.maxPages),
				zap.Uint64("checkpoint", uint64(reached)))
		}
	}

	p.logger.Debug("Poll completed",
		zap.Uint64("since", uint64(since)),
		zap.Uint64("checkpoint", uint64(reached)),
		zap.Int("transfers", len(transfers)))

	return transfers, reached, nil
}

func errorType(err error) string {
	if ledger.IsTransient(err) {
		return "transient"
	}
	return "query"
}

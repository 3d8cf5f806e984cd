package depositstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// ActiveUserIndex is the partial unique index that keeps one non-refunded record per user.
const ActiveUserIndex = "idx_deposits_active_user"

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the reconciliation store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &pgStore{db: tx})
	})
}

func (s *pgStore) CreateDeposit(ctx context.Context, rec *deposit.Record) error {
	dao := toDepositDao(rec)

	res, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (tx_hash, output_index) DO NOTHING").
		Returning("created_at, updated_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('n') == ActiveUserIndex {
			return deposit.ErrUserHasActiveDeposit
		}
		return fmt.Errorf("failed to create deposit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	if n == 0 {
		return deposit.ErrDuplicateObservation
	}

	rec.CreatedAt = dao.CreatedAt
	rec.UpdatedAt = dao.UpdatedAt
	return nil
}

func (s *pgStore) GetDeposit(ctx context.Context, key deposit.Key) (*deposit.Record, error) {
	dao := new(DepositDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("tx_hash = ? AND output_index = ?", key.TxHash, int64(key.OutputIndex)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deposit.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return fromDepositDao(dao), nil
}

func (s *pgStore) ListDeposits(ctx context.Context, opts ...QueryOption) ([]*deposit.Record, error) {
	options := buildOptions(opts)

	var daos []DepositDao
	query := s.db.NewSelect().Model(&daos)

	if options.Status != nil {
		query = query.Where("status = ?", string(*options.Status))
	}
	if options.UserAddress != nil {
		query = query.Where("user_address = ?", *options.UserAddress)
	}
	if options.DueBefore != nil {
		query = query.Where("next_attempt_at IS NULL OR next_attempt_at <= ?", *options.DueBefore)
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}

	err := query.Order("created_at ASC", "tx_hash ASC", "output_index ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}

	out := make([]*deposit.Record, 0, len(daos))
	for i := range daos {
		out = append(out, fromDepositDao(&daos[i]))
	}
	return out, nil
}

func (s *pgStore) CountDeposits(ctx context.Context, status deposit.Status) (int, error) {
	n, err := s.db.NewSelect().
		Model((*DepositDao)(nil)).
		Where("status = ?", string(status)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return n, nil
}

func (s *pgStore) HasActiveDeposit(ctx context.Context, userAddress string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*DepositDao)(nil)).
		Where("user_address = ?", deposit.NormalizeAddress(userAddress)).
		Where("status <> ?", string(deposit.StatusRefunded)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check active deposit: %w", err)
	}
	return exists, nil
}

func (s *pgStore) UpdateDeposit(ctx context.Context, key deposit.Key, guard Guard, change Change) (*deposit.Record, error) {
	if guard.Status == deposit.StatusRefunded {
		return nil, deposit.ErrClaimLost
	}

	dao := new(DepositDao)
	query := s.db.NewUpdate().
		Model(dao).
		Where("tx_hash = ? AND output_index = ?", key.TxHash, int64(key.OutputIndex)).
		Where("status = ?", string(guard.Status))
	if guard.RefundAttempts != nil {
		query = query.Where("refund_attempts = ?", *guard.RefundAttempts)
	}
	if guard.DueBy != nil {
		query = query.Where("(next_attempt_at IS NULL OR next_attempt_at <= ?)", *guard.DueBy)
	}

	err := setChange(query, change).
		Set("updated_at = current_timestamp").
		Returning("*").
		Scan(ctx)
	if err == nil {
		return fromDepositDao(dao), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update deposit: %w", err)
	}

	exists, err := s.db.NewSelect().
		Model((*DepositDao)(nil)).
		Where("tx_hash = ? AND output_index = ?", key.TxHash, int64(key.OutputIndex)).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check deposit: %w", err)
	}
	if !exists {
		return nil, deposit.ErrRecordNotFound
	}
	return nil, deposit.ErrClaimLost
}

func setChange(q *bun.UpdateQuery, c Change) *bun.UpdateQuery {
	if c.Status != nil {
		q = q.Set("status = ?", string(*c.Status))
	}
	if c.Confirmations != nil {
		q = q.Set("confirmations = ?", int64(*c.Confirmations))
	}
	if c.VerificationAttempts != nil {
		q = q.Set("verification_attempts = ?", *c.VerificationAttempts)
	}
	if c.RefundAttempts != nil {
		q = q.Set("refund_attempts = ?", *c.RefundAttempts)
	}
	switch {
	case c.RefundTxHash != nil:
		q = q.Set("refund_tx_hash = ?", *c.RefundTxHash)
		q = q.Set("refund_raw_tx = ?", c.RefundRawTx)
	case c.ClearRefundTx:
		q = q.Set("refund_tx_hash = NULL").Set("refund_raw_tx = NULL")
	}
	if c.RefundDestination != nil {
		q = q.Set("refund_destination = ?", *c.RefundDestination)
	}
	switch {
	case c.NextAttemptAt != nil:
		q = q.Set("next_attempt_at = ?", *c.NextAttemptAt)
	case c.ClearNextAttempt:
		q = q.Set("next_attempt_at = NULL")
	}
	if c.LastError != nil {
		q = q.Set("last_error = ?", optionalString(*c.LastError))
	}
	return q
}

func (s *pgStore) CreateRegistration(ctx context.Context, reg *deposit.Registration) error {
	dao := toRegistrationDao(reg)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return deposit.ErrRegistrationExists
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}

	reg.Status = deposit.RegistrationStatus(dao.Status)
	reg.CreatedAt = dao.CreatedAt
	return nil
}

func (s *pgStore) FindPendingRegistration(ctx context.Context, senderAddress, correlationKey string) (*deposit.Registration, error) {
	sender := deposit.NormalizeAddress(senderAddress)
	if sender == "" && correlationKey == "" {
		return nil, deposit.ErrRegistrationNotFound
	}

	dao := new(RegistrationDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("status = ?", string(deposit.RegistrationPending)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			if sender != "" {
				q = q.WhereOr("sender_address = ?", sender)
			}
			if correlationKey != "" {
				q = q.WhereOr("correlation_key = ?", correlationKey)
			}
			return q
		}).
		Order("created_at ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deposit.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return fromRegistrationDao(dao), nil
}

func (s *pgStore) MarkRegistrationMatched(ctx context.Context, userAddress string, key deposit.Key) error {
	res, err := s.db.NewUpdate().
		Model((*RegistrationDao)(nil)).
		Set("status = ?", string(deposit.RegistrationMatched)).
		Set("matched_tx_hash = ?", key.TxHash).
		Set("matched_output_index = ?", int64(key.OutputIndex)).
		Set("matched_at = current_timestamp").
		Where("user_address = ?", deposit.NormalizeAddress(userAddress)).
		Where("status = ?", string(deposit.RegistrationPending)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark registration matched: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark registration matched: %w", err)
	}
	if n == 0 {
		return deposit.ErrRegistrationNotFound
	}
	return nil
}

func (s *pgStore) CreateWebhook(ctx context.Context, hook *deposit.WebhookRegistration) error {
	if hook.ID == uuid.Nil {
		hook.ID = uuid.New()
	}
	dao := &WebhookDao{ID: hook.ID, URL: hook.URL, Secret: hook.Secret}

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	hook.CreatedAt = dao.CreatedAt
	return nil
}

func (s *pgStore) ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error) {
	var daos []WebhookDao
	if err := s.db.NewSelect().Model(&daos).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	out := make([]*deposit.WebhookRegistration, 0, len(daos))
	for _, dao := range daos {
		out = append(out, &deposit.WebhookRegistration{
			ID:        dao.ID,
			URL:       dao.URL,
			Secret:    dao.Secret,
			CreatedAt: dao.CreatedAt,
		})
	}
	return out, nil
}

func (s *pgStore) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*WebhookDao)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if n == 0 {
		return deposit.ErrWebhookNotFound
	}
	return nil
}

func (s *pgStore) GetState(ctx context.Context) (*deposit.MonitorState, error) {
	dao := new(MonitorStateDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", monitorStateID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &deposit.MonitorState{}, nil
		}
		return nil, fmt.Errorf("failed to get monitor state: %w", err)
	}
	return fromStateDao(dao), nil
}

func (s *pgStore) SetRunning(ctx context.Context, running bool) error {
	return s.updateState(ctx, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("running = ?", running)
	})
}

func (s *pgStore) SaveCheckpoint(ctx context.Context, checkpoint deposit.Checkpoint) error {
	return s.updateState(ctx, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("last_checkpoint = ?", int64(checkpoint))
	})
}

func (s *pgStore) SaveStats(ctx context.Context, stats deposit.Stats) error {
	return s.updateState(ctx, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("processed = ?", stats.Processed).
			Set("refunded = ?", stats.Refunded).
			Set("failed = ?", stats.Failed).
			Set("unmatched = ?", stats.Unmatched).
			Set("last_error = ?", optionalString(stats.LastError)).
			Set("last_run_at = ?", stats.LastRunAt).
			Set("last_success_at = ?", stats.LastSuccessAt)
	})
}

func (s *pgStore) updateState(ctx context.Context, set func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	q := s.db.NewUpdate().
		Model((*MonitorStateDao)(nil)).
		Set("updated_at = current_timestamp").
		Where("id = ?", monitorStateID)

	res, err := set(q).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update monitor state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update monitor state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("monitor state row missing, run migrations")
	}
	return nil
}

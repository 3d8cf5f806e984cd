package depositstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/deposit-monitor/pkg/deposit"
)

// memoryStore is an in-process Store. A single mutex serializes every operation,
// and RunInTx holds it for the whole callback, restoring a snapshot if fn fails.
type memoryStore struct {
	mu   sync.Mutex
	data *memData
	now  func() time.Time
}

type memData struct {
	deposits      map[deposit.Key]*deposit.Record
	registrations map[string]*deposit.Registration
	webhooks      map[uuid.UUID]*deposit.WebhookRegistration
	state         deposit.MonitorState
}

// NewMemoryStore creates an in-memory Store
func NewMemoryStore() Store {
	return &memoryStore{
		data: &memData{
			deposits:      make(map[deposit.Key]*deposit.Record),
			registrations: make(map[string]*deposit.Registration),
			webhooks:      make(map[uuid.UUID]*deposit.WebhookRegistration),
		},
		now: time.Now,
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		deposits:      make(map[deposit.Key]*deposit.Record, len(d.deposits)),
		registrations: make(map[string]*deposit.Registration, len(d.registrations)),
		webhooks:      make(map[uuid.UUID]*deposit.WebhookRegistration, len(d.webhooks)),
		state:         d.state,
	}
	for k, v := range d.deposits {
		c.deposits[k] = v.Clone()
	}
	for k, v := range d.registrations {
		r := *v
		c.registrations[k] = &r
	}
	for k, v := range d.webhooks {
		w := *v
		c.webhooks[k] = &w
	}
	return c
}

func (s *memoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, &memTx{data: s.data, now: s.now}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *memoryStore) view() *memTx {
	return &memTx{data: s.data, now: s.now}
}

func (s *memoryStore) CreateDeposit(ctx context.Context, rec *deposit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateDeposit(ctx, rec)
}

func (s *memoryStore) GetDeposit(ctx context.Context, key deposit.Key) (*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetDeposit(ctx, key)
}

func (s *memoryStore) ListDeposits(ctx context.Context, opts ...QueryOption) ([]*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListDeposits(ctx, opts...)
}

func (s *memoryStore) CountDeposits(ctx context.Context, status deposit.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CountDeposits(ctx, status)
}

func (s *memoryStore) HasActiveDeposit(ctx context.Context, userAddress string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().HasActiveDeposit(ctx, userAddress)
}

func (s *memoryStore) UpdateDeposit(ctx context.Context, key deposit.Key, guard Guard, change Change) (*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateDeposit(ctx, key, guard, change)
}

func (s *memoryStore) CreateRegistration(ctx context.Context, reg *deposit.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateRegistration(ctx, reg)
}

func (s *memoryStore) FindPendingRegistration(ctx context.Context, sender, correlationKey string) (*deposit.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindPendingRegistration(ctx, sender, correlationKey)
}

func (s *memoryStore) MarkRegistrationMatched(ctx context.Context, userAddress string, key deposit.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().MarkRegistrationMatched(ctx, userAddress, key)
}

func (s *memoryStore) CreateWebhook(ctx context.Context, hook *deposit.WebhookRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateWebhook(ctx, hook)
}

func (s *memoryStore) ListWebhooks(ctx context.Context) ([]*deposit.WebhookRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListWebhooks(ctx)
}

func (s *memoryStore) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteWebhook(ctx, id)
}

func (s *memoryStore) GetState(ctx context.Context) (*deposit.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetState(ctx)
}

func (s *memoryStore) SetRunning(ctx context.Context, running bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SetRunning(ctx, running)
}

func (s *memoryStore) SaveCheckpoint(ctx context.Context, checkpoint deposit.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SaveCheckpoint(ctx, checkpoint)
}

func (s *memoryStore) SaveStats(ctx context.Context, stats deposit.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SaveStats(ctx, stats)
}

// memTx operates on memData without locking; callers hold memoryStore.mu.
type memTx struct {
	data *memData
	now  func() time.Time
}

func (t *memTx) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (t *memTx) CreateDeposit(_ context.Context, rec *deposit.Record) error {
	key := rec.Key()
	if _, ok := t.data.deposits[key]; ok {
		return deposit.ErrDuplicateObservation
	}
	user := deposit.NormalizeAddress(rec.UserAddress)
	for _, existing := range t.data.deposits {
		if existing.Active() && existing.UserAddress == user {
			return deposit.ErrUserHasActiveDeposit
		}
	}

	now := t.now()
	stored := rec.Clone()
	stored.UserAddress = user
	stored.SenderAddress = deposit.NormalizeAddress(rec.SenderAddress)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	t.data.deposits[key] = stored

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (t *memTx) GetDeposit(_ context.Context, key deposit.Key) (*deposit.Record, error) {
	rec, ok := t.data.deposits[key]
	if !ok {
		return nil, deposit.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (t *memTx) ListDeposits(_ context.Context, opts ...QueryOption) ([]*deposit.Record, error) {
	options := buildOptions(opts)

	out := make([]*deposit.Record, 0)
	for _, rec := range t.data.deposits {
		if options.Status != nil && rec.Status != *options.Status {
			continue
		}
		if options.UserAddress != nil && rec.UserAddress != *options.UserAddress {
			continue
		}
		if options.DueBefore != nil && rec.NextAttemptAt != nil && rec.NextAttemptAt.After(*options.DueBefore) {
			continue
		}
		out = append(out, rec.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key().String() < out[j].Key().String()
	})

	if options.Limit > 0 && len(out) > options.Limit {
		out = out[:options.Limit]
	}
	return out, nil
}

func (t *memTx) CountDeposits(_ context.Context, status deposit.Status) (int, error) {
	n := 0
	for _, rec := range t.data.deposits {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (t *memTx) HasActiveDeposit(_ context.Context, userAddress string) (bool, error) {
	user := deposit.NormalizeAddress(userAddress)
	for _, rec := range t.data.deposits {
		if rec.Active() && rec.UserAddress == user {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) UpdateDeposit(_ context.Context, key deposit.Key, guard Guard, change Change) (*deposit.Record, error) {
	rec, ok := t.data.deposits[key]
	if !ok {
		return nil, deposit.ErrRecordNotFound
	}
	if rec.Status == deposit.StatusRefunded || rec.Status != guard.Status {
		return nil, deposit.ErrClaimLost
	}
	if guard.RefundAttempts != nil && rec.RefundAttempts != *guard.RefundAttempts {
		return nil, deposit.ErrClaimLost
	}
	if guard.DueBy != nil && rec.NextAttemptAt != nil && rec.NextAttemptAt.After(*guard.DueBy) {
		return nil, deposit.ErrClaimLost
	}

	applyChange(rec, change, t.now())
	return rec.Clone(), nil
}

func (t *memTx) CreateRegistration(_ context.Context, reg *deposit.Registration) error {
	user := deposit.NormalizeAddress(reg.UserAddress)
	if _, ok := t.data.registrations[user]; ok {
		return deposit.ErrRegistrationExists
	}
	if reg.CorrelationKey != "" {
		for _, existing := range t.data.registrations {
			if existing.CorrelationKey == reg.CorrelationKey {
				return deposit.ErrRegistrationExists
			}
		}
	}

	stored := *reg
	stored.UserAddress = user
	stored.SenderAddress = deposit.NormalizeAddress(reg.SenderAddress)
	if stored.Status == "" {
		stored.Status = deposit.RegistrationPending
	}
	stored.CreatedAt = t.now()
	t.data.registrations[user] = &stored

	reg.CreatedAt = stored.CreatedAt
	reg.Status = stored.Status
	return nil
}

func (t *memTx) FindPendingRegistration(_ context.Context, sender, correlationKey string) (*deposit.Registration, error) {
	sender = deposit.NormalizeAddress(sender)

	var found *deposit.Registration
	for _, reg := range t.data.registrations {
		if reg.Status != deposit.RegistrationPending {
			continue
		}
		byRef := correlationKey != "" && reg.CorrelationKey == correlationKey
		bySender := sender != "" && reg.SenderAddress == sender
		if !byRef && !bySender {
			continue
		}
		if found == nil || reg.CreatedAt.Before(found.CreatedAt) {
			found = reg
		}
	}
	if found == nil {
		return nil, deposit.ErrRegistrationNotFound
	}
	out := *found
	return &out, nil
}

func (t *memTx) MarkRegistrationMatched(_ context.Context, userAddress string, key deposit.Key) error {
	reg, ok := t.data.registrations[deposit.NormalizeAddress(userAddress)]
	if !ok || reg.Status != deposit.RegistrationPending {
		return deposit.ErrRegistrationNotFound
	}
	now := t.now()
	k := key
	reg.Status = deposit.RegistrationMatched
	reg.MatchedKey = &k
	reg.MatchedAt = &now
	return nil
}

func (t *memTx) CreateWebhook(_ context.Context, hook *deposit.WebhookRegistration) error {
	if hook.ID == uuid.Nil {
		hook.ID = uuid.New()
	}
	if _, ok := t.data.webhooks[hook.ID]; ok {
		return fmt.Errorf("webhook %s already exists", hook.ID)
	}
	hook.CreatedAt = t.now()
	stored := *hook
	t.data.webhooks[hook.ID] = &stored
	return nil
}

func (t *memTx) ListWebhooks(_ context.Context) ([]*deposit.WebhookRegistration, error) {
	out := make([]*deposit.WebhookRegistration, 0, len(t.data.webhooks))
	for _, hook := range t.data.webhooks {
		h := *hook
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) DeleteWebhook(_ context.Context, id uuid.UUID) error {
	if _, ok := t.data.webhooks[id]; !ok {
		return deposit.ErrWebhookNotFound
	}
	delete(t.data.webhooks, id)
	return nil
}

func (t *memTx) GetState(_ context.Context) (*deposit.MonitorState, error) {
	st := t.data.state
	return &st, nil
}

func (t *memTx) SetRunning(_ context.Context, running bool) error {
	t.data.state.Running = running
	t.data.state.UpdatedAt = t.now()
	return nil
}

func (t *memTx) SaveCheckpoint(_ context.Context, checkpoint deposit.Checkpoint) error {
	t.data.state.LastCheckpoint = checkpoint
	t.data.state.UpdatedAt = t.now()
	return nil
}

func (t *memTx) SaveStats(_ context.Context, stats deposit.Stats) error {
	t.data.state.Stats = stats
	t.data.state.UpdatedAt = t.now()
	return nil
}

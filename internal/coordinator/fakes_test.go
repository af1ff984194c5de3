package coordinator_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/cache"
	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// fakeTx is the hand-written store.Tx used by every coordinator test. It
// has no backing database; instead it queues release callbacks handed
// to it by whatever fake store locked something on its behalf, and runs
// them all on Commit or Rollback — standing in for the row locks a real
// SERIALIZABLE transaction would hold until it ends.
type fakeTx struct {
	mu       sync.Mutex
	released bool
	releases []func()
}

func newFakeTx() *fakeTx { return &fakeTx{} }

func (t *fakeTx) addRelease(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases = append(t.releases, f)
}

func (t *fakeTx) finish() error {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return nil
	}
	t.released = true
	releases := t.releases
	t.mu.Unlock()
	for _, f := range releases {
		f()
	}
	return nil
}

func (t *fakeTx) Commit() error   { return t.finish() }
func (t *fakeTx) Rollback() error { return t.finish() }

// fakeTxBeginner hands out a fresh fakeTx for every call, mirroring a
// real connection pool opening one transaction per request.
type fakeTxBeginner struct{}

func (fakeTxBeginner) BeginSerializable(ctx context.Context) (store.Tx, error) {
	return newFakeTx(), nil
}

// fakeWalletStore guards its wallet map with per-wallet locks so
// LockForUpdate actually blocks a second caller the way `SELECT ... FOR
// UPDATE` would, held until the owning fakeTx commits or rolls back —
// which is what makes the S4/S5 concurrency tests meaningful rather than
// accidental.
type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	locks   map[uuid.UUID]*sync.Mutex
}

func newFakeWalletStore(wallets ...*domain.Wallet) *fakeWalletStore {
	s := &fakeWalletStore{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
	for _, w := range wallets {
		cp := *w
		s.wallets[w.ID] = &cp
		s.locks[w.ID] = &sync.Mutex{}
	}
	return s
}

func (s *fakeWalletStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *fakeWalletStore) LockForUpdate(ctx context.Context, tx store.Tx, id uuid.UUID) (*domain.Wallet, error) {
	lock := s.lockFor(id)
	lock.Lock()
	var unlocked bool
	release := func() {
		if !unlocked {
			unlocked = true
			lock.Unlock()
		}
	}
	if ft, ok := tx.(*fakeTx); ok {
		ft.addRelease(release)
	} else {
		defer release()
	}

	s.mu.Lock()
	w, ok := s.wallets[id]
	s.mu.Unlock()
	if !ok {
		release()
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *fakeWalletStore) UpdateVersioned(ctx context.Context, tx store.Tx, id uuid.UUID, newBalance money.Amount, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok || w.Version != expectedVersion {
		return 0, nil
	}
	w.Balance = newBalance
	w.Version++
	return 1, nil
}

func (s *fakeWalletStore) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

// forceVersionConflict bumps a wallet's version so the next
// UpdateVersioned call against the version a caller already read fails
// its predicate, simulating a lost-update race caught by the optimistic
// check.
func (s *fakeWalletStore) forceVersionConflict(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[id].Version++
}

type fakeTransactionLogStore struct {
	mu   sync.Mutex
	logs map[string]*domain.TransactionLog
}

func newFakeTransactionLogStore() *fakeTransactionLogStore {
	return &fakeTransactionLogStore{logs: make(map[string]*domain.TransactionLog)}
}

func (s *fakeTransactionLogStore) Insert(ctx context.Context, fields store.TransactionLogFields) (*domain.TransactionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[fields.IdempotencyKey]; ok {
		return nil, store.ErrDuplicateKey
	}
	now := time.Now()
	log := &domain.TransactionLog{
		ID:             fields.ID,
		IdempotencyKey: fields.IdempotencyKey,
		Type:           fields.Type,
		FromWalletID:   fields.FromWalletID,
		ToWalletID:     fields.ToWalletID,
		Amount:         fields.Amount,
		Currency:       fields.Currency,
		Status:         domain.TransactionStatusPending,
		Description:    fields.Description,
		Metadata:       fields.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.logs[fields.IdempotencyKey] = log
	cp := *log
	return &cp, nil
}

func (s *fakeTransactionLogStore) UpdateStatus(ctx context.Context, tx store.Tx, id uuid.UUID, status domain.TransactionStatus, errorMessage *string, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, log := range s.logs {
		if log.ID == id {
			log.Status = status
			if errorMessage != nil {
				log.ErrorMessage = errorMessage
			}
			if completedAt != nil {
				log.CompletedAt = completedAt
			}
			log.UpdatedAt = time.Now()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeTransactionLogStore) GetByKey(ctx context.Context, key string) (*domain.TransactionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

type fakeLedgerStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]domain.LedgerEntry
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{entries: make(map[uuid.UUID][]domain.LedgerEntry)}
}

func (s *fakeLedgerStore) AppendPair(ctx context.Context, tx store.Tx, transactionID uuid.UUID, debit, credit domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[transactionID] = append(s.entries[transactionID], debit, credit)
	return nil
}

func (s *fakeLedgerStore) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LedgerEntry(nil), s.entries[transactionID]...), nil
}

func (s *fakeLedgerStore) countAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, es := range s.entries {
		total += len(es)
	}
	return total
}

// fakeCache is a single-process stand-in for C5: an exclusive lease plus
// a serialized result cache, both keyed by string.
type fakeCache struct {
	mu      sync.Mutex
	leases  map[string]bool
	results map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{leases: make(map[string]bool), results: make(map[string][]byte)}
}

func (c *fakeCache) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leases[key] {
		return false, nil
	}
	c.leases[key] = true
	return true, nil
}

func (c *fakeCache) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.leases, key)
	return nil
}

func (c *fakeCache) PutResult(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = data
	return nil
}

func (c *fakeCache) GetResult(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	data, ok := c.results[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func mustAmount(s string) money.Amount {
	a, err := money.Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

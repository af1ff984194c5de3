package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-primitives/transfer-service/internal/cache"
	"github.com/wallet-primitives/transfer-service/internal/coordinator"
	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/logger"
	"github.com/wallet-primitives/transfer-service/internal/money"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// The fakes below are a minimal, httpapi-local stand-in for the store
// and cache interfaces — just enough to drive the handler end to end
// without a real database or Redis. internal/coordinator has its own,
// more elaborate fakes for exercising the concurrency protocol itself.

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubTxBeginner struct{}

func (stubTxBeginner) BeginSerializable(context.Context) (store.Tx, error) { return stubTx{}, nil }

type stubWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newStubWalletStore(wallets ...*domain.Wallet) *stubWalletStore {
	s := &stubWalletStore{wallets: make(map[uuid.UUID]*domain.Wallet)}
	for _, w := range wallets {
		cp := *w
		s.wallets[w.ID] = &cp
	}
	return s
}

func (s *stubWalletStore) LockForUpdate(ctx context.Context, tx store.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return s.Get(ctx, id)
}

func (s *stubWalletStore) UpdateVersioned(ctx context.Context, tx store.Tx, id uuid.UUID, newBalance money.Amount, expectedVersion int64) (int64, error) {
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

func (s *stubWalletStore) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

type stubLogStore struct {
	mu   sync.Mutex
	logs map[string]*domain.TransactionLog
}

func newStubLogStore() *stubLogStore { return &stubLogStore{logs: make(map[string]*domain.TransactionLog)} }

func (s *stubLogStore) Insert(ctx context.Context, fields store.TransactionLogFields) (*domain.TransactionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[fields.IdempotencyKey]; ok {
		return nil, store.ErrDuplicateKey
	}
	log := &domain.TransactionLog{
		ID:             fields.ID,
		IdempotencyKey: fields.IdempotencyKey,
		Type:           fields.Type,
		FromWalletID:   fields.FromWalletID,
		ToWalletID:     fields.ToWalletID,
		Amount:         fields.Amount,
		Currency:       fields.Currency,
		Status:         domain.TransactionStatusPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.logs[fields.IdempotencyKey] = log
	cp := *log
	return &cp, nil
}

func (s *stubLogStore) UpdateStatus(ctx context.Context, tx store.Tx, id uuid.UUID, status domain.TransactionStatus, errorMessage *string, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, log := range s.logs {
		if log.ID == id {
			log.Status = status
			if completedAt != nil {
				log.CompletedAt = completedAt
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *stubLogStore) GetByKey(ctx context.Context, key string) (*domain.TransactionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

type stubLedgerStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]domain.LedgerEntry
}

func newStubLedgerStore() *stubLedgerStore {
	return &stubLedgerStore{entries: make(map[uuid.UUID][]domain.LedgerEntry)}
}

func (s *stubLedgerStore) AppendPair(ctx context.Context, tx store.Tx, transactionID uuid.UUID, debit, credit domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[transactionID] = append(s.entries[transactionID], debit, credit)
	return nil
}

func (s *stubLedgerStore) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LedgerEntry(nil), s.entries[transactionID]...), nil
}

type stubCache struct {
	mu     sync.Mutex
	leases map[string]bool
}

func newStubCache() *stubCache { return &stubCache{leases: make(map[string]bool)} }

func (c *stubCache) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leases[key] {
		return false, nil
	}
	c.leases[key] = true
	return true, nil
}

func (c *stubCache) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.leases, key)
	return nil
}

func (c *stubCache) PutResult(ctx context.Context, key string, value any, ttl time.Duration) error { return nil }

func (c *stubCache) GetResult(ctx context.Context, key string, dest any) error { return cache.ErrMiss }

func newTestWallet(balance, currency string) *domain.Wallet {
	amount, err := money.Parse(balance)
	if err != nil {
		panic(err)
	}
	return &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   "owner",
		Type:      domain.WalletTypeUser,
		Balance:   amount,
		Currency:  currency,
		Status:    domain.WalletStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func newTestServer(wallets ...*domain.Wallet) (*Server, *stubLogStore) {
	logs := newStubLogStore()
	c := coordinator.New(
		stubTxBeginner{},
		newStubWalletStore(wallets...),
		logs,
		newStubLedgerStore(),
		newStubCache(),
		logger.NewNop(),
		30*time.Second,
		24*time.Hour,
		mustAmount("1000000000.00"),
		"NGN",
	)
	return New(NewWalletHandler(c, logger.NewNop()), logger.NewNop()), logs
}

func mustAmount(s string) money.Amount {
	a, err := money.Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func doTransfer(t *testing.T, srv *Server, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/wallet/transfer", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTransfer_HTTP_HappyPath(t *testing.T) {
	a := newTestWallet("1000.00", "NGN")
	b := newTestWallet("500.00", "NGN")
	srv, _ := newTestServer(a, b)

	rec := doTransfer(t, srv, map[string]any{
		"idempotencyKey": "http-1",
		"from":           a.ID.String(),
		"to":             b.ID.String(),
		"amount":         "100.00",
		"currency":       "NGN",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result coordinator.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "900.00", result.From.NewBalance.String())
	assert.Equal(t, "600.00", result.To.NewBalance.String())
}

func TestTransfer_HTTP_InsufficientFunds(t *testing.T) {
	a := newTestWallet("10.00", "NGN")
	b := newTestWallet("500.00", "NGN")
	srv, _ := newTestServer(a, b)

	rec := doTransfer(t, srv, map[string]any{
		"idempotencyKey": "http-2",
		"from":           a.ID.String(),
		"to":             b.ID.String(),
		"amount":         "100.00",
		"currency":       "NGN",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(coordinator.KindInsufficientFunds), resp.Code)
	require.NotNil(t, resp.Available)
	assert.Equal(t, "10.00", *resp.Available)
}

func TestTransfer_HTTP_WalletNotFound(t *testing.T) {
	a := newTestWallet("100.00", "NGN")
	srv, _ := newTestServer(a)

	rec := doTransfer(t, srv, map[string]any{
		"idempotencyKey": "http-3",
		"from":           a.ID.String(),
		"to":             uuid.New().String(),
		"amount":         "1.00",
		"currency":       "NGN",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransfer_HTTP_MalformedAmount(t *testing.T) {
	a := newTestWallet("100.00", "NGN")
	b := newTestWallet("100.00", "NGN")
	srv, _ := newTestServer(a, b)

	rec := doTransfer(t, srv, map[string]any{
		"idempotencyKey": "http-4",
		"from":           a.ID.String(),
		"to":             b.ID.String(),
		"amount":         "not-a-number",
		"currency":       "NGN",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_HTTP_InvalidWalletID(t *testing.T) {
	a := newTestWallet("100.00", "NGN")
	srv, _ := newTestServer(a)

	rec := doTransfer(t, srv, map[string]any{
		"idempotencyKey": "http-5",
		"from":           "not-a-uuid",
		"to":             a.ID.String(),
		"amount":         "1.00",
		"currency":       "NGN",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_HTTP_IdempotentReplay(t *testing.T) {
	a := newTestWallet("1000.00", "NGN")
	b := newTestWallet("500.00", "NGN")
	srv, _ := newTestServer(a, b)

	body := map[string]any{
		"idempotencyKey": "http-6",
		"from":           a.ID.String(),
		"to":             b.ID.String(),
		"amount":         "50.00",
		"currency":       "NGN",
	}

	first := doTransfer(t, srv, body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doTransfer(t, srv, body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestTransfer_HTTP_Metrics(t *testing.T) {
	srv, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

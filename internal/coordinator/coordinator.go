// Package coordinator implements C6, the transfer coordinator: the one
// operation (Transfer) that ties together the money, wallet store,
// transaction log store, ledger store, and mutex/result cache into a
// single idempotent, double-entry value movement.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/cache"
	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/logger"
	"github.com/wallet-primitives/transfer-service/internal/money"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// Coordinator is C6. It owns no state between calls: every Transfer is
// independent, synchronized only through the database and cache.
type Coordinator struct {
	beginner store.TxBeginner
	wallets  store.WalletStore
	logs     store.TransactionLogStore
	ledger   store.LedgerStore
	cache    cache.MutexCache
	log      logger.Logger

	leaseTTL        time.Duration
	resultTTL       time.Duration
	maxAmount       money.Amount
	defaultCurrency string
}

// New constructs a Coordinator. beginner opens the serializable
// transaction; all reads and writes within it go through the store
// interfaces so the Postgres driver stays an implementation detail the
// coordinator itself never imports.
func New(
	beginner store.TxBeginner,
	wallets store.WalletStore,
	logs store.TransactionLogStore,
	ledger store.LedgerStore,
	resultCache cache.MutexCache,
	log logger.Logger,
	leaseTTL, resultTTL time.Duration,
	maxAmount money.Amount,
	defaultCurrency string,
) *Coordinator {
	return &Coordinator{
		beginner:        beginner,
		wallets:         wallets,
		logs:            logs,
		ledger:          ledger,
		cache:           resultCache,
		log:             log,
		leaseTTL:        leaseTTL,
		resultTTL:       resultTTL,
		maxAmount:       maxAmount,
		defaultCurrency: defaultCurrency,
	}
}

func idempotencyCacheKey(key string) string { return "idempotency:" + key }
func leaseCacheKey(key string) string       { return "lock:" + key }

// Transfer executes the full protocol described in the component design:
// pre-validation, idempotent result lookup, lease acquisition, durable
// intent, a SERIALIZABLE section that moves the money and records the
// ledger pair, and a post-commit cache write. It returns a *Error for
// every business-facing failure; any other error is a bug.
func (c *Coordinator) Transfer(ctx context.Context, req TransferRequest) (*Result, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}

	cacheKey := idempotencyCacheKey(req.IdempotencyKey)
	lockKey := leaseCacheKey(req.IdempotencyKey)

	if result := c.checkResultCache(ctx, cacheKey); result != nil {
		return result, nil
	}

	if existing, err := c.logs.GetByKey(ctx, req.IdempotencyKey); err == nil {
		if existing.Status == domain.TransactionStatusCompleted {
			result, synthErr := c.synthesizeResult(ctx, existing)
			if synthErr != nil {
				return nil, internalError(synthErr)
			}
			return result, nil
		}
		// PENDING/PROCESSING/FAILED: fall through to lease acquisition.
		// A concurrent worker already owns this key or it is terminal;
		// either way the insert below will hit the dup-key branch.
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalError(err)
	}

	acquired, err := c.cache.TryAcquire(ctx, lockKey, c.leaseTTL)
	if err != nil {
		return nil, internalError(err)
	}
	if !acquired {
		return nil, concurrentInProgress("another worker holds the lease for key %q", req.IdempotencyKey)
	}
	defer func() {
		if err := c.cache.Release(ctx, lockKey); err != nil {
			c.log.Warn("lease release failed", logger.StringField("key", lockKey), logger.ErrorField("error", err))
		}
	}()

	log, cErr := c.insertLog(ctx, req)
	if cErr != nil {
		return nil, cErr
	}
	if log == nil {
		// insertLog found a completed duplicate; rebuild its result from
		// the stored row and its ledger pair.
		return c.completedFromDuplicate(ctx, req.IdempotencyKey)
	}

	result, txErr := c.runSerializableSection(ctx, log, req)
	if txErr != nil {
		msg := txErr.Error()
		if updErr := c.logs.UpdateStatus(ctx, nil, log.ID, domain.TransactionStatusFailed, &msg, nil); updErr != nil {
			c.log.Warn("best-effort FAILED update failed",
				logger.StringField("transaction_id", log.ID.String()),
				logger.ErrorField("error", updErr))
		}
		return nil, txErr
	}

	if err := c.cache.PutResult(ctx, cacheKey, result, c.resultTTL); err != nil {
		c.log.Warn("result cache write failed", logger.StringField("key", cacheKey), logger.ErrorField("error", err))
	}

	return result, nil
}

// validate applies spec's pre-validation rules, defaulting currency when
// absent, before any I/O.
func (c *Coordinator) validate(req *TransferRequest) *Error {
	if !idempotencyKeyPattern.MatchString(req.IdempotencyKey) {
		return invalidRequest("idempotency_key must be 1-255 characters of [A-Za-z0-9_-]")
	}
	if req.From == req.To {
		return invalidRequest("from and to must be different wallets")
	}
	if !req.Amount.IsPositive() {
		return invalidRequest("amount must be positive")
	}
	if req.Amount.Cmp(c.maxAmount) > 0 {
		return invalidRequest("amount exceeds maximum transfer amount %s", c.maxAmount)
	}
	if req.Currency == "" {
		req.Currency = c.defaultCurrency
	} else if !currencyPattern.MatchString(req.Currency) {
		return invalidRequest("currency must be three uppercase letters")
	}
	return nil
}

// checkResultCache returns a non-nil Result on a cache hit and nil
// otherwise, including on an unexpected cache error — the cache is an
// accelerator, so a read failure just falls through to the durable path.
func (c *Coordinator) checkResultCache(ctx context.Context, cacheKey string) *Result {
	var result Result
	err := c.cache.GetResult(ctx, cacheKey, &result)
	if err == nil {
		return &result
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn("result cache read failed", logger.StringField("key", cacheKey), logger.ErrorField("error", err))
	}
	return nil
}

// insertLog performs the "durable intent" step. A nil *domain.TransactionLog
// with a nil error means a completed duplicate was found and the caller
// should fetch its synthesized result separately (the row itself isn't
// needed again).
func (c *Coordinator) insertLog(ctx context.Context, req TransferRequest) (*domain.TransactionLog, *Error) {
	fields := store.TransactionLogFields{
		ID:             uuid.New(),
		IdempotencyKey: req.IdempotencyKey,
		Type:           domain.TransactionTypeTransfer,
		FromWalletID:   req.From,
		ToWalletID:     req.To,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		Metadata:       req.Metadata,
	}

	log, err := c.logs.Insert(ctx, fields)
	if err == nil {
		return log, nil
	}
	if !errors.Is(err, store.ErrDuplicateKey) {
		return nil, internalError(err)
	}

	existing, getErr := c.logs.GetByKey(ctx, req.IdempotencyKey)
	if getErr != nil {
		return nil, internalError(getErr)
	}
	if existing.Status == domain.TransactionStatusCompleted {
		return nil, nil
	}
	return nil, concurrentInProgress("transaction for key %q is already %s", req.IdempotencyKey, existing.Status)
}

func (c *Coordinator) completedFromDuplicate(ctx context.Context, idempotencyKey string) (*Result, error) {
	existing, err := c.logs.GetByKey(ctx, idempotencyKey)
	if err != nil {
		return nil, internalError(err)
	}
	result, err := c.synthesizeResult(ctx, existing)
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}

// synthesizeResult rebuilds a Result for an already-COMPLETED
// transaction from its recorded ledger pair, not from the wallets'
// current balances, which may have since moved further.
func (c *Coordinator) synthesizeResult(ctx context.Context, log *domain.TransactionLog) (*Result, error) {
	entries, err := c.ledger.GetByTransactionID(ctx, log.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success:       true,
		TransactionID: log.ID,
		Status:        domain.TransactionStatusCompleted,
	}
	if log.CompletedAt != nil {
		result.Timestamp = *log.CompletedAt
	} else {
		result.Timestamp = log.UpdatedAt
	}

	for _, entry := range entries {
		switch entry.Type {
		case domain.LedgerEntryDebit:
			result.From = WalletSnapshot{ID: entry.WalletID, NewBalance: entry.BalanceAfter}
		case domain.LedgerEntryCredit:
			result.To = WalletSnapshot{ID: entry.WalletID, NewBalance: entry.BalanceAfter}
		}
	}
	if entries == nil || len(entries) < 2 {
		return nil, fmt.Errorf("transaction %s is COMPLETED but has %d ledger entries", log.ID, len(entries))
	}
	return result, nil
}

// runSerializableSection executes steps 1-9 of the protocol inside a
// single SERIALIZABLE transaction, rolling back on any error.
func (c *Coordinator) runSerializableSection(ctx context.Context, log *domain.TransactionLog, req TransferRequest) (*Result, error) {
	tx, err := c.beginner.BeginSerializable(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	var committed bool
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.log.Warn("transaction rollback failed", logger.ErrorField("error", rbErr))
			}
		}
	}()

	if err := c.logs.UpdateStatus(ctx, tx, log.ID, domain.TransactionStatusProcessing, nil, nil); err != nil {
		return nil, internalError(err)
	}

	source, dest, lockErr := c.lockEndpoints(ctx, tx, req.From, req.To)
	if lockErr != nil {
		return nil, lockErr
	}

	if source.Currency != req.Currency || dest.Currency != req.Currency {
		return nil, invalidRequest("transfer currency %s does not match wallet currency", req.Currency)
	}

	if source.Balance.LessThan(req.Amount) {
		return nil, insufficientFunds(source.Balance, req.Amount)
	}

	newSource := source.Balance.Sub(req.Amount)
	newDest := dest.Balance.Add(req.Amount)

	rows, err := c.wallets.UpdateVersioned(ctx, tx, source.ID, newSource, source.Version)
	if err != nil {
		return nil, internalError(err)
	}
	if rows == 0 {
		return nil, versionConflict(source.ID)
	}

	rows, err = c.wallets.UpdateVersioned(ctx, tx, dest.ID, newDest, dest.Version)
	if err != nil {
		return nil, internalError(err)
	}
	if rows == 0 {
		return nil, versionConflict(dest.ID)
	}

	debit := domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: log.ID,
		WalletID:      source.ID,
		Type:          domain.LedgerEntryDebit,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BalanceAfter:  newSource,
		Description:   req.Description,
	}
	credit := domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: log.ID,
		WalletID:      dest.ID,
		Type:          domain.LedgerEntryCredit,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BalanceAfter:  newDest,
		Description:   req.Description,
	}
	if err := c.ledger.AppendPair(ctx, tx, log.ID, debit, credit); err != nil {
		return nil, internalError(err)
	}

	completedAt := time.Now()
	if err := c.logs.UpdateStatus(ctx, tx, log.ID, domain.TransactionStatusCompleted, nil, &completedAt); err != nil {
		return nil, internalError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, internalError(err)
	}
	committed = true

	return &Result{
		Success:       true,
		TransactionID: log.ID,
		Status:        domain.TransactionStatusCompleted,
		From:          WalletSnapshot{ID: source.ID, NewBalance: newSource},
		To:            WalletSnapshot{ID: dest.ID, NewBalance: newDest},
		Timestamp:     completedAt,
	}, nil
}

// lockEndpoints locks both wallets in ascending lexicographic id order
// regardless of which is source or destination, then returns them
// relabeled as (source, dest) matching the request (spec §4.1's
// "Deadlock avoidance").
func (c *Coordinator) lockEndpoints(ctx context.Context, tx store.Tx, from, to uuid.UUID) (source, dest *domain.Wallet, err *Error) {
	ids := []uuid.UUID{from, to}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range ids {
		w, lockErr := c.wallets.LockForUpdate(ctx, tx, id)
		if lockErr != nil {
			if errors.Is(lockErr, store.ErrNotFound) {
				return nil, nil, notFound(id)
			}
			return nil, nil, internalError(lockErr)
		}
		if !w.IsActive() {
			return nil, nil, inactiveWallet(id)
		}
		locked[id] = w
	}

	return locked[from], locked[to], nil
}

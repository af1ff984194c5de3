package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
)

// Tx is the narrow transaction handle threaded through store methods
// that must participate in the coordinator's single database
// transaction. internal/store/postgres implementations type-assert it
// back to *sqlx.Tx; this keeps the coordinator free of a direct sqlx
// dependency, so hand-written fakes can stand in for it in unit tests.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxBeginner opens the SERIALIZABLE transaction the coordinator's
// protocol runs inside. Abstracting this (rather than handing the
// coordinator a *sqlx.DB directly) keeps it free to run against a
// hand-written fake transaction in unit tests.
type TxBeginner interface {
	BeginSerializable(ctx context.Context) (Tx, error)
}

// WalletStore is C2: typed access to the wallets row, with a locked
// read/write path for use inside the coordinator's serializable
// transaction and an unlocked read path for read-only callers.
type WalletStore interface {
	// LockForUpdate takes a row-level exclusive lock (SELECT ... FOR
	// UPDATE) and returns the wallet's current state. Returns
	// ErrNotFound if no such wallet exists.
	LockForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*domain.Wallet, error)

	// UpdateVersioned applies newBalance only if the stored version
	// still equals expectedVersion, bumping version by one. Returns the
	// number of rows affected (0 or 1) so the caller can detect a lost
	// update.
	UpdateVersioned(ctx context.Context, tx Tx, id uuid.UUID, newBalance money.Amount, expectedVersion int64) (int64, error)

	// Get reads a wallet with no lock, for read-only surfaces.
	Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
}

// TransactionLogFields is the set of columns supplied when inserting a
// new TransactionLog row.
type TransactionLogFields struct {
	ID             uuid.UUID
	IdempotencyKey string
	Type           domain.TransactionType
	FromWalletID   uuid.UUID
	ToWalletID     uuid.UUID
	Amount         money.Amount
	Currency       string
	Description    *string
	Metadata       *string
}

// TransactionLogStore is C3: durable record of transfer attempts, keyed
// uniquely by idempotency key.
type TransactionLogStore interface {
	// Insert creates a new PENDING row. Returns ErrDuplicateKey if the
	// idempotency key already exists.
	Insert(ctx context.Context, fields TransactionLogFields) (*domain.TransactionLog, error)

	// UpdateStatus transitions a row's status, optionally inside tx (nil
	// means run outside any transaction — used for the best-effort FAILED
	// update after a rollback). completedAt and errorMessage are applied
	// only when non-nil.
	UpdateStatus(ctx context.Context, tx Tx, id uuid.UUID, status domain.TransactionStatus, errorMessage *string, completedAt *time.Time) error

	// GetByKey looks up a row by its idempotency key. Returns
	// ErrNotFound if none exists.
	GetByKey(ctx context.Context, key string) (*domain.TransactionLog, error)
}

// LedgerStore is C4: append-only debit/credit pair insertion.
type LedgerStore interface {
	// AppendPair inserts debit and credit within tx, after verifying
	// they balance (equal amount, matching currency, opposite sides,
	// same transaction id) — a programming-error guard, not a business
	// rule the caller can violate through normal use.
	AppendPair(ctx context.Context, tx Tx, transactionID uuid.UUID, debit, credit domain.LedgerEntry) error

	// GetByTransactionID returns the (debit, credit) pair recorded for a
	// completed transfer, letting a replayed idempotent request rebuild
	// its Result from the balances recorded at commit time rather than
	// the wallets' current state.
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
}

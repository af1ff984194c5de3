package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// uniqueViolation is Postgres's SQLSTATE for a unique-constraint failure.
const uniqueViolation = "23505"

// TransactionLogStore is the Postgres-backed implementation of
// store.TransactionLogStore.
type TransactionLogStore struct {
	db *sqlx.DB
}

// NewTransactionLogStore constructs a TransactionLogStore.
func NewTransactionLogStore(db *sqlx.DB) *TransactionLogStore {
	return &TransactionLogStore{db: db}
}

const transactionLogColumns = `id, idempotency_key, type, from_wallet_id, to_wallet_id, amount, currency, status, description, error_message, metadata, completed_at, created_at, updated_at`

// Insert creates a new PENDING TransactionLog row. If idempotency_key
// already exists, it returns store.ErrDuplicateKey so the coordinator
// can re-read the existing row (spec §4.1's "Durable intent" step).
func (s *TransactionLogStore) Insert(ctx context.Context, fields store.TransactionLogFields) (*domain.TransactionLog, error) {
	query := `
		INSERT INTO transaction_logs
			(id, idempotency_key, type, from_wallet_id, to_wallet_id, amount, currency, status, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING ` + transactionLogColumns

	var log domain.TransactionLog
	err := s.db.GetContext(ctx, &log, query,
		fields.ID,
		fields.IdempotencyKey,
		fields.Type,
		fields.FromWalletID,
		fields.ToWalletID,
		fields.Amount,
		fields.Currency,
		domain.TransactionStatusPending,
		fields.Description,
		fields.Metadata,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, store.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert transaction log: %w", err)
	}
	return &log, nil
}

// UpdateStatus transitions a row's status. Passing a nil tx runs outside
// any transaction, used for the best-effort FAILED update after a
// serializable-section rollback (spec §4.1's "Failure path").
func (s *TransactionLogStore) UpdateStatus(ctx context.Context, tx store.Tx, id uuid.UUID, status domain.TransactionStatus, errorMessage *string, completedAt *time.Time) error {
	query := `
		UPDATE transaction_logs
		SET status = $1, error_message = COALESCE($2, error_message), completed_at = COALESCE($3, completed_at), updated_at = now()
		WHERE id = $4`

	var err error
	if tx != nil {
		sqlxTx, txErr := asSqlxTx(tx)
		if txErr != nil {
			return txErr
		}
		_, err = sqlxTx.ExecContext(ctx, query, status, errorMessage, completedAt, id)
	} else {
		_, err = s.db.ExecContext(ctx, query, status, errorMessage, completedAt, id)
	}
	if err != nil {
		return fmt.Errorf("update transaction log %s status: %w", id, err)
	}
	return nil
}

// GetByKey looks up a row by idempotency key.
func (s *TransactionLogStore) GetByKey(ctx context.Context, key string) (*domain.TransactionLog, error) {
	var log domain.TransactionLog
	query := `SELECT ` + transactionLogColumns + ` FROM transaction_logs WHERE idempotency_key = $1`
	if err := s.db.GetContext(ctx, &log, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction log by key %q: %w", key, err)
	}
	return &log, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// WalletStore is the Postgres-backed implementation of store.WalletStore.
type WalletStore struct {
	db *sqlx.DB
}

// NewWalletStore constructs a WalletStore around an open connection pool.
func NewWalletStore(db *sqlx.DB) *WalletStore {
	return &WalletStore{db: db}
}

const walletColumns = `id, owner_id, type, balance, currency, status, version, created_at, updated_at`

// LockForUpdate takes a row-level exclusive lock and reads the wallet's
// current state. Callers acquire locks on both endpoints of a transfer
// in ascending id order to avoid lock-order inversion (spec §4.1).
func (s *WalletStore) LockForUpdate(ctx context.Context, tx store.Tx, id uuid.UUID) (*domain.Wallet, error) {
	sqlxTx, err := asSqlxTx(tx)
	if err != nil {
		return nil, err
	}
	var w domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &w, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("lock wallet %s: %w", id, err)
	}
	return &w, nil
}

// UpdateVersioned applies an optimistic-locked balance update. A rows
// affected count of zero signals a version conflict (spec §4.1 step 6).
func (s *WalletStore) UpdateVersioned(ctx context.Context, tx store.Tx, id uuid.UUID, newBalance money.Amount, expectedVersion int64) (int64, error) {
	sqlxTx, err := asSqlxTx(tx)
	if err != nil {
		return 0, err
	}
	query := `
		UPDATE wallets
		SET balance = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3`
	res, err := sqlxTx.ExecContext(ctx, query, newBalance, id, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("update wallet %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for wallet %s: %w", id, err)
	}
	return rows, nil
}

// Get reads a wallet with no lock, for read-only callers.
func (s *WalletStore) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	if err := s.db.GetContext(ctx, &w, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet %s: %w", id, err)
	}
	return &w, nil
}

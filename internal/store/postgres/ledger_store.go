package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

// LedgerStore is the Postgres-backed implementation of store.LedgerStore.
type LedgerStore struct {
	db *sqlx.DB
}

// NewLedgerStore constructs a LedgerStore.
func NewLedgerStore(db *sqlx.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerEntryColumns = `id, transaction_id, wallet_id, type, amount, currency, balance_after, description, created_at, updated_at`

// AppendPair inserts the debit and credit halves of a transfer within
// tx, after checking they actually balance. A mismatch here means the
// coordinator built the pair wrong, not that the caller supplied bad
// input, so it panics rather than returning an error the caller could
// mistake for a business-rule rejection.
func (s *LedgerStore) AppendPair(ctx context.Context, tx store.Tx, transactionID uuid.UUID, debit, credit domain.LedgerEntry) error {
	if debit.Type != domain.LedgerEntryDebit || credit.Type != domain.LedgerEntryCredit {
		panic("ledger: AppendPair requires one debit and one credit entry")
	}
	if debit.TransactionID != transactionID || credit.TransactionID != transactionID {
		panic("ledger: AppendPair entries must reference the given transaction")
	}
	if !debit.Amount.Equal(credit.Amount) {
		panic("ledger: AppendPair debit and credit amounts must match")
	}
	if debit.Currency != credit.Currency {
		panic("ledger: AppendPair debit and credit currency must match")
	}

	sqlxTx, err := asSqlxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (` + ledgerEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`

	if _, err := sqlxTx.ExecContext(ctx, query,
		debit.ID, transactionID, debit.WalletID, debit.Type, debit.Amount, debit.Currency, debit.BalanceAfter, debit.Description,
	); err != nil {
		return fmt.Errorf("insert debit ledger entry: %w", err)
	}

	if _, err := sqlxTx.ExecContext(ctx, query,
		credit.ID, transactionID, credit.WalletID, credit.Type, credit.Amount, credit.Currency, credit.BalanceAfter, credit.Description,
	); err != nil {
		return fmt.Errorf("insert credit ledger entry: %w", err)
	}

	return nil
}

// GetByTransactionID returns every entry recorded against a transaction,
// oldest first. Both halves of a pair share one created_at (now() is
// fixed per transaction), so ties are broken by type, DEBIT before CREDIT.
func (s *LedgerStore) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at ASC, type DESC`
	if err := s.db.SelectContext(ctx, &entries, query, transactionID); err != nil {
		return nil, fmt.Errorf("get ledger entries for transaction %s: %w", transactionID, err)
	}
	return entries, nil
}

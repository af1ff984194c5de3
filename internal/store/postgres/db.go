// Package postgres implements the C2-C4 store interfaces (internal/store)
// against PostgreSQL via sqlx and lib/pq, following the teacher's
// BeginTxx(SERIALIZABLE)/rollback-on-defer shape.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/jmoiron/sqlx"

	"github.com/wallet-primitives/transfer-service/internal/config"
	"github.com/wallet-primitives/transfer-service/internal/store"
)

var serializableTxOptions = sql.TxOptions{Isolation: sql.LevelSerializable}

// Open connects to Postgres, verifies connectivity, and applies the
// configured pool bounds.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AcquireTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(2 * time.Hour)

	return db, nil
}

// BeginSerializable opens a transaction at SERIALIZABLE isolation, the
// level the transfer coordinator's protocol requires (spec §4.1). The
// returned *sqlx.Tx satisfies store.Tx, so callers can hand it straight
// to the WalletStore/TransactionLogStore/LedgerStore methods.
func BeginSerializable(ctx context.Context, db *sqlx.DB) (*sqlx.Tx, error) {
	return db.BeginTxx(ctx, &serializableTxOptions)
}

// TxBeginner is the store.TxBeginner implementation the coordinator is
// wired against in production, opening real SERIALIZABLE transactions
// against a connection pool.
type TxBeginner struct {
	db *sqlx.DB
}

// NewTxBeginner wraps an open connection pool as a store.TxBeginner.
func NewTxBeginner(db *sqlx.DB) *TxBeginner {
	return &TxBeginner{db: db}
}

// BeginSerializable implements store.TxBeginner.
func (b *TxBeginner) BeginSerializable(ctx context.Context) (store.Tx, error) {
	tx, err := BeginSerializable(ctx, b.db)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// asSqlxTx recovers the concrete *sqlx.Tx backing a store.Tx handle.
// Every store method that writes inside a transaction needs sqlx's
// context-aware Exec/Get/Select, which store.Tx (Commit/Rollback only)
// deliberately does not expose to the coordinator.
func asSqlxTx(tx store.Tx) (*sqlx.Tx, error) {
	sqlxTx, ok := tx.(*sqlx.Tx)
	if !ok {
		return nil, fmt.Errorf("postgres store: expected *sqlx.Tx, got %T", tx)
	}
	return sqlxTx, nil
}

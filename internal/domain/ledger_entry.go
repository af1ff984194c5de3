package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/money"
)

// LedgerEntryType is one half of a double-entry pair.
type LedgerEntryType string

const (
	LedgerEntryDebit  LedgerEntryType = "DEBIT"
	LedgerEntryCredit LedgerEntryType = "CREDIT"
)

// LedgerEntry is one append-only half of a double-entry pair recorded
// against a completed TransactionLog. Entries are never mutated once
// inserted.
type LedgerEntry struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	TransactionID uuid.UUID       `db:"transaction_id" json:"transactionId"`
	WalletID      uuid.UUID       `db:"wallet_id" json:"walletId"`
	Type          LedgerEntryType `db:"type" json:"type"`
	Amount        money.Amount    `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	BalanceAfter  money.Amount    `db:"balance_after" json:"balanceAfter"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/money"
)

// TransactionType distinguishes the kind of movement a log row records.
// The coordinator only ever writes TRANSFER; the others are reserved for
// other value-movement flows outside this spec's scope.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeRefund     TransactionType = "REFUND"
)

// TransactionStatus is the state-machine position of a TransactionLog,
// per spec §4.1: PENDING -> PROCESSING -> {COMPLETED | FAILED}.
// ROLLED_BACK is reserved and never written by the coordinator.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusRolledBack TransactionStatus = "ROLLED_BACK"
)

// TransactionLog is the durable record of one transfer attempt, keyed by
// a caller-chosen idempotency key that is unique across all rows.
type TransactionLog struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	IdempotencyKey string            `db:"idempotency_key" json:"idempotencyKey"`
	Type           TransactionType   `db:"type" json:"type"`
	FromWalletID   uuid.UUID         `db:"from_wallet_id" json:"fromWalletId"`
	ToWalletID     uuid.UUID         `db:"to_wallet_id" json:"toWalletId"`
	Amount         money.Amount      `db:"amount" json:"amount"`
	Currency       string            `db:"currency" json:"currency"`
	Status         TransactionStatus `db:"status" json:"status"`
	Description    *string           `db:"description" json:"description,omitempty"`
	ErrorMessage   *string           `db:"error_message" json:"errorMessage,omitempty"`
	Metadata       *string           `db:"metadata" json:"metadata,omitempty"`
	CompletedAt    *time.Time        `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`
}

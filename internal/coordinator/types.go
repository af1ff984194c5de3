package coordinator

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
)

// idempotencyKeyPattern is spec's charset for the caller-chosen key:
// letters, digits, underscore, hyphen, 1-255 characters.
var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// currencyPattern matches a three-uppercase-letter ISO 4217-shaped code.
var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// TransferRequest is the transport-agnostic input to Transfer.
type TransferRequest struct {
	IdempotencyKey string
	From           uuid.UUID
	To             uuid.UUID
	Amount         money.Amount
	Currency       string
	Description    *string
	Metadata       *string
}

// WalletSnapshot is the post-transfer balance of one endpoint.
type WalletSnapshot struct {
	ID         uuid.UUID    `json:"id"`
	NewBalance money.Amount `json:"newBalance"`
}

// Result is the outcome of a successful (or previously successful,
// replayed) Transfer call.
type Result struct {
	Success       bool                     `json:"success"`
	TransactionID uuid.UUID                `json:"transactionId"`
	Status        domain.TransactionStatus `json:"status"`
	From          WalletSnapshot           `json:"from"`
	To            WalletSnapshot           `json:"to"`
	Timestamp     time.Time                `json:"timestamp"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wallet-primitives/transfer-service/internal/money"
)

// InterestAccrual is one auditable daily-interest calculation against a
// wallet's balance snapshot. It is append-only and does not itself move
// value — crediting accrued interest back into a wallet is a separate
// deposit operation outside this package's scope.
type InterestAccrual struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	WalletID      uuid.UUID       `db:"wallet_id" json:"walletId"`
	Principal     money.Amount    `db:"principal" json:"principal"`
	Rate          decimal.Decimal `db:"rate" json:"rate"`
	AccruedAmount money.Amount    `db:"accrued_amount" json:"accruedAmount"`
	PeriodStart   time.Time       `db:"period_start" json:"periodStart"`
	PeriodEnd     time.Time       `db:"period_end" json:"periodEnd"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

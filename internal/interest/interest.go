// Package interest implements the daily interest calculator:
// spec.md frames it as specified "only through its storage contract", so
// this package gives that contract a real shape — a pure accrual
// function plus an append-only store — without the scheduling or
// wallet-crediting machinery that would turn it into its own
// value-movement flow.
package interest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
)

// DailyAccrual computes the interest owed on principal at dailyRate,
// rounded to money's scale with round-half-to-even. dailyRate is a
// fraction (e.g. 0.0005 for 0.05%/day), not a percentage.
func DailyAccrual(principal money.Amount, dailyRate decimal.Decimal) money.Amount {
	return principal.Mul(dailyRate)
}

// AccrualStore is the append-only persistence half of the interest
// calculator's storage contract: one row per computed accrual, never
// updated or deleted.
type AccrualStore interface {
	// Record inserts one InterestAccrual row for the half-open period
	// [periodStart, periodEnd).
	Record(ctx context.Context, walletID uuid.UUID, principal money.Amount, rate decimal.Decimal, accrued money.Amount, periodStart, periodEnd time.Time) (*domain.InterestAccrual, error)

	// ListByWallet returns a wallet's recorded accruals ordered by
	// period start, most recent first.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.InterestAccrual, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wallet-primitives/transfer-service/internal/domain"
	"github.com/wallet-primitives/transfer-service/internal/money"
)

// InterestAccrualStore is the Postgres-backed implementation of
// interest.AccrualStore.
type InterestAccrualStore struct {
	db *sqlx.DB
}

// NewInterestAccrualStore constructs an InterestAccrualStore around an
// open connection pool.
func NewInterestAccrualStore(db *sqlx.DB) *InterestAccrualStore {
	return &InterestAccrualStore{db: db}
}

const interestAccrualColumns = `id, wallet_id, principal, rate, accrued_amount, period_start, period_end, created_at`

// Record inserts one accrual row. Accruals are never updated once
// written, so there is no corresponding Update method.
func (s *InterestAccrualStore) Record(ctx context.Context, walletID uuid.UUID, principal money.Amount, rate decimal.Decimal, accrued money.Amount, periodStart, periodEnd time.Time) (*domain.InterestAccrual, error) {
	accrual := domain.InterestAccrual{
		ID:            uuid.New(),
		WalletID:      walletID,
		Principal:     principal,
		Rate:          rate,
		AccruedAmount: accrued,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		CreatedAt:     time.Now(),
	}

	query := `
		INSERT INTO interest_accruals (` + interestAccrualColumns + `)
		VALUES (:id, :wallet_id, :principal, :rate, :accrued_amount, :period_start, :period_end, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, accrual); err != nil {
		return nil, fmt.Errorf("record interest accrual for wallet %s: %w", walletID, err)
	}
	return &accrual, nil
}

// ListByWallet returns a wallet's recorded accruals, most recent period
// first, bounded by limit.
func (s *InterestAccrualStore) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.InterestAccrual, error) {
	var accruals []domain.InterestAccrual
	query := `
		SELECT ` + interestAccrualColumns + `
		FROM interest_accruals
		WHERE wallet_id = $1
		ORDER BY period_start DESC
		LIMIT $2`
	if err := s.db.SelectContext(ctx, &accruals, query, walletID, limit); err != nil {
		return nil, fmt.Errorf("list interest accruals for wallet %s: %w", walletID, err)
	}
	return accruals, nil
}

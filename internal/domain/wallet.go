// Package domain holds the plain value records persisted by the store
// packages. These carry no behavior beyond small invariant helpers —
// all mutation happens through the store interfaces under an explicit
// transaction handle, never through methods on a loaded row.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/money"
)

// WalletType distinguishes the role a wallet plays.
type WalletType string

const (
	WalletTypePool     WalletType = "POOL"
	WalletTypeUser     WalletType = "USER"
	WalletTypeMerchant WalletType = "MERCHANT"
)

// WalletStatus gates whether a wallet may participate in a transfer.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

// Wallet is a value-bearing account. Balance and Version are mutated
// exclusively by the coordinator under a row lock (internal/store/postgres);
// this type never mutates itself.
type Wallet struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	OwnerID   string       `db:"owner_id" json:"ownerId"`
	Type      WalletType   `db:"type" json:"type"`
	Balance   money.Amount `db:"balance" json:"balance"`
	Currency  string       `db:"currency" json:"currency"`
	Status    WalletStatus `db:"status" json:"status"`
	Version   int64        `db:"version" json:"version"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the wallet may be a transfer endpoint.
func (w Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

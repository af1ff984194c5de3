// Package store holds the sentinel errors shared by every concrete store
// implementation (currently only internal/store/postgres), kept apart
// from that package so the coordinator can depend on the contract
// without depending on the Postgres driver.
package store

import "errors"

// ErrNotFound is returned when a lookup by id or key finds no row.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateKey is returned when an insert violates a unique
// constraint (idempotency_key for TransactionLog).
var ErrDuplicateKey = errors.New("store: duplicate key")

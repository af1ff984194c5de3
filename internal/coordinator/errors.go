package coordinator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wallet-primitives/transfer-service/internal/money"
)

// Kind is the external error taxonomy a caller maps to a transport
// status. It never changes meaning across retries of the same request.
type Kind string

const (
	KindInvalidRequest       Kind = "INVALID_REQUEST"
	KindNotFound             Kind = "NOT_FOUND"
	KindInactiveWallet       Kind = "INACTIVE_WALLET"
	KindInsufficientFunds    Kind = "INSUFFICIENT_FUNDS"
	KindConcurrentInProgress Kind = "CONCURRENT_IN_PROGRESS"
	KindVersionConflict      Kind = "VERSION_CONFLICT"
	KindInternalError        Kind = "INTERNAL_ERROR"
)

// Error is the typed error every Transfer call returns on failure. It
// carries enough structured detail for an HTTP layer to both choose a
// status code and render a useful body, without that layer needing to
// parse a message string.
type Error struct {
	Kind      Kind
	Message   string
	WalletID  *uuid.UUID
	Available *money.Amount
	Required  *money.Amount
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coordinator: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("coordinator: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(walletID uuid.UUID) *Error {
	id := walletID
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("wallet %s not found", walletID), WalletID: &id}
}

func inactiveWallet(walletID uuid.UUID) *Error {
	id := walletID
	return &Error{Kind: KindInactiveWallet, Message: fmt.Sprintf("wallet %s is not active", walletID), WalletID: &id}
}

func insufficientFunds(available, required money.Amount) *Error {
	avail, req := available, required
	return &Error{
		Kind:      KindInsufficientFunds,
		Message:   fmt.Sprintf("available %s is less than required %s", available, required),
		Available: &avail,
		Required:  &req,
	}
}

func concurrentInProgress(format string, args ...any) *Error {
	return &Error{Kind: KindConcurrentInProgress, Message: fmt.Sprintf(format, args...)}
}

func versionConflict(walletID uuid.UUID) *Error {
	id := walletID
	return &Error{Kind: KindVersionConflict, Message: fmt.Sprintf("wallet %s changed concurrently", walletID), WalletID: &id}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternalError, Message: "internal error", Err: err}
}

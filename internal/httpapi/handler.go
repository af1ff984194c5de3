package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wallet-primitives/transfer-service/internal/coordinator"
	"github.com/wallet-primitives/transfer-service/internal/logger"
	"github.com/wallet-primitives/transfer-service/internal/money"
)

// WalletHandler serves the transfer coordinator's one public operation
// over HTTP, following the decode→validate→invoke→map-error→respond
// shape this codebase's HTTP layer has always used.
type WalletHandler struct {
	coordinator *coordinator.Coordinator
	log         logger.Logger
}

// NewWalletHandler constructs a WalletHandler around a ready-to-use
// Coordinator.
func NewWalletHandler(c *coordinator.Coordinator, log logger.Logger) *WalletHandler {
	return &WalletHandler{coordinator: c, log: log}
}

// RegisterRoutes attaches this handler's endpoints to router.
func (h *WalletHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/wallet/transfer", h.Transfer).Methods("POST")
}

// transferRequestBody is the wire shape of a transfer request. Amount
// and currency are transport-level strings; decodeTransferRequest turns
// them into the coordinator's typed TransferRequest.
type transferRequestBody struct {
	IdempotencyKey string  `json:"idempotencyKey"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Description    *string `json:"description,omitempty"`
	Metadata       *string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	WalletID  *string `json:"walletId,omitempty"`
	Available *string `json:"available,omitempty"`
	Required  *string `json:"required,omitempty"`
}

// Transfer handles POST /wallet/transfer.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	req, decodeErr := h.decodeTransferRequest(r)
	if decodeErr != nil {
		h.log.Warn("failed to decode transfer request", logger.ErrorField("error", decodeErr))
		respondWithError(w, http.StatusBadRequest, &coordinator.Error{
			Kind:    coordinator.KindInvalidRequest,
			Message: decodeErr.Error(),
		})
		return
	}

	result, err := h.coordinator.Transfer(r.Context(), *req)
	if err != nil {
		h.handleTransferError(w, req, err)
		return
	}

	h.log.Info("transfer completed",
		logger.StringField("transaction_id", result.TransactionID.String()),
		logger.StringField("idempotency_key", req.IdempotencyKey),
	)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *WalletHandler) decodeTransferRequest(r *http.Request) (*coordinator.TransferRequest, error) {
	var body transferRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("invalid request payload")
	}

	from, err := uuid.Parse(body.From)
	if err != nil {
		return nil, errors.New("from must be a valid wallet id")
	}
	to, err := uuid.Parse(body.To)
	if err != nil {
		return nil, errors.New("to must be a valid wallet id")
	}
	amount, err := money.Parse(body.Amount)
	if err != nil {
		return nil, errors.New("amount must be a canonical decimal string")
	}

	return &coordinator.TransferRequest{
		IdempotencyKey: body.IdempotencyKey,
		From:           from,
		To:             to,
		Amount:         amount,
		Currency:       body.Currency,
		Description:    body.Description,
		Metadata:       body.Metadata,
	}, nil
}

// handleTransferError maps a coordinator.Error's Kind to the HTTP status
// spec.md §6 prescribes. Any other error type is a bug, not a
// business-facing failure, and is logged at Error and reported as 500.
func (h *WalletHandler) handleTransferError(w http.ResponseWriter, req *coordinator.TransferRequest, err error) {
	var cErr *coordinator.Error
	if !errors.As(err, &cErr) {
		h.log.Error("transfer failed with an unexpected error",
			logger.StringField("idempotency_key", req.IdempotencyKey),
			logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, &coordinator.Error{
			Kind:    coordinator.KindInternalError,
			Message: "internal error",
		})
		return
	}

	status := statusForKind(cErr.Kind)
	logFields := []logger.Field{
		logger.StringField("idempotency_key", req.IdempotencyKey),
		logger.StringField("kind", string(cErr.Kind)),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("transfer failed", append(logFields, logger.ErrorField("error", cErr))...)
	} else {
		h.log.Warn("transfer rejected", logFields...)
	}

	respondWithError(w, status, cErr)
}

func statusForKind(kind coordinator.Kind) int {
	switch kind {
	case coordinator.KindInvalidRequest, coordinator.KindInsufficientFunds:
		return http.StatusBadRequest
	case coordinator.KindNotFound:
		return http.StatusNotFound
	case coordinator.KindInactiveWallet:
		return http.StatusConflict
	case coordinator.KindConcurrentInProgress, coordinator.KindVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondWithError(w http.ResponseWriter, status int, cErr *coordinator.Error) {
	resp := errorResponse{Code: string(cErr.Kind), Message: cErr.Message}
	if cErr.WalletID != nil {
		id := cErr.WalletID.String()
		resp.WalletID = &id
	}
	if cErr.Available != nil {
		avail := cErr.Available.String()
		resp.Available = &avail
	}
	if cErr.Required != nil {
		req := cErr.Required.String()
		resp.Required = &req
	}
	respondWithJSON(w, status, resp)
}

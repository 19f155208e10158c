package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/potsplit/settle-engine/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrUnbalancedInput):
		appErr = ErrUnbalancedLedger
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrUnknownAlgorithm):
		appErr = ErrInvalidAlgorithm
	case errors.Is(err, domain.ErrManualPaymentsRequired):
		appErr = ErrManualPayments
	case errors.Is(err, domain.ErrSessionClosed):
		appErr = ErrSessionClosed
	case errors.Is(err, domain.ErrDuplicatePlayer):
		appErr = ErrDuplicatePlayer
	case errors.Is(err, domain.ErrUnknownPlayer):
		appErr = ErrUnknownPlayer
	case errors.Is(err, domain.ErrNoPlayers):
		appErr = ErrNoPlayers
	case errors.Is(err, domain.ErrInvalidEntryType), errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	case errors.Is(err, domain.ErrValidationFailed):
		appErr = ErrSettlementInvalid
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}

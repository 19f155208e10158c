package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrSessionMismatch  = &AppError{http.StatusForbidden, "SESSION_MISMATCH", "Token is not valid for this session"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrUnbalancedLedger  = &AppError{http.StatusUnprocessableEntity, "UNBALANCED_LEDGER", "Buy-ins and cash-outs do not balance"}
	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidAlgorithm  = &AppError{http.StatusBadRequest, "INVALID_ALGORITHM", "Unknown settlement algorithm"}
	ErrManualPayments    = &AppError{http.StatusBadRequest, "MANUAL_PAYMENTS_REQUIRED", "Manual settlement requires a payment list"}
	ErrSessionClosed     = &AppError{http.StatusUnprocessableEntity, "SESSION_CLOSED", "Session is closed"}
	ErrDuplicatePlayer   = &AppError{http.StatusConflict, "DUPLICATE_PLAYER", "Player already in session"}
	ErrUnknownPlayer     = &AppError{http.StatusUnprocessableEntity, "UNKNOWN_PLAYER", "Player is not part of this session"}
	ErrNoPlayers         = &AppError{http.StatusUnprocessableEntity, "NO_PLAYERS", "Session has no players"}
	ErrSettlementInvalid = &AppError{http.StatusUnprocessableEntity, "SETTLEMENT_INVALID", "Settlement failed validation"}
)

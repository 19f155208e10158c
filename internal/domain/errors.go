package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrUnbalancedInput        = errors.New("ledger does not balance within tolerance")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrSelfPayment            = errors.New("player cannot pay themselves")
	ErrNoPlayers              = errors.New("no players in balance snapshot")
	ErrUnknownPlayer          = errors.New("payment references a player outside the snapshot")
	ErrUnknownAlgorithm       = errors.New("unknown settlement algorithm")
	ErrManualPaymentsRequired = errors.New("manual settlement requires organizer-specified payments")
	ErrAlgorithmDivergence    = errors.New("settlement algorithms disagree beyond tolerance")
	ErrPrecisionTolerance     = errors.New("rounding drift exceeds precision tolerance")
	ErrValidationFailed       = errors.New("settlement failed validation")
	ErrSessionClosed          = errors.New("session is closed")
	ErrDuplicatePlayer        = errors.New("player already in session")
	ErrInvalidEntryType       = errors.New("entry type must be buy_in or cash_out")
	ErrInvalidRequest         = errors.New("invalid request")
)

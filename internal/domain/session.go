package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusSettled SessionStatus = "settled"
	SessionStatusClosed  SessionStatus = "closed"
)

// Session is one cash-game poker session. The session owns the ledger;
// the settlement engine only ever sees a balance snapshot derived from it.
type Session struct {
	ID        uuid.UUID
	Name      string
	Currency  string
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Player struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Name      string
	CreatedAt time.Time
}

type EntryType string

const (
	EntryTypeBuyIn   EntryType = "buy_in"
	EntryTypeCashOut EntryType = "cash_out"
)

// LedgerEntry records one buy-in or cash-out as submitted. Amount keeps
// the caller's decimal value; AmountCents is the minor-unit value the
// engine computes with. The two are reconciled by the aggregator, which
// records every rounding it performs.
type LedgerEntry struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	PlayerID    uuid.UUID
	Type        EntryType
	Amount      decimal.Decimal
	AmountCents int64
	CreatedAt   time.Time
}

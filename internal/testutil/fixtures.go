package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/potsplit/settle-engine/internal/domain"
)

func SeedSession(t *testing.T, db *sql.DB, name, currency string) *domain.Session {
	t.Helper()

	now := time.Now().UTC()
	s := &domain.Session{
		ID:        uuid.New(),
		Name:      name,
		Currency:  currency,
		Status:    domain.SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO sessions (id, name, currency, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Name, s.Currency, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed session %s: %v", name, err)
	}
	return s
}

func SeedPlayer(t *testing.T, db *sql.DB, sessionID uuid.UUID, name string) *domain.Player {
	t.Helper()

	p := &domain.Player{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO players (id, session_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, p.SessionID, p.Name, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed player %s: %v", name, err)
	}
	return p
}

func SeedEntry(t *testing.T, db *sql.DB, sessionID, playerID uuid.UUID, entryType domain.EntryType, amount string) *domain.LedgerEntry {
	t.Helper()

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %s: %v", amount, err)
	}
	e := &domain.LedgerEntry{
		ID:          uuid.New(),
		SessionID:   sessionID,
		PlayerID:    playerID,
		Type:        entryType,
		Amount:      dec,
		AmountCents: dec.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		CreatedAt:   time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO ledger_entries (id, session_id, player_id, entry_type, amount, amount_cents, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, e.PlayerID, e.Type, e.Amount, e.AmountCents, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed entry %s/%s: %v", playerID, entryType, err)
	}
	return e
}

func CountSettlements(t *testing.T, db *sql.DB, sessionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM settlements WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		t.Fatalf("count settlements for session %s: %v", sessionID, err)
	}
	return count
}

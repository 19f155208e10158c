package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

const entryColumns = `id, session_id, player_id, entry_type, amount, amount_cents, created_at`

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, session_id, player_id, entry_type, amount, amount_cents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, e.PlayerID, e.Type, e.Amount, e.AmountCents, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *EntryRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE session_id = $1 ORDER BY created_at, id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySession: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(&e.ID, &e.SessionID, &e.PlayerID, &e.Type, &e.Amount, &e.AmountCents, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListBySession: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBySession: rows: %w", err)
	}
	return entries, nil
}

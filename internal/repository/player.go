package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

type PlayerRepository struct {
	db *sql.DB
}

func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (id, session_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, p.SessionID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PlayerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, name, created_at FROM players
		 WHERE session_id = $1 ORDER BY created_at, id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySession: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListBySession: scan: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBySession: rows: %w", err)
	}
	return players, nil
}

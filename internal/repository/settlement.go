package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// SettlementRepository stores issued settlements as immutable JSONB
// documents. A new settlement supersedes the previous one; nothing is
// ever updated in place.
type SettlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Create(ctx context.Context, s *domain.OptimizedSettlement) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("Create: marshal: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settlements (id, session_id, algorithm, is_valid, document, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.SessionID, s.Algorithm, s.IsValid, doc, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SettlementRepository) GetLatestBySession(ctx context.Context, sessionID uuid.UUID) (*domain.OptimizedSettlement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT document FROM settlements
		 WHERE session_id = $1 ORDER BY seq DESC LIMIT 1`, sessionID,
	)
	var doc []byte
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetLatestBySession: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetLatestBySession: %w", err)
	}

	var s domain.OptimizedSettlement
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("GetLatestBySession: unmarshal: %w", err)
	}
	return &s, nil
}

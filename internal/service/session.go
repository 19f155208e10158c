// Package service owns the session lifecycle: players, buy-ins and
// cash-outs, and handing balance snapshots to the settlement engine.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/engine"
	"github.com/potsplit/settle-engine/internal/ledger"
	"github.com/potsplit/settle-engine/internal/logging"
)

type sessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
}

type playerRepo interface {
	Create(ctx context.Context, p *domain.Player) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Player, error)
}

type entryRepo interface {
	Create(ctx context.Context, e *domain.LedgerEntry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.LedgerEntry, error)
}

type settlementRepo interface {
	Create(ctx context.Context, s *domain.OptimizedSettlement) error
	GetLatestBySession(ctx context.Context, sessionID uuid.UUID) (*domain.OptimizedSettlement, error)
}

type Service struct {
	sessions    sessionRepo
	players     playerRepo
	entries     entryRepo
	settlements settlementRepo
	engine      *engine.Engine
	tolerance   int64
	now         func() time.Time
}

func New(sessions sessionRepo, players playerRepo, entries entryRepo, settlements settlementRepo, eng *engine.Engine, toleranceCents int64) *Service {
	return &Service{
		sessions:    sessions,
		players:     players,
		entries:     entries,
		settlements: settlements,
		engine:      eng,
		tolerance:   toleranceCents,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateSession(ctx context.Context, name, currency string) (*domain.Session, error) {
	sess := &domain.Session{
		ID:        uuid.New(),
		Name:      name,
		Currency:  currency,
		Status:    domain.SessionStatusActive,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("CreateSession: %w", err)
	}
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	return sess, nil
}

func (s *Service) AddPlayer(ctx context.Context, sessionID uuid.UUID, name string) (*domain.Player, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("AddPlayer: %w", err)
	}
	if sess.Status == domain.SessionStatusClosed {
		return nil, fmt.Errorf("AddPlayer: %w", domain.ErrSessionClosed)
	}

	existing, err := s.players.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("AddPlayer: %w", err)
	}
	for _, p := range existing {
		if p.Name == name {
			return nil, fmt.Errorf("AddPlayer: %q: %w", name, domain.ErrDuplicatePlayer)
		}
	}

	player := &domain.Player{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("AddPlayer: %w", err)
	}
	return player, nil
}

func (s *Service) RecordEntry(ctx context.Context, sessionID, playerID uuid.UUID, entryType domain.EntryType, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("RecordEntry: %w", err)
	}
	if sess.Status == domain.SessionStatusClosed {
		return nil, fmt.Errorf("RecordEntry: %w", domain.ErrSessionClosed)
	}
	if entryType != domain.EntryTypeBuyIn && entryType != domain.EntryTypeCashOut {
		return nil, fmt.Errorf("RecordEntry: %q: %w", entryType, domain.ErrInvalidEntryType)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("RecordEntry: %w", domain.ErrInvalidAmount)
	}
	if !s.isPlayer(ctx, sessionID, playerID) {
		return nil, fmt.Errorf("RecordEntry: player %s: %w", playerID, domain.ErrUnknownPlayer)
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		SessionID:   sessionID,
		PlayerID:    playerID,
		Type:        entryType,
		Amount:      amount,
		AmountCents: amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		CreatedAt:   s.now(),
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("RecordEntry: %w", err)
	}
	return entry, nil
}

// Snapshot aggregates the session's ledger into net positions.
func (s *Service) Snapshot(ctx context.Context, sessionID uuid.UUID) (*ledger.Snapshot, error) {
	players, err := s.players.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	entries, err := s.entries.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	snap, err := ledger.Aggregate(players, entries, s.tolerance)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	return snap, nil
}

// SettleOptions forwards the caller's strategy choices to the engine.
type SettleOptions struct {
	Algorithm      domain.Algorithm
	ManualPayments []domain.PaymentPlanEntry
	HubPlayerID    uuid.UUID
}

// Settle computes, stores, and returns a new settlement for the
// session. A previous settlement is superseded, never modified.
func (s *Service) Settle(ctx context.Context, sessionID uuid.UUID, opts SettleOptions) (*domain.OptimizedSettlement, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("Settle: %w", err)
	}

	settlement, err := s.engine.Optimize(ctx, engine.Request{
		SessionID:      sessionID,
		Balances:       snap.Balances,
		RoundingOps:    snap.RoundingOps,
		Algorithm:      opts.Algorithm,
		ManualPayments: opts.ManualPayments,
		HubPlayerID:    opts.HubPlayerID,
	})
	if err != nil {
		return nil, fmt.Errorf("Settle: %w", err)
	}

	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, fmt.Errorf("Settle: %w", err)
	}
	if settlement.IsValid {
		if err := s.sessions.UpdateStatus(ctx, sessionID, domain.SessionStatusSettled); err != nil {
			return nil, fmt.Errorf("Settle: %w", err)
		}
	}

	logging.FromContext(ctx).Info("settlement computed",
		"session_id", sessionID,
		"algorithm", settlement.Algorithm,
		"payments", len(settlement.Payments),
		"valid", settlement.IsValid,
	)
	return settlement, nil
}

func (s *Service) LatestSettlement(ctx context.Context, sessionID uuid.UUID) (*domain.OptimizedSettlement, error) {
	settlement, err := s.settlements.GetLatestBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("LatestSettlement: %w", err)
	}
	return settlement, nil
}

// CompareStrategies scores every automatic strategy over the current
// ledger for UIs that let the organizer pick one.
func (s *Service) CompareStrategies(ctx context.Context, sessionID uuid.UUID) (*domain.SettlementComparison, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("CompareStrategies: %w", err)
	}
	cmp, err := s.engine.Compare(ctx, snap.Balances, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("CompareStrategies: %w", err)
	}
	return cmp, nil
}

// RecheckSettlement re-validates the latest issued settlement against
// the current ledger, surfacing warnings if entries changed after the
// settlement was produced. The stored settlement is not touched.
func (s *Service) RecheckSettlement(ctx context.Context, sessionID uuid.UUID) ([]domain.ValidationWarning, error) {
	settlement, err := s.settlements.GetLatestBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("RecheckSettlement: %w", err)
	}
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("RecheckSettlement: %w", err)
	}
	return s.engine.Recheck(settlement, snap.Balances), nil
}

func (s *Service) isPlayer(ctx context.Context, sessionID, playerID uuid.UUID) bool {
	players, err := s.players.ListBySession(ctx, sessionID)
	if err != nil {
		return false
	}
	for _, p := range players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

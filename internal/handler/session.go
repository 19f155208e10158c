package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	authpkg "github.com/potsplit/settle-engine/internal/auth"
	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/ledger"
	"github.com/potsplit/settle-engine/internal/logging"
)

type sessionService interface {
	CreateSession(ctx context.Context, name, currency string) (*domain.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	AddPlayer(ctx context.Context, sessionID uuid.UUID, name string) (*domain.Player, error)
	RecordEntry(ctx context.Context, sessionID, playerID uuid.UUID, entryType domain.EntryType, amount decimal.Decimal) (*domain.LedgerEntry, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*ledger.Snapshot, error)
}

type SessionHandler struct {
	sessions  sessionService
	jwtSecret string
	tokenTTL  time.Duration
}

func NewSessionHandler(sessions sessionService, jwtSecret string, tokenTTL time.Duration) *SessionHandler {
	return &SessionHandler{sessions: sessions, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type createSessionRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (r createSessionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	return errs
}

type sessionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Currency:  s.Currency,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
}

// Create makes a session and returns the organizer token that
// authorizes all mutations to it.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	sess, err := h.sessions.CreateSession(r.Context(), req.Name, req.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	token, err := authpkg.GenerateToken(sess.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to issue organizer token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]any{
		"session":         toSessionResponse(sess),
		"organizer_token": token,
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSessionResponse(sess))
}

type addPlayerRequest struct {
	Name string `json:"name"`
}

func (h *SessionHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := authorizedSessionID(w, r)
	if !ok {
		return
	}

	var req addPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Name == "" {
		RespondValidationError(w, []FieldError{{Field: "name", Message: "required"}})
		return
	}

	player, err := h.sessions.AddPlayer(r.Context(), sessionID, req.Name)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, map[string]any{
		"id":         player.ID,
		"session_id": player.SessionID,
		"name":       player.Name,
		"created_at": player.CreatedAt,
	})
}

type recordEntryRequest struct {
	PlayerID string `json:"player_id"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
}

func (r recordEntryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PlayerID == "" {
		errs = append(errs, FieldError{Field: "player_id", Message: "required"})
	} else if _, err := uuid.Parse(r.PlayerID); err != nil {
		errs = append(errs, FieldError{Field: "player_id", Message: "must be a UUID"})
	}
	if r.Type != string(domain.EntryTypeBuyIn) && r.Type != string(domain.EntryTypeCashOut) {
		errs = append(errs, FieldError{Field: "type", Message: "must be buy_in or cash_out"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if d, err := decimal.NewFromString(r.Amount); err != nil || d.Sign() <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive decimal"})
	}
	return errs
}

func (h *SessionHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := authorizedSessionID(w, r)
	if !ok {
		return
	}

	var req recordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}
	playerID := uuid.MustParse(req.PlayerID)
	amount, _ := decimal.NewFromString(req.Amount)

	entry, err := h.sessions.RecordEntry(r.Context(), sessionID, playerID, domain.EntryType(req.Type), amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, map[string]any{
		"id":           entry.ID,
		"player_id":    entry.PlayerID,
		"type":         entry.Type,
		"amount":       entry.Amount,
		"amount_cents": entry.AmountCents,
		"created_at":   entry.CreatedAt,
	})
}

type playerBalanceResponse struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Name          string    `json:"name"`
	TotalBuyIns   int64     `json:"total_buy_ins"`
	TotalCashOuts int64     `json:"total_cash_outs"`
	NetPosition   int64     `json:"net_position"`
}

func (h *SessionHandler) Balances(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.sessions.Snapshot(r.Context(), sessionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	balances := make([]playerBalanceResponse, len(snap.Balances))
	for i, b := range snap.Balances {
		balances[i] = playerBalanceResponse{
			PlayerID:      b.PlayerID,
			Name:          b.Name,
			TotalBuyIns:   b.TotalBuyIns,
			TotalCashOuts: b.TotalCashOuts,
			NetPosition:   b.NetPosition,
		}
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"balances":  balances,
		"tolerance": snap.Tolerance,
	})
}

// pathSessionID parses the {id} path segment.
func pathSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, []FieldError{{Field: "id", Message: "must be a UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

// authorizedSessionID parses the path session and requires the bearer
// token to be scoped to that same session.
func authorizedSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return uuid.Nil, false
	}
	tokenSession, ok := authpkg.SessionIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return uuid.Nil, false
	}
	if tokenSession != sessionID {
		RespondAppError(w, ErrSessionMismatch, nil)
		return uuid.Nil, false
	}
	return sessionID, true
}

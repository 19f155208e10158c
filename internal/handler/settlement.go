package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/service"
)

type settlementService interface {
	Settle(ctx context.Context, sessionID uuid.UUID, opts service.SettleOptions) (*domain.OptimizedSettlement, error)
	LatestSettlement(ctx context.Context, sessionID uuid.UUID) (*domain.OptimizedSettlement, error)
	CompareStrategies(ctx context.Context, sessionID uuid.UUID) (*domain.SettlementComparison, error)
	RecheckSettlement(ctx context.Context, sessionID uuid.UUID) ([]domain.ValidationWarning, error)
}

type SettlementHandler struct {
	settlements settlementService
}

func NewSettlementHandler(settlements settlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

type manualPayment struct {
	FromPlayerID string `json:"from_player_id"`
	ToPlayerID   string `json:"to_player_id"`
	Amount       int64  `json:"amount"`
}

type settleRequest struct {
	Algorithm      string          `json:"algorithm"`
	HubPlayerID    string          `json:"hub_player_id"`
	ManualPayments []manualPayment `json:"manual_payments"`
}

func (r settleRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Algorithm != "" && !domain.Algorithm(r.Algorithm).IsValid() {
		errs = append(errs, FieldError{Field: "algorithm", Message: "unknown algorithm"})
	}
	if r.HubPlayerID != "" {
		if _, err := uuid.Parse(r.HubPlayerID); err != nil {
			errs = append(errs, FieldError{Field: "hub_player_id", Message: "must be a UUID"})
		}
	}
	for _, p := range r.ManualPayments {
		if _, err := uuid.Parse(p.FromPlayerID); err != nil {
			errs = append(errs, FieldError{Field: "manual_payments", Message: "from_player_id must be a UUID"})
			break
		}
		if _, err := uuid.Parse(p.ToPlayerID); err != nil {
			errs = append(errs, FieldError{Field: "manual_payments", Message: "to_player_id must be a UUID"})
			break
		}
	}
	return errs
}

// Settle computes a settlement for the session. With no body or an
// empty algorithm the engine compares all strategies and applies the
// recommended one.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := authorizedSessionID(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	opts := service.SettleOptions{Algorithm: domain.Algorithm(req.Algorithm)}
	if req.HubPlayerID != "" {
		opts.HubPlayerID = uuid.MustParse(req.HubPlayerID)
	}
	for _, p := range req.ManualPayments {
		opts.ManualPayments = append(opts.ManualPayments, domain.PaymentPlanEntry{
			FromPlayerID: uuid.MustParse(p.FromPlayerID),
			ToPlayerID:   uuid.MustParse(p.ToPlayerID),
			Amount:       p.Amount,
		})
	}

	settlement, err := h.settlements.Settle(r.Context(), sessionID, opts)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, settlement)
}

func (h *SettlementHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	settlement, err := h.settlements.LatestSettlement(r.Context(), sessionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, settlement)
}

func (h *SettlementHandler) Compare(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	cmp, err := h.settlements.CompareStrategies(r.Context(), sessionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, cmp)
}

// Recheck re-validates the latest settlement against the current
// ledger without storing anything.
func (h *SettlementHandler) Recheck(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathSessionID(w, r)
	if !ok {
		return
	}
	warnings, err := h.settlements.RecheckSettlement(r.Context(), sessionID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if warnings == nil {
		warnings = []domain.ValidationWarning{}
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"warnings": warnings})
}

// Package engine orchestrates one settlement request end to end:
// run the strategies, score them, prove the winner's arithmetic, and
// validate the result. The engine is stateless and idempotent; each
// invocation works on an immutable snapshot and produces a fresh
// settlement that supersedes any earlier one.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/metrics"
	"github.com/potsplit/settle-engine/internal/proof"
	"github.com/potsplit/settle-engine/internal/settle"
	"github.com/potsplit/settle-engine/internal/validate"
)

// Params tunes one engine instance. Zero values fall back to the
// defaults noted on each field.
type Params struct {
	// Weights for the comparator; zero value uses settle.DefaultWeights.
	Weights settle.Weights

	// ToleranceCents is the conservation tolerance band. Zero means one
	// cent per player in the snapshot.
	ToleranceCents int64

	// LargePaymentCents triggers the large-single-payment warning.
	// Zero disables the check.
	LargePaymentCents int64

	// SearchBudget bounds the minimal-transactions search in visited
	// nodes. Zero uses settle.DefaultSearchBudget.
	SearchBudget int

	// ProcessingBudget bounds one request's wall clock. When exceeded
	// mid-run the bounded search is skipped in favor of greedy rather
	// than blocking the caller. Zero means no wall-clock bound.
	ProcessingBudget time.Duration

	// Now supplies timestamps; tests inject a fixed clock.
	Now func() time.Time
}

type Engine struct {
	params Params
}

func New(params Params) *Engine {
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{params: params}
}

// Request is one settlement invocation.
type Request struct {
	SessionID uuid.UUID
	Balances  []domain.PlayerBalance

	// RoundingOps from the aggregation that produced Balances; carried
	// into the proof's precision analysis.
	RoundingOps []domain.RoundingOp

	// Algorithm forces one strategy. Empty means run all automatic
	// strategies and pick the comparator's recommendation.
	Algorithm domain.Algorithm

	// ManualPayments is required when Algorithm is manual.
	ManualPayments []domain.PaymentPlanEntry

	// HubPlayerID overrides the hub strategy's default hub choice.
	HubPlayerID uuid.UUID
}

// Optimize computes the settlement for one snapshot. Validation errors
// do not fail the call: they come back on the settlement with
// IsValid=false so the caller can show what went wrong.
func (e *Engine) Optimize(ctx context.Context, req Request) (*domain.OptimizedSettlement, error) {
	start := time.Now()
	requestedAt := e.params.Now()

	if len(req.Balances) == 0 {
		return nil, fmt.Errorf("Optimize: %w", domain.ErrNoPlayers)
	}
	if req.Algorithm != "" && !req.Algorithm.IsValid() {
		return nil, fmt.Errorf("Optimize: %q: %w", req.Algorithm, domain.ErrUnknownAlgorithm)
	}
	tolerance := e.tolerance(len(req.Balances))

	baseline, err := settle.Direct(req.Balances)
	if err != nil {
		return nil, fmt.Errorf("Optimize: baseline: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Optimize: %w", err)
	}

	chosen, algo, alternates, err := e.choosePlan(ctx, req, baseline, start)
	if err != nil {
		return nil, fmt.Errorf("Optimize: %w", err)
	}

	proofAlts := make([]proof.Alternate, 0, len(alternates))
	for _, a := range orderedAlternates(alternates, algo) {
		proofAlts = append(proofAlts, proof.Alternate{Algorithm: a, Payments: alternates[a]})
	}

	mathProof := proof.Build(proof.Input{
		Balances:    req.Balances,
		Payments:    chosen,
		Algorithm:   algo,
		Alternates:  proofAlts,
		RoundingOps: req.RoundingOps,
		Tolerance:   tolerance,
	})

	validation := validate.Settlement(validate.Input{
		Balances:          req.Balances,
		Payments:          chosen,
		Algorithm:         algo,
		Alternates:        alternates,
		Tolerance:         tolerance,
		LargePaymentCents: e.params.LargePaymentCents,
		Now:               requestedAt,
	})

	elapsed := time.Since(start)
	metrics.ObserveSettlement(string(algo), elapsed, validation.IsValid())

	return &domain.OptimizedSettlement{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		Algorithm: algo,
		Payments:  chosen,
		Metrics: domain.OptimizationMetrics{
			OriginalPaymentCount:  len(baseline),
			OptimizedPaymentCount: len(chosen),
			ProcessingTime:        elapsed,
			TotalSettled:          settle.DeliveredCredits(chosen),
		},
		Proof:     mathProof,
		Errors:    validation.Errors,
		Warnings:  validation.Warnings,
		IsValid:   validation.IsValid(),
		CreatedAt: requestedAt,
	}, nil
}

// choosePlan resolves the requested strategy, or compares all of them
// and takes the recommendation. It always returns at least one
// independent alternate plan for cross-verification.
func (e *Engine) choosePlan(ctx context.Context, req Request, baseline []domain.PaymentPlanEntry, start time.Time) ([]domain.PaymentPlanEntry, domain.Algorithm, map[domain.Algorithm][]domain.PaymentPlanEntry, error) {
	alternates := map[domain.Algorithm][]domain.PaymentPlanEntry{
		domain.AlgorithmDirect: baseline,
	}

	greedy, err := settle.Greedy(req.Balances)
	if err != nil {
		return nil, "", nil, err
	}
	alternates[domain.AlgorithmGreedy] = greedy

	switch req.Algorithm {
	case domain.AlgorithmManual:
		plan, err := settle.Manual(req.Balances, req.ManualPayments)
		if err != nil {
			return nil, "", nil, err
		}
		return plan, domain.AlgorithmManual, alternates, nil

	case domain.AlgorithmDirect:
		return baseline, domain.AlgorithmDirect, alternates, nil

	case domain.AlgorithmGreedy:
		return greedy, domain.AlgorithmGreedy, alternates, nil

	case domain.AlgorithmHub:
		plan, err := settle.Hub(req.Balances, req.HubPlayerID)
		if err != nil {
			return nil, "", nil, err
		}
		return plan, domain.AlgorithmHub, alternates, nil

	case domain.AlgorithmBalancedFlow:
		plan, err := settle.BalancedFlow(req.Balances)
		if err != nil {
			return nil, "", nil, err
		}
		return plan, domain.AlgorithmBalancedFlow, alternates, nil

	case domain.AlgorithmMinimalSearch:
		plan, err := settle.MinimalSearch(req.Balances, e.searchBudget(start))
		if err != nil {
			return nil, "", nil, err
		}
		return plan, domain.AlgorithmMinimalSearch, alternates, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, "", nil, err
	}

	cmp, err := settle.Compare(req.Balances, settle.CompareOptions{
		Weights:           e.params.Weights,
		LargePaymentCents: e.params.LargePaymentCents,
		SearchBudget:      e.searchBudget(start),
		HubPlayerID:       req.HubPlayerID,
	})
	if err != nil {
		return nil, "", nil, err
	}
	var chosen []domain.PaymentPlanEntry
	for _, alt := range cmp.Alternatives {
		alternates[alt.Algorithm] = alt.Payments
		if alt.Algorithm == cmp.Recommended {
			chosen = alt.Payments
		}
	}
	return chosen, cmp.Recommended, alternates, nil
}

// Compare runs every automatic strategy and returns the scored
// candidates for callers that let the user pick.
func (e *Engine) Compare(ctx context.Context, balances []domain.PlayerBalance, hubID uuid.UUID) (*domain.SettlementComparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Compare: %w", err)
	}
	cmp, err := settle.Compare(balances, settle.CompareOptions{
		Weights:           e.params.Weights,
		LargePaymentCents: e.params.LargePaymentCents,
		SearchBudget:      e.searchBudget(time.Now()),
		HubPlayerID:       hubID,
	})
	if err != nil {
		return nil, fmt.Errorf("Compare: %w", err)
	}
	return cmp, nil
}

// ApplyCorrection accepts an auto-correction from a validation warning:
// the named player's net position is shifted and the whole pipeline
// re-runs on the corrected snapshot. The original settlement is left
// untouched.
func (e *Engine) ApplyCorrection(ctx context.Context, req Request, c domain.AutoCorrection) (*domain.OptimizedSettlement, error) {
	adjusted := make([]domain.PlayerBalance, len(req.Balances))
	found := false
	for i, b := range req.Balances {
		if b.PlayerID == c.PlayerID {
			b.NetPosition += c.AdjustCents
			found = true
		}
		adjusted[i] = b
	}
	if !found {
		return nil, fmt.Errorf("ApplyCorrection: %s: %w", c.PlayerID, domain.ErrUnknownPlayer)
	}
	req.Balances = adjusted
	s, err := e.Optimize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ApplyCorrection: %w", err)
	}
	return s, nil
}

// Recheck re-validates an issued settlement against a fresh balance
// snapshot, for post-settlement monitoring after manual ledger edits.
// It is read-only: the issued settlement is never mutated, only new
// warnings are reported.
func (e *Engine) Recheck(s *domain.OptimizedSettlement, fresh []domain.PlayerBalance) []domain.ValidationWarning {
	validation := validate.Settlement(validate.Input{
		Balances:          fresh,
		Payments:          s.Payments,
		Algorithm:         s.Algorithm,
		Tolerance:         e.tolerance(len(fresh)),
		LargePaymentCents: e.params.LargePaymentCents,
		Now:               e.params.Now(),
	})

	warnings := validation.Warnings
	// A snapshot drift that breaks validation outright is reported as a
	// critical warning here: the issued settlement stays as it is, the
	// caller decides whether to recompute.
	for _, err := range validation.Errors {
		warnings = append(warnings, domain.ValidationWarning{
			Code:         err.Code,
			Severity:     domain.SeverityCritical,
			Message:      "ledger changed after settlement: " + err.Message,
			CanProceed:   false,
			SuggestedFix: "recompute the settlement from the current ledger",
		})
	}
	return warnings
}

func (e *Engine) tolerance(players int) int64 {
	if e.params.ToleranceCents > 0 {
		return e.params.ToleranceCents
	}
	return int64(players)
}

// searchBudget collapses the node budget once the wall-clock budget is
// spent, which makes MinimalSearch degrade to greedy instead of
// blocking.
func (e *Engine) searchBudget(start time.Time) int {
	budget := e.params.SearchBudget
	if budget <= 0 {
		budget = settle.DefaultSearchBudget
	}
	if e.params.ProcessingBudget > 0 && time.Since(start) > e.params.ProcessingBudget {
		return 1
	}
	return budget
}

// orderedAlternates lists the cross-check plans in enumeration order,
// excluding the chosen algorithm itself.
func orderedAlternates(alternates map[domain.Algorithm][]domain.PaymentPlanEntry, chosen domain.Algorithm) []domain.Algorithm {
	var out []domain.Algorithm
	for _, a := range domain.Algorithms() {
		if a == chosen {
			continue
		}
		if _, ok := alternates[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

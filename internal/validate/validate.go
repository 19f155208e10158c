// Package validate runs the structural and business checks that decide
// whether a settlement may be presented as final.
//
// Every check appends exactly one audit trail entry in execution order,
// so the trail reads as the sequence of decisions that produced the
// verdict. Errors block the settlement; warnings attach to a still
// valid result as data for the caller to act on.
package validate

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/settle"
)

// Error and warning codes surfaced to callers.
const (
	CodeNonPositiveAmount = "NON_POSITIVE_AMOUNT"
	CodeSelfPayment       = "SELF_PAYMENT"
	CodeUnknownPlayer     = "UNKNOWN_PLAYER"
	CodeDuplicatePair     = "DUPLICATE_PAYMENT_PAIR"
	CodeConservation      = "CONSERVATION_VIOLATION"
	CodePlayerMismatch    = "PLAYER_POSITION_MISMATCH"
	CodeCrossCheck        = "ALGORITHM_DIVERGENCE"
	CodeNearTolerance     = "NEAR_TOLERANCE"
	CodeLargePayment      = "LARGE_SINGLE_PAYMENT"
	CodeSinglePlayer      = "SINGLE_ACTIVE_PLAYER"
	CodeEmptyPlan         = "EMPTY_PLAN"
)

// Input carries one settlement through validation.
type Input struct {
	Balances  []domain.PlayerBalance
	Payments  []domain.PaymentPlanEntry
	Algorithm domain.Algorithm

	// Alternates are independent plans for the same snapshot; at least
	// one is required for the cross-verification check to run.
	Alternates map[domain.Algorithm][]domain.PaymentPlanEntry

	Tolerance         int64
	LargePaymentCents int64

	// Now stamps audit entries. The engine passes one captured request
	// time so identical inputs produce identical trails.
	Now time.Time
}

// Settlement runs every check in a fixed order and returns the full
// validation result. It never returns early: a malformed payment does
// not hide a conservation problem further down the list.
func Settlement(in Input) *domain.SettlementValidation {
	v := &domain.SettlementValidation{}
	r := &runner{v: v, now: in.Now}
	if r.now.IsZero() {
		r.now = time.Now().UTC()
	}

	checkStructural(r, in)
	checkConservation(r, in)
	checkPlayerPositions(r, in)
	checkCrossAlgorithms(r, in)
	checkAdvisories(r, in)
	return v
}

type runner struct {
	v    *domain.SettlementValidation
	now  time.Time
	step int
}

func (r *runner) audit(operation, input, output string, ok bool) {
	r.step++
	r.v.AuditTrail = append(r.v.AuditTrail, domain.AuditTrailEntry{
		Step:      r.step,
		Operation: operation,
		Input:     input,
		Output:    output,
		Check:     ok,
		Timestamp: r.now,
	})
}

func (r *runner) fail(code string, severity domain.Severity, message string) {
	r.v.Errors = append(r.v.Errors, domain.ValidationError{
		Code:     code,
		Severity: severity,
		Message:  message,
	})
}

func (r *runner) warn(w domain.ValidationWarning) {
	r.v.Warnings = append(r.v.Warnings, w)
}

func checkStructural(r *runner, in Input) {
	known := make(map[uuid.UUID]bool, len(in.Balances))
	for _, b := range in.Balances {
		known[b.PlayerID] = true
	}

	ok := true
	for i, p := range in.Payments {
		if p.Amount <= 0 {
			ok = false
			r.fail(CodeNonPositiveAmount, domain.SeverityCritical,
				fmt.Sprintf("payment %d has amount %d; amounts must be positive", i+1, p.Amount))
		}
		if p.FromPlayerID == p.ToPlayerID {
			ok = false
			r.fail(CodeSelfPayment, domain.SeverityCritical,
				fmt.Sprintf("payment %d pays player %s to themselves", i+1, p.FromPlayerID))
		}
		if !known[p.FromPlayerID] || !known[p.ToPlayerID] {
			ok = false
			r.fail(CodeUnknownPlayer, domain.SeverityCritical,
				fmt.Sprintf("payment %d references a player outside the snapshot", i+1))
		}
	}
	r.audit("structural_payments",
		fmt.Sprintf("%d payments", len(in.Payments)),
		fmt.Sprintf("%d errors", len(r.v.Errors)), ok)

	type pair struct{ from, to uuid.UUID }
	seen := make(map[pair]int)
	duplicates := 0
	for _, p := range in.Payments {
		seen[pair{p.FromPlayerID, p.ToPlayerID}]++
	}
	for _, n := range seen {
		if n > 1 {
			duplicates++
		}
	}
	if duplicates > 0 {
		r.warn(domain.ValidationWarning{
			Code:         CodeDuplicatePair,
			Severity:     domain.SeverityMinor,
			Message:      fmt.Sprintf("%d payer/payee pairs appear more than once; consider consolidating", duplicates),
			CanProceed:   true,
			SuggestedFix: "merge repeated payments between the same two players into one",
		})
	}
	r.audit("duplicate_pairs",
		fmt.Sprintf("%d distinct pairs", len(seen)),
		fmt.Sprintf("%d duplicated", duplicates), duplicates == 0)
}

// checkConservation compares what the plan delivers to creditors, net
// of passthrough flows, against what they are owed. Hub plans move more
// gross money than the credits settled, so gross totals are not the
// measure here.
func checkConservation(r *runner, in Input) {
	credits := settle.TotalCredits(in.Balances)
	delivered := settle.DeliveredCredits(in.Payments)
	diff := delivered - credits

	ok := within(diff, in.Tolerance)
	if !ok {
		r.fail(CodeConservation, domain.SeverityCritical,
			fmt.Sprintf("plan delivers %d cents to creditors but they are owed %d cents", delivered, credits))
	}
	r.audit("conservation",
		fmt.Sprintf("delivered=%d owed=%d tolerance=%d", delivered, credits, in.Tolerance),
		fmt.Sprintf("difference=%d", diff), ok)

	if len(in.Payments) == 0 && credits > in.Tolerance {
		r.fail(CodeEmptyPlan, domain.SeverityCritical,
			fmt.Sprintf("plan is empty but %d cents are owed", credits))
		r.audit("empty_plan", fmt.Sprintf("owed=%d", credits), "no payments", false)
	}
}

func checkPlayerPositions(r *runner, in Input) {
	effect := settle.NetEffect(in.Payments)
	mismatches := 0
	for _, b := range in.Balances {
		residual := effect[b.PlayerID] - b.NetPosition
		if within(residual, in.Tolerance) {
			if residual != 0 {
				r.warn(nearToleranceWarning(b, residual))
			}
			continue
		}
		mismatches++
		r.fail(CodePlayerMismatch, domain.SeverityCritical,
			fmt.Sprintf("player %s ends %d cents away from their net position", b.Name, residual))
	}
	r.audit("player_positions",
		fmt.Sprintf("%d players", len(in.Balances)),
		fmt.Sprintf("%d mismatches", mismatches), mismatches == 0)
}

// nearToleranceWarning reports a residual inside the tolerance band and
// offers the correction that would zero it out.
func nearToleranceWarning(b domain.PlayerBalance, residual int64) domain.ValidationWarning {
	severity := domain.SeverityMinor
	if residual > 1 || residual < -1 {
		severity = domain.SeverityMajor
	}
	return domain.ValidationWarning{
		Code:     CodeNearTolerance,
		Severity: severity,
		Message: fmt.Sprintf("player %s is %d cents off their exact position, within tolerance",
			b.Name, residual),
		CanProceed:   true,
		SuggestedFix: fmt.Sprintf("adjust %s's recorded position by %d cents and recompute", b.Name, residual),
		Correction: &domain.AutoCorrection{
			PlayerID:    b.PlayerID,
			AdjustCents: residual,
			Description: fmt.Sprintf("shift %s's net position by %d cents", b.Name, residual),
		},
	}
}

// checkCrossAlgorithms verifies the chosen plan's totals against every
// independent plan supplied. A divergence beyond tolerance is an engine
// defect, not a data problem, so it is always an error and never
// silently dropped.
func checkCrossAlgorithms(r *runner, in Input) {
	delivered := settle.DeliveredCredits(in.Payments)

	algos := make([]domain.Algorithm, 0, len(in.Alternates))
	for algo := range in.Alternates {
		if algo != in.Algorithm {
			algos = append(algos, algo)
		}
	}
	sort.Slice(algos, func(i, j int) bool { return algos[i] < algos[j] })

	for _, algo := range algos {
		altDelivered := settle.DeliveredCredits(in.Alternates[algo])
		diff := altDelivered - delivered
		ok := within(diff, in.Tolerance)
		if !ok {
			r.fail(CodeCrossCheck, domain.SeverityCritical,
				fmt.Sprintf("%s settles %d cents but %s settles %d cents: %v",
					in.Algorithm, delivered, algo, altDelivered, domain.ErrAlgorithmDivergence))
		}
		r.audit("cross_check:"+string(algo),
			fmt.Sprintf("chosen=%d alternate=%d", delivered, altDelivered),
			fmt.Sprintf("difference=%d", diff), ok)
	}
	if len(algos) == 0 {
		r.audit("cross_check", "no alternate plans supplied", "skipped", true)
	}
}

func checkAdvisories(r *runner, in Input) {
	active := 0
	for _, b := range in.Balances {
		if b.NetPosition != 0 {
			active++
		}
	}
	if active <= 1 {
		r.warn(domain.ValidationWarning{
			Code:         CodeSinglePlayer,
			Severity:     domain.SeverityMinor,
			Message:      "at most one player has a non-zero position; nothing to settle",
			CanProceed:   true,
			SuggestedFix: "verify that buy-ins and cash-outs were recorded for every player",
		})
	}
	r.audit("active_players",
		fmt.Sprintf("%d players", len(in.Balances)),
		fmt.Sprintf("%d active", active), active != 1)

	large := 0
	if in.LargePaymentCents > 0 {
		for i, p := range in.Payments {
			if p.Amount > in.LargePaymentCents {
				large++
				r.warn(domain.ValidationWarning{
					Code:     CodeLargePayment,
					Severity: domain.SeverityMajor,
					Message: fmt.Sprintf("payment %d moves %d cents in a single transfer (threshold %d)",
						i+1, p.Amount, in.LargePaymentCents),
					CanProceed:   true,
					SuggestedFix: "use the balanced flow strategy to split large transfers",
				})
			}
		}
	}
	r.audit("large_payments",
		fmt.Sprintf("threshold=%d", in.LargePaymentCents),
		fmt.Sprintf("%d above threshold", large), large == 0)
}

func within(v, tolerance int64) bool {
	return v >= -tolerance && v <= tolerance
}

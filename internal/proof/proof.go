// Package proof recomputes and narrates a settlement's arithmetic.
//
// The generator never trusts the numbers it was handed: every step's
// result is re-derived independently and the Verified flag records
// whether the two computations agree within tolerance. The finished
// proof is also rendered as plain text and JSON for the sharing layer.
package proof

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/settle"
)

// Input is everything the generator needs for one settlement.
type Input struct {
	Balances    []domain.PlayerBalance
	Payments    []domain.PaymentPlanEntry
	Algorithm   domain.Algorithm
	Alternates  []Alternate
	RoundingOps []domain.RoundingOp
	Tolerance   int64
}

// Alternate is an independent algorithm's plan for the same snapshot,
// used for cross-verification.
type Alternate struct {
	Algorithm domain.Algorithm
	Payments  []domain.PaymentPlanEntry
}

// Build produces the full mathematical proof for a settlement.
func Build(in Input) *domain.MathematicalProof {
	p := &domain.MathematicalProof{}

	totalCredits := settle.TotalCredits(in.Balances)
	grossPaid := settle.TotalPaid(in.Payments)
	delivered := settle.DeliveredCredits(in.Payments)

	var netBalance int64
	creditInputs := make([]int64, 0, len(in.Balances))
	for _, b := range in.Balances {
		netBalance += b.NetPosition
		if b.NetPosition > 0 {
			creditInputs = append(creditInputs, b.NetPosition)
		}
	}

	// Independent recomputation of credits from the raw buy-in and
	// cash-out totals rather than the net positions.
	var creditsCheck int64
	for _, b := range in.Balances {
		if diff := b.TotalCashOuts - b.TotalBuyIns; diff > 0 {
			creditsCheck += diff
		}
	}

	p.Steps = append(p.Steps, domain.CalculationStep{
		Operation: "total_credits",
		Inputs:    creditInputs,
		Formula:   "sum of positive net positions",
		Result:    totalCredits,
		Tolerance: in.Tolerance,
		Verified:  within(totalCredits-creditsCheck, in.Tolerance),
	})

	debitInputs := make([]int64, 0, len(in.Payments))
	var debitsCheck int64
	for _, pay := range in.Payments {
		debitInputs = append(debitInputs, pay.Amount)
		debitsCheck += pay.Amount
	}
	p.Steps = append(p.Steps, domain.CalculationStep{
		Operation: "total_debits",
		Inputs:    debitInputs,
		Formula:   "sum of payment amounts",
		Result:    grossPaid,
		Tolerance: in.Tolerance,
		Verified:  grossPaid == debitsCheck,
	})

	// Delivered credits net out passthrough flows, so a hub routing
	// more gross money than the table's credits still balances.
	diff := delivered - totalCredits
	p.Steps = append(p.Steps, domain.CalculationStep{
		Operation: "balance_difference",
		Inputs:    []int64{delivered, totalCredits},
		Formula:   "credits delivered - credits owed",
		Result:    diff,
		Tolerance: in.Tolerance,
		Verified:  within(diff, in.Tolerance),
	})

	effect := settle.NetEffect(in.Payments)
	for _, b := range in.Balances {
		got := effect[b.PlayerID]
		p.Steps = append(p.Steps, domain.CalculationStep{
			Operation: fmt.Sprintf("player_net_effect:%s", b.Name),
			Inputs:    []int64{got, b.NetPosition},
			Formula:   "received - paid = net position",
			Result:    got - b.NetPosition,
			Tolerance: in.Tolerance,
			Verified:  within(got-b.NetPosition, in.Tolerance),
		})
	}

	p.Verification = domain.BalanceVerification{
		TotalDebits:  delivered,
		TotalCredits: totalCredits,
		NetBalance:   netBalance,
		IsBalanced:   within(diff, in.Tolerance) && within(netBalance, in.Tolerance),
	}

	p.Precision = domain.PrecisionAnalysis{
		RoundingOps: in.RoundingOps,
		Adjustments: centAdjustments(in.Balances, effect),
	}

	for _, alt := range in.Alternates {
		altDelivered := settle.DeliveredCredits(alt.Payments)
		p.Alternatives = append(p.Alternatives, domain.AlternativeResult{
			Algorithm:    alt.Algorithm,
			PaymentCount: len(alt.Payments),
			TotalAmount:  altDelivered,
			Matches:      within(altDelivered-delivered, in.Tolerance),
		})
	}

	p.Exports = domain.ExportFormats{
		Text: renderText(in, p),
		JSON: renderJSON(p),
	}
	return p
}

// centAdjustments flags every player whose plan position differs from
// their net by a residual cent. The plan leaves positive remainders
// with the largest creditor and negative ones with the largest debtor,
// so the leftover stays invisible at display precision.
func centAdjustments(balances []domain.PlayerBalance, effect map[uuid.UUID]int64) []domain.CentAdjustment {
	var adjustments []domain.CentAdjustment
	largestCreditor, largestDebtor := extremes(balances)
	for _, b := range balances {
		residual := effect[b.PlayerID] - b.NetPosition
		if residual == 0 {
			continue
		}
		reason := "residual cents from minor-unit rounding"
		switch {
		case residual > 0 && b.PlayerID == largestCreditor:
			reason = "largest creditor absorbs positive remainder"
		case residual < 0 && b.PlayerID == largestDebtor:
			reason = "largest debtor absorbs negative remainder"
		}
		adjustments = append(adjustments, domain.CentAdjustment{
			PlayerID: b.PlayerID,
			Amount:   residual,
			Reason:   reason,
		})
	}
	return adjustments
}

func extremes(balances []domain.PlayerBalance) (creditor, debtor uuid.UUID) {
	var maxCredit, maxDebt int64
	for _, b := range balances {
		switch {
		case b.NetPosition > maxCredit:
			maxCredit = b.NetPosition
			creditor = b.PlayerID
		case b.NetPosition < 0 && -b.NetPosition > maxDebt:
			maxDebt = -b.NetPosition
			debtor = b.PlayerID
		}
	}
	return creditor, debtor
}

func within(v, tolerance int64) bool {
	return v >= -tolerance && v <= tolerance
}

func renderText(in Input, p *domain.MathematicalProof) string {
	names := make(map[uuid.UUID]string, len(in.Balances))
	for _, b := range in.Balances {
		names[b.PlayerID] = b.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Settlement proof (%s)\n", in.Algorithm)
	fmt.Fprintf(&sb, "Total owed to creditors: %s\n", cents(p.Verification.TotalCredits))
	fmt.Fprintf(&sb, "Total paid by debtors:   %s\n", cents(p.Verification.TotalDebits))
	if p.Verification.IsBalanced {
		sb.WriteString("Money is conserved: every cent paid reaches a creditor.\n")
	} else {
		fmt.Fprintf(&sb, "WARNING: totals differ by %s.\n",
			cents(p.Verification.TotalDebits-p.Verification.TotalCredits))
	}
	sb.WriteString("\nPayments:\n")
	for _, pay := range in.Payments {
		fmt.Fprintf(&sb, "  %d. %s pays %s %s\n",
			pay.Priority, names[pay.FromPlayerID], names[pay.ToPlayerID], cents(pay.Amount))
	}
	if len(p.Precision.Adjustments) > 0 {
		sb.WriteString("\nRounding adjustments:\n")
		for _, adj := range p.Precision.Adjustments {
			fmt.Fprintf(&sb, "  %s: %s (%s)\n", names[adj.PlayerID], cents(adj.Amount), adj.Reason)
		}
	}
	if len(p.Alternatives) > 0 {
		sb.WriteString("\nCross-checks:\n")
		for _, alt := range p.Alternatives {
			status := "matches"
			if !alt.Matches {
				status = "DIVERGES"
			}
			fmt.Fprintf(&sb, "  %s: %d payments, %s total (%s)\n",
				alt.Algorithm, alt.PaymentCount, cents(alt.TotalAmount), status)
		}
	}
	return sb.String()
}

func renderJSON(p *domain.MathematicalProof) string {
	doc := struct {
		Verification domain.BalanceVerification `json:"verification"`
		Steps        []domain.CalculationStep   `json:"steps"`
		Precision    domain.PrecisionAnalysis   `json:"precision"`
		Alternatives []domain.AlternativeResult `json:"alternatives"`
	}{p.Verification, p.Steps, p.Precision, p.Alternatives}

	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func cents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

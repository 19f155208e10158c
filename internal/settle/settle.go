// Package settle implements the settlement strategies: pure functions
// from a balance snapshot to a payment plan.
//
// Every strategy preserves money exactly: the sum paid by debtors
// equals the sum received by creditors equals the sum of positive net
// positions. Strategies are deterministic for a given input order, with
// ties between equal-magnitude players broken by ascending player ID,
// so repeated runs produce identical plans.
package settle

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// Func is one settlement strategy.
type Func func(balances []domain.PlayerBalance) ([]domain.PaymentPlanEntry, error)

// Run dispatches to the named automatic strategy. Manual settlements do
// not go through Run; they carry their own payments (see Manual).
func Run(algo domain.Algorithm, balances []domain.PlayerBalance) ([]domain.PaymentPlanEntry, error) {
	switch algo {
	case domain.AlgorithmDirect:
		return Direct(balances)
	case domain.AlgorithmGreedy:
		return Greedy(balances)
	case domain.AlgorithmHub:
		return Hub(balances, uuid.Nil)
	case domain.AlgorithmBalancedFlow:
		return BalancedFlow(balances)
	case domain.AlgorithmMinimalSearch:
		return MinimalSearch(balances, DefaultSearchBudget)
	default:
		return nil, fmt.Errorf("Run: %q: %w", algo, domain.ErrUnknownAlgorithm)
	}
}

// party is one side of the matching: a debtor or creditor with the
// positive magnitude still outstanding.
type party struct {
	id     uuid.UUID
	amount int64
}

// split partitions a snapshot into debtors and creditors, each sorted
// by descending magnitude with ascending player ID as the tie-break.
// Players already at zero are dropped.
func split(balances []domain.PlayerBalance) (debtors, creditors []party) {
	for _, b := range balances {
		switch {
		case b.NetPosition < 0:
			debtors = append(debtors, party{id: b.PlayerID, amount: -b.NetPosition})
		case b.NetPosition > 0:
			creditors = append(creditors, party{id: b.PlayerID, amount: b.NetPosition})
		}
	}
	byMagnitude(debtors)
	byMagnitude(creditors)
	return debtors, creditors
}

func byMagnitude(ps []party) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].amount != ps[j].amount {
			return ps[i].amount > ps[j].amount
		}
		return ps[i].id.String() < ps[j].id.String()
	})
}

// TotalCredits sums the positive net positions: the amount of money the
// plan must move.
func TotalCredits(balances []domain.PlayerBalance) int64 {
	var total int64
	for _, b := range balances {
		if b.NetPosition > 0 {
			total += b.NetPosition
		}
	}
	return total
}

// TotalPaid sums a plan's payment amounts: the gross volume moved,
// which for hub plans exceeds the credits settled.
func TotalPaid(payments []domain.PaymentPlanEntry) int64 {
	var total int64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// DeliveredCredits sums the positive per-player net effects: the money
// that actually reaches creditors once passthrough flows cancel out.
// For a conserving plan this equals TotalCredits of the snapshot.
func DeliveredCredits(payments []domain.PaymentPlanEntry) int64 {
	var total int64
	for _, v := range NetEffect(payments) {
		if v > 0 {
			total += v
		}
	}
	return total
}

// NetEffect returns each player's received-minus-paid under the plan.
// For a conserving plan this equals every player's net position.
func NetEffect(payments []domain.PaymentPlanEntry) map[uuid.UUID]int64 {
	effect := make(map[uuid.UUID]int64)
	for _, p := range payments {
		effect[p.FromPlayerID] -= p.Amount
		effect[p.ToPlayerID] += p.Amount
	}
	return effect
}

func prioritize(payments []domain.PaymentPlanEntry) []domain.PaymentPlanEntry {
	for i := range payments {
		payments[i].Priority = i + 1
	}
	return payments
}

package settle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// Direct is the unconsolidated baseline: every debtor pays every
// creditor a share of their debt proportional to the creditor's credit.
// It produces up to debtors*creditors payments and exists as the
// "before" picture the optimized strategies are measured against.
//
// Shares are allocated with a cumulative integer method so each debtor
// pays out their debt exactly; a reconciliation pass then shifts the
// leftover cents between payments so each creditor also receives their
// credit exactly.
func Direct(balances []domain.PlayerBalance) ([]domain.PaymentPlanEntry, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("Direct: %w", domain.ErrNoPlayers)
	}

	debtors, creditors := split(balances)
	if len(debtors) == 0 || len(creditors) == 0 {
		return []domain.PaymentPlanEntry{}, nil
	}

	var totalCredit int64
	for _, c := range creditors {
		totalCredit += c.amount
	}

	type cell struct {
		from, to uuid.UUID
		amount   int64
	}
	var cells []cell
	index := make(map[uuid.UUID]map[uuid.UUID]int)
	received := make(map[uuid.UUID]int64, len(creditors))

	add := func(from, to uuid.UUID, amount int64) {
		if index[from] == nil {
			index[from] = make(map[uuid.UUID]int)
		}
		if i, ok := index[from][to]; ok {
			cells[i].amount += amount
		} else {
			index[from][to] = len(cells)
			cells = append(cells, cell{from: from, to: to, amount: amount})
		}
		received[to] += amount
	}

	for _, d := range debtors {
		var cum, prev int64
		for _, c := range creditors {
			cum += c.amount
			target := d.amount * cum / totalCredit
			if pay := target - prev; pay > 0 {
				add(d.id, c.id, pay)
			}
			prev = target
		}
	}

	// Cumulative floor division settles each debtor exactly but can
	// leave creditors a few cents off target. Shift those cents between
	// existing payments; debtor totals are untouched.
	var over, under []party
	for _, c := range creditors {
		switch delta := received[c.id] - c.amount; {
		case delta > 0:
			over = append(over, party{id: c.id, amount: delta})
		case delta < 0:
			under = append(under, party{id: c.id, amount: -delta})
		}
	}
	for len(over) > 0 && len(under) > 0 {
		o, u := &over[0], &under[0]
		shifted := false
		for i := range cells {
			if cells[i].to != o.id || cells[i].amount == 0 {
				continue
			}
			s := min(o.amount, u.amount, cells[i].amount)
			cells[i].amount -= s
			add(cells[i].from, u.id, s)
			received[o.id] -= s
			o.amount -= s
			u.amount -= s
			shifted = true
			break
		}
		if !shifted {
			break
		}
		if o.amount == 0 {
			over = over[1:]
		}
		if u.amount == 0 {
			under = under[1:]
		}
	}

	payments := make([]domain.PaymentPlanEntry, 0, len(cells))
	for _, c := range cells {
		if c.amount > 0 {
			payments = append(payments, domain.PaymentPlanEntry{
				FromPlayerID: c.from,
				ToPlayerID:   c.to,
				Amount:       c.amount,
			})
		}
	}
	return prioritize(payments), nil
}

package settle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// BalancedFlow spreads each debt across several creditors in capped
// chunks so no single transfer dwarfs the rest. It trades payment count
// for evenness: nobody hands over one intimidating pile of cash.
//
// The chunk cap is the total volume divided by the wider side of the
// match, which approximates an even share per payment. Chunks from the
// same debtor to the same creditor are merged back into one payment;
// the spreading only matters across distinct recipients.
func BalancedFlow(balances []domain.PlayerBalance) ([]domain.PaymentPlanEntry, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("BalancedFlow: %w", domain.ErrNoPlayers)
	}

	debtors, creditors := split(balances)
	if len(debtors) == 0 || len(creditors) == 0 {
		return []domain.PaymentPlanEntry{}, nil
	}

	var totalCredit int64
	for _, c := range creditors {
		totalCredit += c.amount
	}
	width := int64(max(len(debtors), len(creditors)))
	chunkCap := (totalCredit + width - 1) / width
	if chunkCap < 1 {
		chunkCap = 1
	}

	type key struct{ from, to uuid.UUID }
	amounts := make(map[key]int64)
	var order []key
	outstanding := totalCredit

	cursor := 0
	for _, d := range debtors {
		remaining := d.amount
		for remaining > 0 && outstanding > 0 {
			c := &creditors[cursor%len(creditors)]
			cursor++
			if c.amount == 0 {
				continue
			}
			s := min(remaining, c.amount, chunkCap)
			k := key{from: d.id, to: c.id}
			if _, seen := amounts[k]; !seen {
				order = append(order, k)
			}
			amounts[k] += s
			remaining -= s
			c.amount -= s
			outstanding -= s
		}
	}

	payments := make([]domain.PaymentPlanEntry, 0, len(order))
	for _, k := range order {
		payments = append(payments, domain.PaymentPlanEntry{
			FromPlayerID: k.from,
			ToPlayerID:   k.to,
			Amount:       amounts[k],
		})
	}
	return prioritize(payments), nil
}

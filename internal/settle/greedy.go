package settle

import (
	"container/heap"
	"fmt"

	"github.com/potsplit/settle-engine/internal/domain"
)

// partyHeap orders parties by descending outstanding amount, with
// ascending player ID breaking ties so the pop order never depends on
// insertion order.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }
func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].id.String() < h[j].id.String()
}
func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *partyHeap) Push(x any)   { *h = append(*h, x.(party)) }
func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// Greedy repeatedly matches the largest outstanding debtor against the
// largest outstanding creditor, transferring min(debt, credit). Each
// step fully settles at least one of the two, so a plan for n players
// never exceeds n-1 payments. O(n log n).
func Greedy(balances []domain.PlayerBalance) ([]domain.PaymentPlanEntry, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("Greedy: %w", domain.ErrNoPlayers)
	}

	ds, cs := split(balances)
	debtors := partyHeap(ds)
	creditors := partyHeap(cs)
	heap.Init(&debtors)
	heap.Init(&creditors)

	var payments []domain.PaymentPlanEntry
	for debtors.Len() > 0 && creditors.Len() > 0 {
		d := heap.Pop(&debtors).(party)
		c := heap.Pop(&creditors).(party)

		amount := min(d.amount, c.amount)
		payments = append(payments, domain.PaymentPlanEntry{
			FromPlayerID: d.id,
			ToPlayerID:   c.id,
			Amount:       amount,
		})

		if d.amount > amount {
			heap.Push(&debtors, party{id: d.id, amount: d.amount - amount})
		}
		if c.amount > amount {
			heap.Push(&creditors, party{id: c.id, amount: c.amount - amount})
		}
	}

	return prioritize(payments), nil
}

package settle

import (
	"fmt"
	"sort"

	"github.com/potsplit/settle-engine/internal/domain"
)

// DefaultSearchBudget bounds the branch-and-bound search by node count
// rather than wall clock so the result is reproducible.
const DefaultSearchBudget = 200_000

// maxSearchPlayers caps the search to realistic poker table sizes.
// Beyond this the state space is not worth exploring and greedy's n-1
// bound is already good.
const maxSearchPlayers = 14

// MinimalSearch looks for a plan with provably fewer payments than
// greedy by branch-and-bound over debtor/creditor pairings: settling a
// player into a counterparty, recursing, and pruning any branch that
// cannot beat the best plan found so far. If the node budget runs out,
// or no strictly better plan exists, the greedy plan is returned.
func MinimalSearch(balances []domain.PlayerBalance, budget int) ([]domain.PaymentPlanEntry, error) {
	fallback, err := Greedy(balances)
	if err != nil {
		return nil, fmt.Errorf("MinimalSearch: %w", err)
	}
	if budget <= 0 {
		budget = DefaultSearchBudget
	}

	type slot struct {
		idx int
		net int64
	}
	active := make([]slot, 0, len(balances))
	for i, b := range balances {
		if b.NetPosition != 0 {
			active = append(active, slot{idx: i, net: b.NetPosition})
		}
	}
	if len(active) < 3 || len(active) > maxSearchPlayers {
		return fallback, nil
	}
	// Ascending player ID fixes the branch exploration order.
	sort.Slice(active, func(i, j int) bool {
		return balances[active[i].idx].PlayerID.String() < balances[active[j].idx].PlayerID.String()
	})
	nets := make([]int64, len(active))
	for i, s := range active {
		nets[i] = s.net
	}

	best := len(fallback)
	var bestPlan []domain.PaymentPlanEntry
	var current []domain.PaymentPlanEntry
	nodes := 0
	exceeded := false

	var dfs func(start, count int)
	dfs = func(start, count int) {
		if exceeded {
			return
		}
		nodes++
		if nodes > budget {
			exceeded = true
			return
		}
		for start < len(nets) && nets[start] == 0 {
			start++
		}
		if start == len(nets) {
			if count < best {
				best = count
				bestPlan = append([]domain.PaymentPlanEntry(nil), current...)
			}
			return
		}

		remaining := 0
		for i := start; i < len(nets); i++ {
			if nets[i] != 0 {
				remaining++
			}
		}
		// Each payment zeroes at most two outstanding positions.
		if count+(remaining+1)/2 >= best {
			return
		}

		tried := make(map[int64]bool)
		for j := start + 1; j < len(nets); j++ {
			if nets[j] == 0 || (nets[j] > 0) == (nets[start] > 0) {
				continue
			}
			if tried[nets[j]] {
				continue
			}
			tried[nets[j]] = true

			p := domain.PaymentPlanEntry{Amount: abs(nets[start])}
			if nets[start] < 0 {
				p.FromPlayerID = balances[active[start].idx].PlayerID
				p.ToPlayerID = balances[active[j].idx].PlayerID
			} else {
				p.FromPlayerID = balances[active[j].idx].PlayerID
				p.ToPlayerID = balances[active[start].idx].PlayerID
			}

			saved := nets[j]
			nets[j] += nets[start]
			movedFrom := nets[start]
			nets[start] = 0
			current = append(current, p)

			dfs(start+1, count+1)

			current = current[:len(current)-1]
			nets[start] = movedFrom
			nets[j] = saved
		}
	}
	dfs(0, 0)

	if exceeded || bestPlan == nil {
		return fallback, nil
	}
	return prioritize(bestPlan), nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

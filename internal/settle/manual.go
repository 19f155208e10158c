package settle

import (
	"fmt"

	"github.com/potsplit/settle-engine/internal/domain"
)

// Manual accepts organizer-specified payments as-is. No optimization is
// applied; the plan still goes through the validator like any other, so
// a hand-written plan that loses money is caught, not trusted.
func Manual(balances []domain.PlayerBalance, payments []domain.PaymentPlanEntry) ([]domain.PaymentPlanEntry, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("Manual: %w", domain.ErrNoPlayers)
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("Manual: %w", domain.ErrManualPaymentsRequired)
	}

	known := make(map[string]bool, len(balances))
	for _, b := range balances {
		known[b.PlayerID.String()] = true
	}
	out := make([]domain.PaymentPlanEntry, len(payments))
	for i, p := range payments {
		if !known[p.FromPlayerID.String()] || !known[p.ToPlayerID.String()] {
			return nil, fmt.Errorf("Manual: payment %d: %w", i+1, domain.ErrUnknownPlayer)
		}
		out[i] = p
	}
	return prioritize(out), nil
}

package settle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// Hub routes every payment through one hub player: each debtor pays the
// hub their full debt, then the hub pays each remaining creditor their
// credit. More payments than greedy, but everyone only ever deals with
// one person.
//
// hubID selects the hub; pass uuid.Nil to use the largest creditor
// (ties broken by ascending player ID). If the session has no creditors
// the largest debtor takes the role so the plan is still well-formed.
func Hub(balances []domain.PlayerBalance, hubID uuid.UUID) ([]domain.PaymentPlanEntry, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("Hub: %w", domain.ErrNoPlayers)
	}

	debtors, creditors := split(balances)
	if len(debtors) == 0 && len(creditors) == 0 {
		return []domain.PaymentPlanEntry{}, nil
	}

	if hubID == uuid.Nil {
		if len(creditors) > 0 {
			hubID = creditors[0].id
		} else {
			hubID = debtors[0].id
		}
	} else if !inSnapshot(balances, hubID) {
		return nil, fmt.Errorf("Hub: hub %s: %w", hubID, domain.ErrUnknownPlayer)
	}

	var payments []domain.PaymentPlanEntry
	for _, d := range debtors {
		if d.id == hubID {
			continue
		}
		payments = append(payments, domain.PaymentPlanEntry{
			FromPlayerID: d.id,
			ToPlayerID:   hubID,
			Amount:       d.amount,
		})
	}
	for _, c := range creditors {
		if c.id == hubID {
			continue
		}
		payments = append(payments, domain.PaymentPlanEntry{
			FromPlayerID: hubID,
			ToPlayerID:   c.id,
			Amount:       c.amount,
		})
	}

	return prioritize(payments), nil
}

func inSnapshot(balances []domain.PlayerBalance, id uuid.UUID) bool {
	for _, b := range balances {
		if b.PlayerID == id {
			return true
		}
	}
	return false
}

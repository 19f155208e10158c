package settle

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/potsplit/settle-engine/internal/domain"
)

// Weights combines the four score axes into the overall score. Only the
// ratios matter: weights are normalized before use, so callers can
// express them in any scale.
type Weights struct {
	Simplicity   float64
	Fairness     float64
	Efficiency   float64
	Friendliness float64
}

// DefaultWeights favors fewer payments, with efficiency against the
// baseline a close second.
func DefaultWeights() Weights {
	return Weights{Simplicity: 0.35, Fairness: 0.20, Efficiency: 0.30, Friendliness: 0.15}
}

func (w Weights) normalized() Weights {
	sum := w.Simplicity + w.Fairness + w.Efficiency + w.Friendliness
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Simplicity:   w.Simplicity / sum,
		Fairness:     w.Fairness / sum,
		Efficiency:   w.Efficiency / sum,
		Friendliness: w.Friendliness / sum,
	}
}

// CompareOptions tunes a comparison run.
type CompareOptions struct {
	Weights           Weights
	LargePaymentCents int64
	SearchBudget      int
	HubPlayerID       uuid.UUID
}

// Compare runs every automatic strategy over the same snapshot, scores
// each candidate, and recommends the highest overall score. Candidates
// appear in the fixed enumeration order, which also breaks score ties.
func Compare(balances []domain.PlayerBalance, opts CompareOptions) (*domain.SettlementComparison, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("Compare: %w", domain.ErrNoPlayers)
	}

	baseline, err := Direct(balances)
	if err != nil {
		return nil, fmt.Errorf("Compare: baseline: %w", err)
	}

	cmp := &domain.SettlementComparison{}
	bestScore := math.Inf(-1)
	for _, algo := range domain.Algorithms() {
		var payments []domain.PaymentPlanEntry
		switch algo {
		case domain.AlgorithmDirect:
			payments = baseline
		case domain.AlgorithmHub:
			payments, err = Hub(balances, opts.HubPlayerID)
		case domain.AlgorithmMinimalSearch:
			payments, err = MinimalSearch(balances, opts.SearchBudget)
		default:
			payments, err = Run(algo, balances)
		}
		if err != nil {
			return nil, fmt.Errorf("Compare: %s: %w", algo, err)
		}

		scores := Score(balances, payments, len(baseline), opts.LargePaymentCents, opts.Weights)
		cmp.Alternatives = append(cmp.Alternatives, domain.AlternativeSettlement{
			Algorithm: algo,
			Payments:  payments,
			Scores:    scores,
		})
		if scores.Overall > bestScore {
			bestScore = scores.Overall
			cmp.Recommended = algo
		}
	}
	return cmp, nil
}

// Score rates one candidate plan on the four axes, each in [0,10].
//
// Simplicity rewards plans near the n-1 optimum. Fairness rewards
// evenly sized payments (low coefficient of variation). Efficiency
// measures the payment count reduction against the direct baseline.
// Friendliness blends the others with a penalty for any single payment
// above the large-payment threshold.
func Score(balances []domain.PlayerBalance, payments []domain.PaymentPlanEntry, baselineCount int, largePaymentCents int64, w Weights) domain.Scores {
	if len(payments) == 0 {
		return domain.Scores{Simplicity: 10, Fairness: 10, Efficiency: 10, Friendliness: 10, Overall: 10}
	}

	active := 0
	for _, b := range balances {
		if b.NetPosition != 0 {
			active++
		}
	}
	optimal := max(active-1, 1)
	count := len(payments)

	simplicity := clamp10(10 * float64(optimal) / float64(count))

	var total, maxPayment int64
	for _, p := range payments {
		total += p.Amount
		if p.Amount > maxPayment {
			maxPayment = p.Amount
		}
	}
	mean := float64(total) / float64(count)
	var variance float64
	for _, p := range payments {
		d := float64(p.Amount) - mean
		variance += d * d
	}
	variance /= float64(count)
	fairness := 10.0
	if mean > 0 {
		fairness = clamp10(10 / (1 + math.Sqrt(variance)/mean))
	}

	efficiency := 10.0
	if baselineCount > optimal {
		efficiency = clamp10(10 * float64(baselineCount-count) / float64(baselineCount-optimal))
	}

	largeScore := 10.0
	if largePaymentCents > 0 && maxPayment > largePaymentCents {
		largeScore = 10 * float64(largePaymentCents) / float64(maxPayment)
	}
	friendliness := clamp10(0.4*simplicity + 0.3*fairness + 0.3*largeScore)

	nw := w.normalized()
	overall := clamp10(nw.Simplicity*simplicity +
		nw.Fairness*fairness +
		nw.Efficiency*efficiency +
		nw.Friendliness*friendliness)

	return domain.Scores{
		Simplicity:   simplicity,
		Fairness:     fairness,
		Efficiency:   efficiency,
		Friendliness: friendliness,
		Overall:      overall,
	}
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Package ledger turns a session's buy-in/cash-out entries into the
// balance snapshot the settlement engine consumes.
//
// Money crosses the package boundary as decimal currency amounts (what
// the organizer typed) and leaves as int64 minor units. Every rounding
// performed during that conversion is recorded so the proof generator
// can account for each lost fraction of a cent.
package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/potsplit/settle-engine/internal/domain"
)

var centFactor = decimal.NewFromInt(100)

// Snapshot is the aggregation result: net positions in minor units plus
// the rounding operations it took to get there.
type Snapshot struct {
	Balances    []domain.PlayerBalance
	RoundingOps []domain.RoundingOp
	Tolerance   int64
}

// Aggregate computes each player's net position from the ledger.
// Balances are returned in ascending player-ID order so downstream
// algorithms see a stable input regardless of entry order.
//
// Tolerance of 0 means "one cent per player". If the net positions fail
// to sum to zero within tolerance the ledger itself is inconsistent and
// Aggregate fails with domain.ErrUnbalancedInput; that is an upstream
// data problem this engine detects but never repairs.
func Aggregate(players []domain.Player, entries []domain.LedgerEntry, tolerance int64) (*Snapshot, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("Aggregate: %w", domain.ErrNoPlayers)
	}
	if tolerance <= 0 {
		tolerance = int64(len(players))
	}

	type totals struct {
		buyIns   int64
		cashOuts int64
	}
	byPlayer := make(map[uuid.UUID]*totals, len(players))
	names := make(map[uuid.UUID]string, len(players))
	for _, p := range players {
		byPlayer[p.ID] = &totals{}
		names[p.ID] = p.Name
	}

	var roundingOps []domain.RoundingOp
	for _, e := range entries {
		t, ok := byPlayer[e.PlayerID]
		if !ok {
			return nil, fmt.Errorf("Aggregate: entry %s: %w", e.ID, domain.ErrUnknownPlayer)
		}
		if e.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("Aggregate: entry %s: %w", e.ID, domain.ErrInvalidAmount)
		}

		cents, op := toCents(e)
		if op != nil {
			roundingOps = append(roundingOps, *op)
		}

		switch e.Type {
		case domain.EntryTypeBuyIn:
			t.buyIns += cents
		case domain.EntryTypeCashOut:
			t.cashOuts += cents
		default:
			return nil, fmt.Errorf("Aggregate: entry %s: %w", e.ID, domain.ErrInvalidEntryType)
		}
	}

	balances := make([]domain.PlayerBalance, 0, len(players))
	var net int64
	for id, t := range byPlayer {
		b := domain.PlayerBalance{
			PlayerID:      id,
			Name:          names[id],
			TotalBuyIns:   t.buyIns,
			TotalCashOuts: t.cashOuts,
			NetPosition:   t.cashOuts - t.buyIns,
		}
		net += b.NetPosition
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].PlayerID.String() < balances[j].PlayerID.String()
	})

	if net > tolerance || net < -tolerance {
		return nil, fmt.Errorf("Aggregate: net positions sum to %d cents (tolerance %d): %w",
			net, tolerance, domain.ErrUnbalancedInput)
	}

	return &Snapshot{
		Balances:    balances,
		RoundingOps: roundingOps,
		Tolerance:   tolerance,
	}, nil
}

// toCents converts a submitted decimal amount to minor units, rounding
// half away from zero. A RoundingOp is returned only when the amount
// had sub-cent precision to lose.
func toCents(e domain.LedgerEntry) (int64, *domain.RoundingOp) {
	exact := e.Amount.Mul(centFactor)
	rounded := exact.Round(0)
	cents := rounded.IntPart()

	if exact.Equal(rounded) {
		return cents, nil
	}
	return cents, &domain.RoundingOp{
		Context:  fmt.Sprintf("%s entry %s", e.Type, e.ID),
		Original: e.Amount,
		Rounded:  cents,
		Mode:     "half away from zero",
		Loss:     exact.Sub(rounded),
	}
}

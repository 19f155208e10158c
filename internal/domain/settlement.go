package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerBalance is a player's net cash position in minor units.
// NetPosition = TotalCashOuts - TotalBuyIns: positive means the player
// is owed money, negative means the player owes.
type PlayerBalance struct {
	PlayerID      uuid.UUID
	Name          string
	TotalBuyIns   int64
	TotalCashOuts int64
	NetPosition   int64
}

// PaymentPlanEntry is one hand-to-hand payment in a settlement plan.
// Amount is always positive; Priority 1 settles first.
type PaymentPlanEntry struct {
	FromPlayerID uuid.UUID
	ToPlayerID   uuid.UUID
	Amount       int64
	Priority     int
}

// OptimizationMetrics compares the chosen plan against the direct
// baseline and records how long optimization took.
type OptimizationMetrics struct {
	OriginalPaymentCount  int
	OptimizedPaymentCount int
	ProcessingTime        time.Duration
	TotalSettled          int64
}

// OptimizedSettlement is the engine's primary output: the chosen plan
// plus its proof and validation artifacts. It is immutable once issued;
// a recomputation produces a new settlement that supersedes this one.
type OptimizedSettlement struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Algorithm Algorithm
	Payments  []PaymentPlanEntry
	Metrics   OptimizationMetrics
	Proof     *MathematicalProof
	Errors    []ValidationError
	Warnings  []ValidationWarning
	IsValid   bool
	CreatedAt time.Time
}

// Scores are the comparator's four axes plus the weighted overall,
// each in [0,10].
type Scores struct {
	Simplicity   float64
	Fairness     float64
	Efficiency   float64
	Friendliness float64
	Overall      float64
}

// AlternativeSettlement is one algorithm's candidate plan with its
// comparator scores.
type AlternativeSettlement struct {
	Algorithm Algorithm
	Payments  []PaymentPlanEntry
	Scores    Scores
}

// SettlementComparison holds every candidate and the recommendation,
// for callers that let a user pick among strategies.
type SettlementComparison struct {
	Alternatives []AlternativeSettlement
	Recommended  Algorithm
}

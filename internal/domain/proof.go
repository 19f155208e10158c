package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceVerification is the proof's top-level arithmetic check: the
// money delivered to creditors, net of passthrough flows, must equal
// what they are owed.
type BalanceVerification struct {
	TotalDebits  int64
	TotalCredits int64
	NetBalance   int64
	IsBalanced   bool
}

// CalculationStep is one narrated arithmetic step. Verified is set by an
// independent recomputation of Result from Inputs, within Tolerance.
type CalculationStep struct {
	Operation string
	Inputs    []int64
	Formula   string
	Result    int64
	Tolerance int64
	Verified  bool
}

// RoundingOp records one decimal-to-minor-unit rounding performed while
// building the balance snapshot or the plan.
type RoundingOp struct {
	Context  string
	Original decimal.Decimal
	Rounded  int64
	Mode     string
	Loss     decimal.Decimal
}

// CentAdjustment names the player who absorbed a fractional-cent
// remainder and why. Policy: the largest creditor absorbs positive
// remainders, the largest debtor absorbs negative ones.
type CentAdjustment struct {
	PlayerID uuid.UUID
	Amount   int64
	Reason   string
}

type PrecisionAnalysis struct {
	RoundingOps []RoundingOp
	Adjustments []CentAdjustment
}

// AlternativeResult is a cross-check summary: did an independent
// algorithm arrive at the same total?
type AlternativeResult struct {
	Algorithm    Algorithm
	PaymentCount int
	TotalAmount  int64
	Matches      bool
}

// ExportFormats carries the proof pre-rendered for the external sharing
// collaborator. Rendering beyond plain text/JSON is out of scope here.
type ExportFormats struct {
	Text string
	JSON string
}

// MathematicalProof recomputes and narrates the chosen settlement's
// arithmetic so a skeptical player can audit it.
type MathematicalProof struct {
	Verification BalanceVerification
	Steps        []CalculationStep
	Precision    PrecisionAnalysis
	Alternatives []AlternativeResult
	Exports      ExportFormats
}

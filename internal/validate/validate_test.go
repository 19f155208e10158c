package validate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/settle"
)

var (
	idA = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	idB = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	idC = uuid.MustParse("cccccccc-0000-0000-0000-000000000003")
	idD = uuid.MustParse("dddddddd-0000-0000-0000-000000000004")
)

var fixedNow = time.Date(2026, 5, 17, 21, 0, 0, 0, time.UTC)

func exampleBalances() []domain.PlayerBalance {
	return []domain.PlayerBalance{
		{PlayerID: idA, Name: "alice", NetPosition: 5000},
		{PlayerID: idB, Name: "bob", NetPosition: 2000},
		{PlayerID: idC, Name: "carol", NetPosition: -3000},
		{PlayerID: idD, Name: "dave", NetPosition: -4000},
	}
}

func validInput(t *testing.T) Input {
	t.Helper()
	balances := exampleBalances()
	payments, err := settle.Greedy(balances)
	require.NoError(t, err)
	direct, err := settle.Direct(balances)
	require.NoError(t, err)

	return Input{
		Balances:  balances,
		Payments:  payments,
		Algorithm: domain.AlgorithmGreedy,
		Alternates: map[domain.Algorithm][]domain.PaymentPlanEntry{
			domain.AlgorithmDirect: direct,
		},
		Tolerance: 4,
		Now:       fixedNow,
	}
}

func errorCodes(v *domain.SettlementValidation) []string {
	codes := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		codes[i] = e.Code
	}
	return codes
}

func warningCodes(v *domain.SettlementValidation) []string {
	codes := make([]string, len(v.Warnings))
	for i, w := range v.Warnings {
		codes[i] = w.Code
	}
	return codes
}

func TestSettlementValid(t *testing.T) {
	v := Settlement(validInput(t))

	assert.True(t, v.IsValid())
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
	assert.NotEmpty(t, v.AuditTrail)
	for _, e := range v.AuditTrail {
		assert.True(t, e.Check, "audit step %d %s", e.Step, e.Operation)
	}
}

func TestSettlementStructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Input)
		wantCode string
	}{
		{
			name: "non-positive amount",
			mutate: func(in *Input) {
				in.Payments[0].Amount = 0
			},
			wantCode: CodeNonPositiveAmount,
		},
		{
			name: "self payment",
			mutate: func(in *Input) {
				in.Payments[0].ToPlayerID = in.Payments[0].FromPlayerID
			},
			wantCode: CodeSelfPayment,
		},
		{
			name: "unknown player",
			mutate: func(in *Input) {
				in.Payments[0].FromPlayerID = uuid.New()
			},
			wantCode: CodeUnknownPlayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(t)
			tt.mutate(&in)

			v := Settlement(in)
			assert.False(t, v.IsValid())
			assert.Contains(t, errorCodes(v), tt.wantCode)
		})
	}
}

func TestSettlementConservationViolation(t *testing.T) {
	in := validInput(t)
	in.Payments = in.Payments[1:]
	in.Alternates = nil

	v := Settlement(in)
	assert.False(t, v.IsValid())
	assert.Contains(t, errorCodes(v), CodeConservation)
}

func TestSettlementEmptyPlan(t *testing.T) {
	in := validInput(t)
	in.Payments = nil
	in.Alternates = nil

	v := Settlement(in)
	assert.False(t, v.IsValid())
	assert.Contains(t, errorCodes(v), CodeEmptyPlan)
}

func TestSettlementCrossCheckDivergence(t *testing.T) {
	in := validInput(t)
	in.Alternates = map[domain.Algorithm][]domain.PaymentPlanEntry{
		domain.AlgorithmDirect: {
			{FromPlayerID: idD, ToPlayerID: idA, Amount: 100},
		},
	}

	v := Settlement(in)
	assert.False(t, v.IsValid())
	assert.Contains(t, errorCodes(v), CodeCrossCheck)
}

func TestSettlementNearToleranceWarning(t *testing.T) {
	in := validInput(t)
	// Leave alice one cent short: inside tolerance, so a warning with
	// the auto-correction rather than an error.
	for i := range in.Payments {
		if in.Payments[i].ToPlayerID == idA && in.Payments[i].Amount == 1000 {
			in.Payments[i].Amount = 999
		}
	}
	in.Alternates = nil

	v := Settlement(in)
	assert.True(t, v.IsValid())
	require.Contains(t, warningCodes(v), CodeNearTolerance)

	var w domain.ValidationWarning
	for _, cand := range v.Warnings {
		if cand.Code == CodeNearTolerance && cand.Correction != nil && cand.Correction.PlayerID == idA {
			w = cand
		}
	}
	require.NotNil(t, w.Correction)
	assert.Equal(t, int64(-1), w.Correction.AdjustCents)
	assert.Equal(t, domain.SeverityMinor, w.Severity)
	assert.True(t, w.CanProceed)
}

func TestSettlementDuplicatePairWarning(t *testing.T) {
	in := validInput(t)
	// Split dave's payment into two transfers to the same recipient.
	in.Payments = append(in.Payments[1:],
		domain.PaymentPlanEntry{FromPlayerID: idD, ToPlayerID: idA, Amount: 1500},
		domain.PaymentPlanEntry{FromPlayerID: idD, ToPlayerID: idA, Amount: 2500},
	)
	in.Alternates = nil

	v := Settlement(in)
	assert.True(t, v.IsValid())
	assert.Contains(t, warningCodes(v), CodeDuplicatePair)
}

func TestSettlementLargePaymentWarning(t *testing.T) {
	in := validInput(t)
	in.LargePaymentCents = 3000
	in.Alternates = nil

	v := Settlement(in)
	assert.True(t, v.IsValid())
	assert.Contains(t, warningCodes(v), CodeLargePayment)
}

func TestSettlementSinglePlayerWarning(t *testing.T) {
	in := Input{
		Balances: []domain.PlayerBalance{
			{PlayerID: idA, Name: "alice", NetPosition: 0},
			{PlayerID: idB, Name: "bob", NetPosition: 0},
		},
		Algorithm: domain.AlgorithmGreedy,
		Tolerance: 2,
		Now:       fixedNow,
	}

	v := Settlement(in)
	assert.True(t, v.IsValid())
	assert.Contains(t, warningCodes(v), CodeSinglePlayer)
}

func TestAuditTrailOrdering(t *testing.T) {
	v := Settlement(validInput(t))

	require.NotEmpty(t, v.AuditTrail)
	for i, e := range v.AuditTrail {
		assert.Equal(t, i+1, e.Step)
		assert.Equal(t, fixedNow, e.Timestamp)
	}

	// The trail always opens with the structural checks and closes with
	// the advisory checks.
	assert.Equal(t, "structural_payments", v.AuditTrail[0].Operation)
	assert.Equal(t, "large_payments", v.AuditTrail[len(v.AuditTrail)-1].Operation)
}

func TestAuditTrailDeterministic(t *testing.T) {
	first := Settlement(validInput(t))
	second := Settlement(validInput(t))
	assert.Equal(t, first.AuditTrail, second.AuditTrail)
}

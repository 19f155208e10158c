package domain

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ValidationError is a blocking finding: the settlement must not be
// presented as final while any of these exist.
type ValidationError struct {
	Code     string
	Severity Severity
	Message  string
}

// AutoCorrection is a machine-applicable fix a caller may accept.
// Accepting it adjusts the named player's net position by AdjustCents
// and re-runs the full pipeline on the corrected snapshot.
type AutoCorrection struct {
	PlayerID    uuid.UUID
	AdjustCents int64
	Description string
}

// ValidationWarning is a non-blocking finding attached to an otherwise
// valid settlement.
type ValidationWarning struct {
	Code         string
	Severity     Severity
	Message      string
	CanProceed   bool
	SuggestedFix string
	Correction   *AutoCorrection
}

// AuditTrailEntry is one validation or computation check, in the exact
// order it was executed.
type AuditTrailEntry struct {
	Step      int
	Operation string
	Input     string
	Output    string
	Check     bool
	Timestamp time.Time
}

// SettlementValidation is the validator's full output.
type SettlementValidation struct {
	AuditTrail []AuditTrailEntry
	Errors     []ValidationError
	Warnings   []ValidationWarning
}

// IsValid reports whether the settlement may be presented as final.
func (v *SettlementValidation) IsValid() bool {
	return len(v.Errors) == 0
}

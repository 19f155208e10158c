package domain

// Algorithm identifies one settlement strategy.
type Algorithm string

const (
	// AlgorithmDirect is the unconsolidated baseline: every debtor pays
	// every creditor in proportion to the creditor's credit.
	AlgorithmDirect Algorithm = "direct"

	// AlgorithmGreedy matches the largest debtor against the largest
	// creditor until everyone is settled. Default optimized strategy.
	AlgorithmGreedy Algorithm = "greedy"

	// AlgorithmHub routes every payment through a single hub player.
	AlgorithmHub Algorithm = "hub"

	// AlgorithmBalancedFlow spreads large debts across several smaller
	// payments to avoid a single outsized transfer.
	AlgorithmBalancedFlow Algorithm = "balanced_flow"

	// AlgorithmMinimalSearch performs a bounded branch-and-bound search
	// for a provably minimal payment count, falling back to greedy.
	AlgorithmMinimalSearch Algorithm = "minimal_search"

	// AlgorithmManual is a passthrough for organizer-specified payments.
	AlgorithmManual Algorithm = "manual"
)

// Algorithms returns every automatic strategy in its fixed enumeration
// order. Manual is excluded: it cannot synthesize payments on its own.
// The order doubles as the comparator's tie-break.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmDirect,
		AlgorithmGreedy,
		AlgorithmHub,
		AlgorithmBalancedFlow,
		AlgorithmMinimalSearch,
	}
}

func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmDirect, AlgorithmGreedy, AlgorithmHub,
		AlgorithmBalancedFlow, AlgorithmMinimalSearch, AlgorithmManual:
		return true
	}
	return false
}

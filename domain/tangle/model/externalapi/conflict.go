package externalapi

// ConflictReason is the outcome of semantic transaction validation
// during a white-flag run.
type ConflictReason uint8

// The conflict reasons. Values are part of the persisted format.
const (
	ConflictNone                                 ConflictReason = 0
	ConflictInputUTXOAlreadySpent                ConflictReason = 1
	ConflictInputUTXOAlreadySpentInThisMilestone ConflictReason = 2
	ConflictInputUTXONotFound                    ConflictReason = 3
	ConflictInputOutputSumMismatch               ConflictReason = 4
	ConflictSemanticValidationFailed             ConflictReason = 255
)

var conflictReasonStrings = map[ConflictReason]string{
	ConflictNone:                                 "none",
	ConflictInputUTXOAlreadySpent:                "inputUTXOAlreadySpent",
	ConflictInputUTXOAlreadySpentInThisMilestone: "inputUTXOAlreadySpentInThisMilestone",
	ConflictInputUTXONotFound:                    "inputUTXONotFound",
	ConflictInputOutputSumMismatch:               "inputOutputSumMismatch",
	ConflictSemanticValidationFailed:             "semanticValidationFailed",
}

func (c ConflictReason) String() string {
	if s, ok := conflictReasonStrings[c]; ok {
		return s
	}
	return "unknown"
}

// LedgerInclusionState classifies a referenced block for the ledger.
type LedgerInclusionState uint8

// The ledger inclusion states. LedgerInclusionStateNone means the block
// is not referenced yet.
const (
	LedgerInclusionStateNone          LedgerInclusionState = 0
	LedgerInclusionStateNoTransaction LedgerInclusionState = 1
	LedgerInclusionStateIncluded      LedgerInclusionState = 2
	LedgerInclusionStateConflicting   LedgerInclusionState = 3
)

func (s LedgerInclusionState) String() string {
	switch s {
	case LedgerInclusionStateNoTransaction:
		return "noTransaction"
	case LedgerInclusionStateIncluded:
		return "included"
	case LedgerInclusionStateConflicting:
		return "conflicting"
	default:
		return "none"
	}
}

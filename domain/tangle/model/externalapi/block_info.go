package externalapi

// BlockInfo is the metadata projection of a block served to API
// consumers. Optional fields are nil when they do not apply.
type BlockInfo struct {
	BlockID                    *BlockID
	Parents                    []*BlockID
	IsSolid                    bool
	ReferencedByMilestoneIndex *MilestoneIndex
	MilestoneIndex             *MilestoneIndex
	LedgerInclusionState       *LedgerInclusionState
	ConflictReason             *ConflictReason
	ShouldPromote              *bool
	ShouldReattach             *bool
}

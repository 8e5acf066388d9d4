package externalapi

import "time"

// ConflictedBlock is a block excluded from the ledger by a white-flag run.
type ConflictedBlock struct {
	BlockID  *BlockID
	Conflict ConflictReason
}

// WhiteFlagMutations is the result of a white-flag run. Nothing in it is
// applied until the caller commits it.
type WhiteFlagMutations struct {
	MilestoneIndex     MilestoneIndex
	MilestoneBlockID   *BlockID
	MilestoneTimestamp time.Time

	// ReferencedBlocks lists every block applied by the run, in
	// application order.
	ReferencedBlocks            []*BlockID
	IncludedBlocks              []*BlockID
	ExcludedWithoutTransactions []*BlockID
	ExcludedWithConflicts       []*ConflictedBlock

	// NewOutputs are outputs created by included transactions and not
	// consumed by the same run, in creation order.
	NewOutputs []*UnspentOutput

	// NewSpents are previously booked outputs consumed by the run, in
	// consumption order.
	NewSpents []*SpentOutput

	AppliedMerkleRoot Hash
}

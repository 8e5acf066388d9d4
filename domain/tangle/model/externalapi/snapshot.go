package externalapi

// SolidEntryPoint is a pruned block that younger blocks may still
// reference, along with the index it became an entry point at.
type SolidEntryPoint struct {
	BlockID *BlockID
	Index   MilestoneIndex
}

// Snapshot is the state a tangle can be bootstrapped from instead of
// replaying history.
type Snapshot struct {
	Index            MilestoneIndex
	SolidEntryPoints []*SolidEntryPoint
	UnspentOutputs   []*UnspentOutput
}

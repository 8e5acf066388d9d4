package model

import "github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"

// Store is a common interface for data stores
type Store interface {
	IsStaged(stagingArea *StagingArea) bool
}

// BlockStore represents a store of block bodies
type BlockStore interface {
	Store
	Stage(stagingArea *StagingArea, blockID *externalapi.BlockID, block *externalapi.Block)
	Block(dbContext DBReader, stagingArea *StagingArea, blockID *externalapi.BlockID) (*externalapi.Block, error)
	HasBlock(dbContext DBReader, stagingArea *StagingArea, blockID *externalapi.BlockID) (bool, error)
	Delete(stagingArea *StagingArea, blockID *externalapi.BlockID)
	Count(stagingArea *StagingArea) uint64
}

// BlockMetadataStore represents a store of live block metadata. Loaded
// metadata stays in memory until its block is pruned.
type BlockMetadataStore interface {
	Store
	Stage(stagingArea *StagingArea, metadata *externalapi.BlockMetadata)
	StageSnapshot(stagingArea *StagingArea, snapshot *externalapi.BlockMetadataSnapshot)
	Get(dbContext DBReader, stagingArea *StagingArea, blockID *externalapi.BlockID) (*externalapi.BlockMetadata, error)
	Has(dbContext DBReader, stagingArea *StagingArea, blockID *externalapi.BlockID) (bool, error)
	Delete(stagingArea *StagingArea, blockID *externalapi.BlockID)
	Len() int
}

// ChildrenStore represents a store of parent to child edges
type ChildrenStore interface {
	Store
	Stage(stagingArea *StagingArea, parentID *externalapi.BlockID, childID *externalapi.BlockID)
	Children(dbContext DBReader, stagingArea *StagingArea, parentID *externalapi.BlockID) ([]*externalapi.BlockID, error)
	Delete(stagingArea *StagingArea, parentID *externalapi.BlockID, childID *externalapi.BlockID)
}

// MilestoneStore represents a store of milestone records
type MilestoneStore interface {
	Store
	Stage(stagingArea *StagingArea, milestone *externalapi.Milestone)
	Milestone(dbContext DBReader, stagingArea *StagingArea, index externalapi.MilestoneIndex) (*externalapi.Milestone, error)
	Has(dbContext DBReader, stagingArea *StagingArea, index externalapi.MilestoneIndex) (bool, error)
	Delete(stagingArea *StagingArea, index externalapi.MilestoneIndex)
}

// SolidEntryPointStore represents the set of solid entry points. The set
// is held in memory in full; additions become visible immediately.
type SolidEntryPointStore interface {
	Store
	Add(stagingArea *StagingArea, blockID *externalapi.BlockID, index externalapi.MilestoneIndex)
	Remove(stagingArea *StagingArea, blockID *externalapi.BlockID)
	Index(stagingArea *StagingArea, blockID *externalapi.BlockID) (externalapi.MilestoneIndex, bool)
	SolidEntryPoints() map[externalapi.BlockID]externalapi.MilestoneIndex
}

// UTXOStore represents the ledger: unspent outputs and the spent records
// of outputs consumed by confirmed milestones.
type UTXOStore interface {
	Store
	StageMutations(stagingArea *StagingArea, newOutputs []*externalapi.UnspentOutput, newSpents []*externalapi.SpentOutput)
	Get(dbContext DBReader, stagingArea *StagingArea, outpoint *externalapi.Outpoint) (*externalapi.UTXOEntry, error)
	Has(dbContext DBReader, stagingArea *StagingArea, outpoint *externalapi.Outpoint) (bool, error)
	IsSpent(dbContext DBReader, stagingArea *StagingArea, outpoint *externalapi.Outpoint) (bool, error)
	Spent(dbContext DBReader, stagingArea *StagingArea, outpoint *externalapi.Outpoint) (*externalapi.SpentOutput, error)
	SpentAt(dbContext DBReader, index externalapi.MilestoneIndex) ([]*externalapi.Outpoint, error)
	DeleteSpent(stagingArea *StagingArea, outpoint *externalapi.Outpoint, index externalapi.MilestoneIndex)
	UnspentOutputs(dbContext DBReader) ([]*externalapi.UnspentOutput, error)
}

// ConsensusStateStore represents the singleton values of the tangle:
// latest solid milestone index, pruning index and ledger commitment.
type ConsensusStateStore interface {
	Store
	StageLatestSolidMilestoneIndex(stagingArea *StagingArea, index externalapi.MilestoneIndex)
	LatestSolidMilestoneIndex(dbContext DBReader, stagingArea *StagingArea) (externalapi.MilestoneIndex, error)
	StagePruningIndex(stagingArea *StagingArea, index externalapi.MilestoneIndex)
	PruningIndex(dbContext DBReader, stagingArea *StagingArea) (externalapi.MilestoneIndex, error)
	StageLedgerCommitment(stagingArea *StagingArea, serializedCommitment []byte)
	LedgerCommitment(dbContext DBReader, stagingArea *StagingArea) ([]byte, error)
	IsInitialized(dbContext DBReader, stagingArea *StagingArea) (bool, error)
}

// UnreferencedBlockStore indexes blocks that were never referenced by the
// latest solid milestone index at their arrival.
type UnreferencedBlockStore interface {
	Store
	Stage(stagingArea *StagingArea, arrivalIndex externalapi.MilestoneIndex, blockID *externalapi.BlockID)
	Delete(stagingArea *StagingArea, arrivalIndex externalapi.MilestoneIndex, blockID *externalapi.BlockID)
	BlockIDs(dbContext DBReader, stagingArea *StagingArea, arrivalIndex externalapi.MilestoneIndex) ([]*externalapi.BlockID, error)
}

// PendingSolidificationStore holds blocks whose solidity still has to be
// checked. A propagation that stops early leaves its worklist here.
type PendingSolidificationStore interface {
	Store
	Stage(stagingArea *StagingArea, blockID *externalapi.BlockID)
	Delete(stagingArea *StagingArea, blockID *externalapi.BlockID)
	BlockIDs(dbContext DBReader, stagingArea *StagingArea) ([]*externalapi.BlockID, error)
}

package model

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// BlockPresence is the result of a DAG Index lookup.
type BlockPresence uint8

// The possible lookup results. A solid entry point has no body.
const (
	BlockMissing BlockPresence = iota
	BlockPresent
	BlockSolidEntryPoint
)

func (p BlockPresence) String() string {
	switch p {
	case BlockPresent:
		return "present"
	case BlockSolidEntryPoint:
		return "solid entry point"
	default:
		return "missing"
	}
}

// DAGTopologyManager exposes the DAG Index: block lookups that distinguish
// solid entry points from missing blocks, and edge traversal.
type DAGTopologyManager interface {
	Lookup(stagingArea *StagingArea, blockID *externalapi.BlockID) (*externalapi.Block, BlockPresence, error)
	Metadata(stagingArea *StagingArea, blockID *externalapi.BlockID) (*externalapi.BlockMetadata, error)
	Parents(stagingArea *StagingArea, blockID *externalapi.BlockID) ([]*externalapi.BlockID, error)
	Children(stagingArea *StagingArea, blockID *externalapi.BlockID) ([]*externalapi.BlockID, error)
	SolidEntryPointIndex(stagingArea *StagingArea, blockID *externalapi.BlockID) (externalapi.MilestoneIndex, bool)
}

// TraversalCallbacks configures a parents traversal. Only Condition and
// OnMatch are required.
type TraversalCallbacks struct {
	Condition         func(blockID *externalapi.BlockID, metadata *externalapi.BlockMetadata) (bool, error)
	OnMatch           func(blockID *externalapi.BlockID, block *externalapi.Block, metadata *externalapi.BlockMetadata) error
	OnNotMatch        func(blockID *externalapi.BlockID) error
	OnSolidEntryPoint func(blockID *externalapi.BlockID) error
	OnMissing         func(blockID *externalapi.BlockID) error
}

// DAGTraversalManager exposes walks over the DAG.
type DAGTraversalManager interface {
	VisitParentsDepthFirst(ctx context.Context, stagingArea *StagingArea,
		startIDs []*externalapi.BlockID, callbacks *TraversalCallbacks) error
}

// ConeIndexCalculator derives cone indexes of a block from its parents.
type ConeIndexCalculator interface {
	CalculateConeIndexes(stagingArea *StagingArea, blockID *externalapi.BlockID,
		block *externalapi.Block, metadata *externalapi.BlockMetadata) (omrsi, ymrsi *externalapi.ConeIndex, err error)
}

// Solidifier propagates solidity to the future cone of blocks.
type Solidifier interface {
	ConeIndexCalculator
	Propagate(ctx context.Context, stagingArea *StagingArea, blockID *externalapi.BlockID) ([]*externalapi.BlockID, error)
	ResumePropagation(ctx context.Context, stagingArea *StagingArea) ([]*externalapi.BlockID, error)
	RefreshConeIndexes(ctx context.Context, stagingArea *StagingArea, roots []*externalapi.BlockID) ([]*externalapi.BlockID, error)
}

// MilestoneManager validates milestone payloads and records milestones.
type MilestoneManager interface {
	RegisterMilestone(stagingArea *StagingArea, blockID *externalapi.BlockID, block *externalapi.Block,
		metadata *externalapi.BlockMetadata) (*externalapi.MilestoneTuple, error)
}

// WhiteFlagEngine computes the ledger mutations of a milestone.
type WhiteFlagEngine interface {
	Run(ctx context.Context, stagingArea *StagingArea, milestone *externalapi.Milestone,
		parents []*externalapi.BlockID) (*externalapi.WhiteFlagMutations, error)
}

// TipScorer scores blocks against the latest solid milestone index.
type TipScorer interface {
	Score(stagingArea *StagingArea, blockID *externalapi.BlockID) (externalapi.TipScore, error)
}

// TipSelector maintains the pool of blocks new blocks may reference.
type TipSelector interface {
	AddTip(blockID *externalapi.BlockID) (bool, error)
	UpdateScores() (int, error)
	SelectTips() ([]*externalapi.BlockID, error)
	Tips() []*externalapi.BlockID
	Len() int
}

// PruningManager deletes data below the retained window.
type PruningManager interface {
	Prune(ctx context.Context, targetIndex externalapi.MilestoneIndex) error
}

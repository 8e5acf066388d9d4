package tangle

import (
	"context"
	"sync/atomic"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	infrastructuredatabase "github.com/iotaledger/bee-sub004/infrastructure/db/database"
)

// MilestoneSigner signs a milestone payload in place
type MilestoneSigner func(payload *externalapi.MilestonePayload)

// TestTangle wraps Tangle with helpers for building blocks and access to
// the internals
type TestTangle interface {
	Tangle

	// AddBlock builds a block over parents, which don't need to be
	// sorted, and attaches it. Every block it builds is distinct.
	AddBlock(parents []*externalapi.BlockID, payload externalapi.Payload) (*externalapi.BlockID, error)

	// AddMilestone builds the milestone index over parents with the
	// given inclusion merkle root, signs it with signer and attaches it.
	AddMilestone(index externalapi.MilestoneIndex, parents []*externalapi.BlockID,
		inclusionMerkleRoot externalapi.Hash, signer MilestoneSigner) (*externalapi.BlockID, error)

	// BuildBlock builds a block like AddBlock without attaching it
	BuildBlock(parents []*externalapi.BlockID, payload externalapi.Payload) *externalapi.Block

	Params() *dagconfig.Params
	Events() *Events
	Database() infrastructuredatabase.Database
	DatabaseContext() model.DBManager

	DAGTopologyManager() model.DAGTopologyManager
	DAGTraversalManager() model.DAGTraversalManager
	Solidifier() model.Solidifier
	WhiteFlagEngine() model.WhiteFlagEngine
	TipScorer() model.TipScorer
	TipSelector() model.TipSelector

	BlockStore() model.BlockStore
	BlockMetadataStore() model.BlockMetadataStore
	ChildrenStore() model.ChildrenStore
	MilestoneStore() model.MilestoneStore
	SolidEntryPointStore() model.SolidEntryPointStore
	UTXOStore() model.UTXOStore
	ConsensusStateStore() model.ConsensusStateStore
	UnreferencedBlockStore() model.UnreferencedBlockStore
	PendingSolidificationStore() model.PendingSolidificationStore
}

type testTangle struct {
	*tangle
	db     infrastructuredatabase.Database
	events *Events
	nonce  uint64
}

func (tt *testTangle) BuildBlock(parents []*externalapi.BlockID, payload externalapi.Payload) *externalapi.Block {
	sortedParents := externalapi.CloneBlockIDs(parents)
	externalapi.SortBlockIDs(sortedParents)
	return &externalapi.Block{
		Parents: sortedParents,
		Payload: payload,
		Nonce:   atomic.AddUint64(&tt.nonce, 1),
	}
}

func (tt *testTangle) AddBlock(parents []*externalapi.BlockID, payload externalapi.Payload) (*externalapi.BlockID, error) {
	return tt.AttachBlock(context.Background(), tt.BuildBlock(parents, payload))
}

func (tt *testTangle) AddMilestone(index externalapi.MilestoneIndex, parents []*externalapi.BlockID,
	inclusionMerkleRoot externalapi.Hash, signer MilestoneSigner) (*externalapi.BlockID, error) {

	block := tt.BuildBlock(parents, nil)
	payload := &externalapi.MilestonePayload{
		Index:               index,
		Timestamp:           int64(1_600_000_000 + index),
		Parents:             externalapi.CloneBlockIDs(block.Parents),
		InclusionMerkleRoot: inclusionMerkleRoot,
	}
	if signer != nil {
		signer(payload)
	}
	block.Payload = payload
	return tt.AttachBlock(context.Background(), block)
}

func (tt *testTangle) Params() *dagconfig.Params {
	return tt.params
}

func (tt *testTangle) Events() *Events {
	return tt.events
}

func (tt *testTangle) Database() infrastructuredatabase.Database {
	return tt.db
}

func (tt *testTangle) DatabaseContext() model.DBManager {
	return tt.databaseContext
}

func (tt *testTangle) DAGTopologyManager() model.DAGTopologyManager {
	return tt.dagTopologyManager
}

func (tt *testTangle) DAGTraversalManager() model.DAGTraversalManager {
	return tt.dagTraversalManager
}

func (tt *testTangle) Solidifier() model.Solidifier {
	return tt.solidifier
}

func (tt *testTangle) WhiteFlagEngine() model.WhiteFlagEngine {
	return tt.whiteFlagEngine
}

func (tt *testTangle) TipScorer() model.TipScorer {
	return tt.tipScorer
}

func (tt *testTangle) TipSelector() model.TipSelector {
	return tt.tipSelector
}

func (tt *testTangle) BlockStore() model.BlockStore {
	return tt.blockStore
}

func (tt *testTangle) BlockMetadataStore() model.BlockMetadataStore {
	return tt.blockMetadataStore
}

func (tt *testTangle) ChildrenStore() model.ChildrenStore {
	return tt.childrenStore
}

func (tt *testTangle) MilestoneStore() model.MilestoneStore {
	return tt.milestoneStore
}

func (tt *testTangle) SolidEntryPointStore() model.SolidEntryPointStore {
	return tt.solidEntryPointStore
}

func (tt *testTangle) UTXOStore() model.UTXOStore {
	return tt.utxoStore
}

func (tt *testTangle) ConsensusStateStore() model.ConsensusStateStore {
	return tt.consensusStateStore
}

func (tt *testTangle) UnreferencedBlockStore() model.UnreferencedBlockStore {
	return tt.unreferencedBlockStore
}

func (tt *testTangle) PendingSolidificationStore() model.PendingSolidificationStore {
	return tt.pendingSolidificationStore
}

package tangle

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/ledgercommitment"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/util/prioritylock"
	"github.com/pkg/errors"
)

// Tangle maintains the block DAG of the node along with the ledger its
// milestones confirm
type Tangle interface {
	AttachBlock(ctx context.Context, block *externalapi.Block) (*externalapi.BlockID, error)
	GetBlock(blockID *externalapi.BlockID) (*externalapi.Block, error)
	GetBlockInfo(blockID *externalapi.BlockID) (*externalapi.BlockInfo, error)
	GetMilestone(index externalapi.MilestoneIndex) (*externalapi.Milestone, error)
	GetUnspentOutput(outpoint *externalapi.Outpoint) (*externalapi.UTXOEntry, error)
	IsSolidEntryPoint(blockID *externalapi.BlockID) bool

	LatestSolidMilestoneIndex() (externalapi.MilestoneIndex, error)
	PruningIndex() (externalapi.MilestoneIndex, error)
	LedgerCommitment() (externalapi.Hash, error)
	BlockCount() uint64

	ComputeInclusionMerkleRoot(ctx context.Context, parents []*externalapi.BlockID) (externalapi.Hash, error)
	SelectTips() ([]*externalapi.BlockID, error)
	UpdateTipScores() (int, error)

	InitializeFromSnapshot(snapshot *externalapi.Snapshot) error
	Prune(ctx context.Context, targetIndex externalapi.MilestoneIndex) error
	Resume(ctx context.Context) error
}

type tangle struct {
	params          *dagconfig.Params
	databaseContext model.DBManager
	events          *Events
	retryPolicy     staging.RetryPolicy

	// windowLock is held for reading by everything that walks the DAG,
	// and exclusively by pruning and snapshot loading.
	windowLock *prioritylock.Mutex

	// insertLock serializes storing blocks and propagating solidity.
	insertLock sync.Mutex

	// commitMutex serializes storage commits.
	commitMutex sync.Mutex

	// whiteFlagMutex guarantees a single confirmation at a time.
	whiteFlagMutex sync.Mutex

	attachingMutex sync.Mutex
	attaching      map[externalapi.BlockID]struct{}

	isAutoPruning uint32

	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	solidifier          model.Solidifier
	milestoneManager    model.MilestoneManager
	whiteFlagEngine     model.WhiteFlagEngine
	tipScorer           model.TipScorer
	tipSelector         model.TipSelector
	pruningManager      model.PruningManager

	blockStore                 model.BlockStore
	blockMetadataStore         model.BlockMetadataStore
	childrenStore              model.ChildrenStore
	milestoneStore             model.MilestoneStore
	solidEntryPointStore       model.SolidEntryPointStore
	utxoStore                  model.UTXOStore
	consensusStateStore        model.ConsensusStateStore
	unreferencedBlockStore     model.UnreferencedBlockStore
	pendingSolidificationStore model.PendingSolidificationStore
}

// GetBlock returns the block of blockID. Solid entry points have no
// block.
func (t *tangle) GetBlock(blockID *externalapi.BlockID) (*externalapi.Block, error) {
	stagingArea := model.NewStagingArea()
	block, presence, err := t.dagTopologyManager.Lookup(stagingArea, blockID)
	if err != nil {
		return nil, err
	}
	if presence != model.BlockPresent {
		return nil, errors.Wrapf(ruleerrors.ErrBlockNotFound, "block %s is %s", blockID, presence)
	}
	return block, nil
}

// GetMilestone returns the milestone record of index
func (t *tangle) GetMilestone(index externalapi.MilestoneIndex) (*externalapi.Milestone, error) {
	stagingArea := model.NewStagingArea()
	milestone, err := t.milestoneStore.Milestone(t.databaseContext, stagingArea, index)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrMilestoneNotFound, "milestone %d", index)
	}
	return milestone, err
}

// GetUnspentOutput returns the ledger entry of outpoint
func (t *tangle) GetUnspentOutput(outpoint *externalapi.Outpoint) (*externalapi.UTXOEntry, error) {
	stagingArea := model.NewStagingArea()
	return t.utxoStore.Get(t.databaseContext, stagingArea, outpoint)
}

// IsSolidEntryPoint returns whether blockID is a solid entry point
func (t *tangle) IsSolidEntryPoint(blockID *externalapi.BlockID) bool {
	_, ok := t.solidEntryPointStore.Index(model.NewStagingArea(), blockID)
	return ok
}

// LatestSolidMilestoneIndex returns the index of the latest confirmed
// milestone
func (t *tangle) LatestSolidMilestoneIndex() (externalapi.MilestoneIndex, error) {
	return t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, model.NewStagingArea())
}

// PruningIndex returns the index of the latest pruned milestone
func (t *tangle) PruningIndex() (externalapi.MilestoneIndex, error) {
	return t.consensusStateStore.PruningIndex(t.databaseContext, model.NewStagingArea())
}

// LedgerCommitment returns the commitment to the current unspent set
func (t *tangle) LedgerCommitment() (externalapi.Hash, error) {
	commitment, err := t.ledgerCommitment(model.NewStagingArea())
	if err != nil {
		return externalapi.Hash{}, err
	}
	return commitment.Hash(), nil
}

func (t *tangle) ledgerCommitment(stagingArea *model.StagingArea) (model.LedgerCommitment, error) {
	commitmentBytes, err := t.consensusStateStore.LedgerCommitment(t.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return ledgercommitment.FromBytes(commitmentBytes)
}

// BlockCount returns the number of stored blocks
func (t *tangle) BlockCount() uint64 {
	return t.blockStore.Count(model.NewStagingArea())
}

// SelectTips returns tips a new block may reference
func (t *tangle) SelectTips() ([]*externalapi.BlockID, error) {
	return t.tipSelector.SelectTips()
}

// UpdateTipScores rescores the tip pool and returns the number of evicted
// tips
func (t *tangle) UpdateTipScores() (int, error) {
	t.windowLock.HighPriorityReadLock()
	defer t.windowLock.HighPriorityReadUnlock()

	return t.tipSelector.UpdateScores()
}

// Prune deletes everything confirmed up to targetIndex. It waits for
// in-flight attachments and confirmations to finish.
func (t *tangle) Prune(ctx context.Context, targetIndex externalapi.MilestoneIndex) error {
	t.windowLock.LowPriorityLock()
	defer t.windowLock.LowPriorityUnlock()

	return t.pruningManager.Prune(ctx, targetIndex)
}

// commit writes stagingArea, retrying storage failures
func (t *tangle) commit(ctx context.Context, stagingArea *model.StagingArea) error {
	t.commitMutex.Lock()
	defer t.commitMutex.Unlock()

	return staging.CommitAllChangesWithRetry(ctx, t.databaseContext, stagingArea, t.retryPolicy, log)
}

// autoPrune prunes in the background once the confirmed history is
// longer than the configured delay. At most one background pruning runs.
func (t *tangle) autoPrune(lsmi externalapi.MilestoneIndex) {
	delay := t.params.PruningDelay
	if delay == 0 || lsmi <= delay {
		return
	}
	targetIndex := lsmi - delay

	pruningIndex, err := t.PruningIndex()
	if err != nil || targetIndex <= pruningIndex {
		return
	}
	if !atomic.CompareAndSwapUint32(&t.isAutoPruning, 0, 1) {
		return
	}

	spawn("tangle.autoPrune", func() {
		defer atomic.StoreUint32(&t.isAutoPruning, 0)

		err := t.Prune(context.Background(), targetIndex)
		if err != nil {
			log.Errorf("Automatic pruning to %d failed: %+v", targetIndex, err)
		}
	})
}

package pruningmanager

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// OnPrunedFunc is called after every pruned milestone index with the
// number of deleted blocks
type OnPrunedFunc func(index externalapi.MilestoneIndex, prunedBlocks int)

type pruningManager struct {
	databaseContext     model.DBManager
	params              *dagconfig.Params
	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	onPruned            OnPrunedFunc

	blockStore             model.BlockStore
	blockMetadataStore     model.BlockMetadataStore
	childrenStore          model.ChildrenStore
	milestoneStore         model.MilestoneStore
	solidEntryPointStore   model.SolidEntryPointStore
	utxoStore              model.UTXOStore
	consensusStateStore    model.ConsensusStateStore
	unreferencedBlockStore model.UnreferencedBlockStore
}

// New instantiates a new PruningManager
func New(
	databaseContext model.DBManager,
	params *dagconfig.Params,
	dagTopologyManager model.DAGTopologyManager,
	dagTraversalManager model.DAGTraversalManager,
	onPruned OnPrunedFunc,

	blockStore model.BlockStore,
	blockMetadataStore model.BlockMetadataStore,
	childrenStore model.ChildrenStore,
	milestoneStore model.MilestoneStore,
	solidEntryPointStore model.SolidEntryPointStore,
	utxoStore model.UTXOStore,
	consensusStateStore model.ConsensusStateStore,
	unreferencedBlockStore model.UnreferencedBlockStore) model.PruningManager {

	return &pruningManager{
		databaseContext:     databaseContext,
		params:              params,
		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		onPruned:            onPruned,

		blockStore:             blockStore,
		blockMetadataStore:     blockMetadataStore,
		childrenStore:          childrenStore,
		milestoneStore:         milestoneStore,
		solidEntryPointStore:   solidEntryPointStore,
		utxoStore:              utxoStore,
		consensusStateStore:    consensusStateStore,
		unreferencedBlockStore: unreferencedBlockStore,
	}
}

// Prune deletes everything confirmed by the milestones above the current
// pruning index up to and including targetIndex, one milestone at a time.
// It must not run concurrently with propagation or white-flag runs.
func (pm *pruningManager) Prune(ctx context.Context, targetIndex externalapi.MilestoneIndex) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "pruningManager.Prune")
	defer onEnd()

	readStagingArea := model.NewStagingArea()
	pruningIndex, err := pm.consensusStateStore.PruningIndex(pm.databaseContext, readStagingArea)
	if err != nil {
		return err
	}
	lsmi, err := pm.consensusStateStore.LatestSolidMilestoneIndex(pm.databaseContext, readStagingArea)
	if err != nil {
		return err
	}

	if targetIndex <= pruningIndex {
		return errors.Wrapf(ruleerrors.ErrPruningTargetAlreadyPruned, "target %d is not above "+
			"the pruning index %d", targetIndex, pruningIndex)
	}
	if lsmi < pm.params.BelowMaxDepth || targetIndex > lsmi-pm.params.BelowMaxDepth {
		return errors.Wrapf(ruleerrors.ErrPruningTargetTooRecent, "target %d is within %d milestones "+
			"of the latest solid milestone %d", targetIndex, pm.params.BelowMaxDepth, lsmi)
	}

	for index := pruningIndex + 1; index <= targetIndex; index++ {
		err := pm.pruneMilestone(ctx, index)
		if err != nil {
			return errors.Wrapf(err, "failed pruning milestone %d", index)
		}
	}
	return nil
}

type prunedBlock struct {
	blockID *externalapi.BlockID
	block   *externalapi.Block
}

func (pm *pruningManager) pruneMilestone(ctx context.Context, index externalapi.MilestoneIndex) error {
	var confirmed, unreferenced []*prunedBlock
	var unreferencedEntries []*externalapi.BlockID

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		confirmed, err = pm.collectConfirmedCone(groupCtx, index)
		return err
	})
	// Blocks that arrived while index-1 was the latest solid milestone
	// are as old as the ones index confirmed.
	arrivalIndex := index - 1
	group.Go(func() error {
		var err error
		unreferenced, unreferencedEntries, err = pm.collectUnreferenced(groupCtx, arrivalIndex)
		return err
	})
	err := group.Wait()
	if err != nil {
		return err
	}

	toDelete := hashset.New()
	for _, pruned := range confirmed {
		toDelete.Add(pruned.blockID)
	}
	for _, pruned := range unreferenced {
		toDelete.Add(pruned.blockID)
	}

	stagingArea := model.NewStagingArea()

	// New solid entry points go live before anything is deleted, so that
	// solidity checks of the blocks above never see a gap.
	newSolidEntryPoints := 0
	for _, pruned := range confirmed {
		hasSurvivingChild, err := pm.hasSurvivingChild(stagingArea, pruned.blockID, toDelete)
		if err != nil {
			return err
		}
		if hasSurvivingChild {
			pm.solidEntryPointStore.Add(stagingArea, pruned.blockID, index)
			newSolidEntryPoints++
		}
	}

	removedSolidEntryPoints := 0
	for blockID, solidEntryPointIndex := range pm.solidEntryPointStore.SolidEntryPoints() {
		if solidEntryPointIndex >= index {
			continue
		}
		blockID := blockID
		hasSurvivingChild, err := pm.hasSurvivingChild(stagingArea, &blockID, toDelete)
		if err != nil {
			return err
		}
		if !hasSurvivingChild {
			pm.solidEntryPointStore.Remove(stagingArea, &blockID)
			removedSolidEntryPoints++
		}
	}

	for _, pruned := range append(confirmed, unreferenced...) {
		pm.blockStore.Delete(stagingArea, pruned.blockID)
		pm.blockMetadataStore.Delete(stagingArea, pruned.blockID)
		for _, parentID := range pruned.block.Parents {
			pm.childrenStore.Delete(stagingArea, parentID, pruned.blockID)
		}
	}
	for _, blockID := range unreferencedEntries {
		pm.unreferencedBlockStore.Delete(stagingArea, arrivalIndex, blockID)
	}

	spentOutpoints, err := pm.utxoStore.SpentAt(pm.databaseContext, index)
	if err != nil {
		return err
	}
	for _, outpoint := range spentOutpoints {
		pm.utxoStore.DeleteSpent(stagingArea, outpoint, index)
	}

	pm.milestoneStore.Delete(stagingArea, index)
	pm.consensusStateStore.StagePruningIndex(stagingArea, index)

	err = staging.CommitAllChangesWithRetry(ctx, pm.databaseContext, stagingArea, staging.RetryPolicy{
		Interval:   pm.params.StorageRetryInterval,
		MaxRetries: pm.params.StorageMaxRetries,
	}, log)
	if err != nil {
		return err
	}

	prunedBlocks := len(confirmed) + len(unreferenced)
	log.Infof("Pruned milestone %d: %d confirmed and %d unreferenced blocks, %d spent outputs, "+
		"%d new and %d removed solid entry points", index, len(confirmed), len(unreferenced),
		len(spentOutpoints), newSolidEntryPoints, removedSolidEntryPoints)
	if pm.onPruned != nil {
		pm.onPruned(index, prunedBlocks)
	}
	return nil
}

// collectConfirmedCone returns the blocks referenced by milestone index
func (pm *pruningManager) collectConfirmedCone(ctx context.Context,
	index externalapi.MilestoneIndex) ([]*prunedBlock, error) {

	stagingArea := model.NewStagingArea()
	milestone, err := pm.milestoneStore.Milestone(pm.databaseContext, stagingArea, index)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrMilestoneNotFound, "milestone %d", index)
	}
	if err != nil {
		return nil, err
	}
	startIDs, err := pm.dagTopologyManager.Parents(stagingArea, milestone.BlockID)
	if err != nil {
		return nil, err
	}

	var cone []*prunedBlock
	err = pm.dagTraversalManager.VisitParentsDepthFirst(ctx, stagingArea, startIDs, &model.TraversalCallbacks{
		Condition: func(_ *externalapi.BlockID, metadata *externalapi.BlockMetadata) (bool, error) {
			referencedIndex, isReferenced := metadata.ReferencedIndex()
			return isReferenced && referencedIndex == index, nil
		},
		OnMatch: func(blockID *externalapi.BlockID, block *externalapi.Block, _ *externalapi.BlockMetadata) error {
			cone = append(cone, &prunedBlock{blockID: blockID, block: block})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return cone, nil
}

// collectUnreferenced returns the blocks that arrived while arrivalIndex
// was the latest solid milestone and are still unreferenced, along with
// every index entry of that arrival index
func (pm *pruningManager) collectUnreferenced(ctx context.Context,
	arrivalIndex externalapi.MilestoneIndex) ([]*prunedBlock, []*externalapi.BlockID, error) {

	stagingArea := model.NewStagingArea()
	blockIDs, err := pm.unreferencedBlockStore.BlockIDs(pm.databaseContext, stagingArea, arrivalIndex)
	if err != nil {
		return nil, nil, err
	}

	var unreferenced []*prunedBlock
	for _, blockID := range blockIDs {
		err := ctx.Err()
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}

		block, presence, err := pm.dagTopologyManager.Lookup(stagingArea, blockID)
		if err != nil {
			return nil, nil, err
		}
		if presence != model.BlockPresent {
			continue
		}
		metadata, err := pm.dagTopologyManager.Metadata(stagingArea, blockID)
		if err != nil {
			return nil, nil, err
		}
		if metadata.IsReferenced() {
			continue
		}
		unreferenced = append(unreferenced, &prunedBlock{blockID: blockID, block: block})
	}
	return unreferenced, blockIDs, nil
}

func (pm *pruningManager) hasSurvivingChild(stagingArea *model.StagingArea, blockID *externalapi.BlockID,
	toDelete hashset.BlockIDSet) (bool, error) {

	children, err := pm.dagTopologyManager.Children(stagingArea, blockID)
	if err != nil {
		return false, err
	}
	for _, childID := range children {
		if !toDelete.Contains(childID) {
			return true, nil
		}
	}
	return false, nil
}

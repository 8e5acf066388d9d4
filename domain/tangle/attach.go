package tangle

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/iotaledger/bee-sub004/util/mstime"
	"github.com/pkg/errors"
)

// AttachBlock validates block in isolation, stores it and propagates
// solidity from it. Milestones that become confirmable on the way are
// confirmed before AttachBlock returns.
//
// Missing ancestors don't fail the call: the block is stored, and the
// missing ids are reported through Events.OnMissingAncestors so that they
// can be requested.
func (t *tangle) AttachBlock(ctx context.Context, block *externalapi.Block) (*externalapi.BlockID, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "tangle.AttachBlock")
	defer onEnd()

	err := validateBlockInIsolation(block)
	if err != nil {
		return nil, err
	}
	blockID := consensushashing.BlockID(block)

	err = t.startAttaching(blockID)
	if err != nil {
		return nil, err
	}
	defer t.doneAttaching(blockID)

	t.windowLock.HighPriorityReadLock()
	defer t.windowLock.HighPriorityReadUnlock()

	stored, newlySolid, propagateErr := t.storeAndPropagate(ctx, blockID, block)
	if !stored {
		return nil, propagateErr
	}

	// Blocks that became solid before a failure are committed, so they
	// are handed on regardless.
	milestoneSolidified, err := t.handleNewlySolid(newlySolid)
	if err != nil {
		return blockID, err
	}
	if propagateErr != nil {
		return blockID, propagateErr
	}

	if milestoneSolidified {
		err = t.confirmMilestones(ctx)
		if err != nil {
			return blockID, err
		}
	}
	return blockID, nil
}

// handleNewlySolid reports newly solid blocks and adds them to the tip
// pool. It returns whether one of them is a milestone.
func (t *tangle) handleNewlySolid(newlySolid []*externalapi.BlockID) (milestoneSolidified bool, err error) {
	for _, solidID := range newlySolid {
		t.events.blockSolid(solidID)
		_, err := t.tipSelector.AddTip(solidID)
		if err != nil {
			return false, err
		}

		metadata, err := t.blockMetadataStore.Get(t.databaseContext, model.NewStagingArea(), solidID)
		if err != nil {
			return false, err
		}
		if _, isMilestone := metadata.MilestoneIndex(); isMilestone {
			milestoneSolidified = true
		}
	}
	return milestoneSolidified, nil
}

// storeAndPropagate stores block and propagates solidity from it, as a
// single step relative to other insertions. Once the block is stored, a
// failed propagation leaves it pending for a later one.
func (t *tangle) storeAndPropagate(ctx context.Context, blockID *externalapi.BlockID,
	block *externalapi.Block) (stored bool, newlySolid []*externalapi.BlockID, err error) {

	t.insertLock.Lock()
	defer t.insertLock.Unlock()

	err = t.storeBlock(ctx, blockID, block)
	if err != nil {
		return false, nil, err
	}
	t.events.blockAttached(blockID)

	newlySolid, err = t.propagateSolidity(ctx, func(stagingArea *model.StagingArea) ([]*externalapi.BlockID, error) {
		return t.solidifier.Propagate(ctx, stagingArea, blockID)
	})
	return true, newlySolid, err
}

func validateBlockInIsolation(block *externalapi.Block) error {
	if len(block.Parents) < externalapi.MinParents || len(block.Parents) > externalapi.MaxParents {
		return errors.Wrapf(ruleerrors.ErrInvalidParentsCount, "block has %d parents, while it "+
			"should have between %d and %d", len(block.Parents), externalapi.MinParents, externalapi.MaxParents)
	}
	for i := 1; i < len(block.Parents); i++ {
		if !block.Parents[i-1].Less(block.Parents[i]) {
			return errors.Wrapf(ruleerrors.ErrParentsNotSorted, "parent %s is not strictly "+
				"greater than parent %s", block.Parents[i], block.Parents[i-1])
		}
	}
	return nil
}

func (t *tangle) startAttaching(blockID *externalapi.BlockID) error {
	t.attachingMutex.Lock()
	defer t.attachingMutex.Unlock()

	if _, ok := t.attaching[*blockID]; ok {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already being attached", blockID)
	}
	t.attaching[*blockID] = struct{}{}
	return nil
}

func (t *tangle) doneAttaching(blockID *externalapi.BlockID) {
	t.attachingMutex.Lock()
	defer t.attachingMutex.Unlock()

	delete(t.attaching, *blockID)
}

// storeBlock commits the block, its placeholder metadata, its children
// edges and its arrival index entry in a single transaction
func (t *tangle) storeBlock(ctx context.Context, blockID *externalapi.BlockID, block *externalapi.Block) error {
	stagingArea := model.NewStagingArea()

	_, presence, err := t.dagTopologyManager.Lookup(stagingArea, blockID)
	if err != nil {
		return err
	}
	if presence != model.BlockMissing {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already known as %s", blockID, presence)
	}

	lsmi, err := t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	metadata := externalapi.NewBlockMetadata(blockID, mstime.Now(), lsmi)
	_, err = t.milestoneManager.RegisterMilestone(stagingArea, blockID, block, metadata)
	if err != nil {
		return err
	}

	t.blockStore.Stage(stagingArea, blockID, block)
	t.blockMetadataStore.Stage(stagingArea, metadata)
	for _, parentID := range block.Parents {
		t.childrenStore.Stage(stagingArea, parentID, blockID)
	}
	t.unreferencedBlockStore.Stage(stagingArea, lsmi, blockID)
	t.pendingSolidificationStore.Stage(stagingArea, blockID)

	err = t.commit(ctx, stagingArea)
	if err != nil {
		return err
	}
	log.Debugf("Attached block %s", blockID)
	return nil
}

// propagateSolidity runs propagate and commits what it staged, including
// what it staged before failing. It returns the committed newly solid
// blocks along with the propagation error, unless that error only
// reports missing ancestors.
func (t *tangle) propagateSolidity(ctx context.Context,
	propagate func(stagingArea *model.StagingArea) ([]*externalapi.BlockID, error)) ([]*externalapi.BlockID, error) {

	stagingArea := model.NewStagingArea()
	newlySolid, propagateErr := propagate(stagingArea)

	err := t.commit(ctx, stagingArea)
	if err != nil {
		return nil, err
	}

	missingIDs, isMissingAncestor := ruleerrors.IsMissingAncestorError(propagateErr)
	if isMissingAncestor {
		log.Debugf("Missing ancestors %v", missingIDs)
		t.events.missingAncestors(missingIDs)
		return newlySolid, nil
	}
	return newlySolid, propagateErr
}

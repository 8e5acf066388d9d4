package tangle

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/tipselection"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/pkg/errors"
)

// GetBlockInfo returns the metadata projection of blockID. Solid entry
// points have no metadata and are reported as not found.
func (t *tangle) GetBlockInfo(blockID *externalapi.BlockID) (*externalapi.BlockInfo, error) {
	stagingArea := model.NewStagingArea()

	block, presence, err := t.dagTopologyManager.Lookup(stagingArea, blockID)
	if err != nil {
		return nil, err
	}
	if presence != model.BlockPresent {
		return nil, errors.Wrapf(ruleerrors.ErrBlockNotFound, "block %s is %s", blockID, presence)
	}
	metadata, err := t.blockMetadataStore.Get(t.databaseContext, stagingArea, blockID)
	if err != nil {
		return nil, err
	}
	snapshot := metadata.Snapshot()

	info := &externalapi.BlockInfo{
		BlockID: blockID,
		Parents: externalapi.CloneBlockIDs(block.Parents),
		IsSolid: snapshot.Flags.Has(externalapi.MetadataFlagSolid),
	}

	if snapshot.Flags.Has(externalapi.MetadataFlagMilestone) {
		milestoneIndex := snapshot.MilestoneIndex
		info.MilestoneIndex = &milestoneIndex
	}

	if snapshot.Flags.Has(externalapi.MetadataFlagReferenced) {
		referencedIndex := snapshot.ReferencedIndex
		inclusionState := snapshot.InclusionState
		info.ReferencedByMilestoneIndex = &referencedIndex
		info.LedgerInclusionState = &inclusionState
		if inclusionState == externalapi.LedgerInclusionStateConflicting {
			conflict := snapshot.Conflict
			info.ConflictReason = &conflict
		}
		return info, nil
	}

	if !info.IsSolid {
		return info, nil
	}

	lsmi, err := t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	shouldPromote, shouldReattach := tipselection.PromoteOrReattach(t.params, lsmi,
		snapshot.OMRSI.Index, snapshot.YMRSI.Index)
	info.ShouldPromote = &shouldPromote
	info.ShouldReattach = &shouldReattach
	return info, nil
}

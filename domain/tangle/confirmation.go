package tangle

import (
	"context"
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/whiteflag"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/pkg/errors"
)

// confirmMilestones confirms milestones in index order for as long as the
// one following the latest solid milestone is known and solid
func (t *tangle) confirmMilestones(ctx context.Context) error {
	t.whiteFlagMutex.Lock()
	defer t.whiteFlagMutex.Unlock()

	for {
		stagingArea := model.NewStagingArea()
		lsmi, err := t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, stagingArea)
		if err != nil {
			return err
		}

		milestone, err := t.milestoneStore.Milestone(t.databaseContext, stagingArea, lsmi+1)
		if database.IsNotFoundError(err) {
			t.autoPrune(lsmi)
			return nil
		}
		if err != nil {
			return err
		}

		metadata, err := t.blockMetadataStore.Get(t.databaseContext, stagingArea, milestone.BlockID)
		if err != nil {
			return err
		}
		if !metadata.IsSolid() {
			return nil
		}

		err = t.confirmMilestone(ctx, milestone)
		if err != nil {
			if errors.As(err, &ruleerrors.RuleError{}) {
				t.events.milestoneInvalid(milestone.Index, err)
			}
			return err
		}
	}
}

// confirmMilestone runs white-flag for milestone and commits the result:
// ledger mutations, the confirmed milestone record, the referenced
// metadata and the new latest solid milestone index
func (t *tangle) confirmMilestone(ctx context.Context, milestone *externalapi.Milestone) error {
	start := time.Now()
	stagingArea := model.NewStagingArea()

	parents, err := t.dagTopologyManager.Parents(stagingArea, milestone.BlockID)
	if err != nil {
		return err
	}

	mutations, err := t.whiteFlagEngine.Run(ctx, stagingArea, milestone, parents)
	if err != nil {
		return err
	}
	err = whiteflag.CheckInclusionMerkleRoot(milestone, mutations)
	if err != nil {
		return err
	}

	commitment, err := t.ledgerCommitment(stagingArea)
	if err != nil {
		return err
	}
	for _, spent := range mutations.NewSpents {
		commitment.RemoveOutput(&externalapi.UnspentOutput{Outpoint: spent.Outpoint, Entry: spent.Entry})
	}
	for _, output := range mutations.NewOutputs {
		commitment.AddOutput(output)
	}
	t.utxoStore.StageMutations(stagingArea, mutations.NewOutputs, mutations.NewSpents)
	t.consensusStateStore.StageLedgerCommitment(stagingArea, commitment.Serialize())

	references, err := t.stageReferences(stagingArea, mutations)
	if err != nil {
		return err
	}

	confirmed := milestone.Clone()
	confirmed.AppliedMerkleRoot = mutations.AppliedMerkleRoot
	confirmed.LedgerCommitment = commitment.Hash()
	confirmed.IsConfirmed = true
	t.milestoneStore.Stage(stagingArea, confirmed)
	t.consensusStateStore.StageLatestSolidMilestoneIndex(stagingArea, milestone.Index)

	err = t.commit(ctx, stagingArea)
	if err != nil {
		return err
	}

	// The live metadata follows the durable state.
	for _, reference := range references {
		reference.metadata.SetReferenced(milestone.Index, milestone.Timestamp,
			reference.inclusionState, reference.conflict)
	}

	err = t.refreshConeIndexes(ctx, mutations.ReferencedBlocks)
	if err != nil {
		return err
	}
	_, err = t.tipSelector.UpdateScores()
	if err != nil {
		return err
	}

	duration := time.Since(start)
	log.Infof("Confirmed milestone %d in %s: %d referenced, %d included, %d conflicting, "+
		"%d without transaction", milestone.Index, duration, len(mutations.ReferencedBlocks),
		len(mutations.IncludedBlocks), len(mutations.ExcludedWithConflicts),
		len(mutations.ExcludedWithoutTransactions))
	t.events.milestoneConfirmed(mutations, duration)
	return nil
}

type reference struct {
	metadata       *externalapi.BlockMetadata
	inclusionState externalapi.LedgerInclusionState
	conflict       externalapi.ConflictReason
}

// stageReferences stages the referenced state of every block mutations
// references, without touching the live metadata
func (t *tangle) stageReferences(stagingArea *model.StagingArea,
	mutations *externalapi.WhiteFlagMutations) ([]*reference, error) {

	inclusionStates := make(map[externalapi.BlockID]externalapi.LedgerInclusionState, len(mutations.ReferencedBlocks))
	conflicts := make(map[externalapi.BlockID]externalapi.ConflictReason, len(mutations.ExcludedWithConflicts))
	for _, blockID := range mutations.IncludedBlocks {
		inclusionStates[*blockID] = externalapi.LedgerInclusionStateIncluded
	}
	for _, blockID := range mutations.ExcludedWithoutTransactions {
		inclusionStates[*blockID] = externalapi.LedgerInclusionStateNoTransaction
	}
	for _, conflicted := range mutations.ExcludedWithConflicts {
		inclusionStates[*conflicted.BlockID] = externalapi.LedgerInclusionStateConflicting
		conflicts[*conflicted.BlockID] = conflicted.Conflict
	}

	references := make([]*reference, 0, len(mutations.ReferencedBlocks))
	for _, blockID := range mutations.ReferencedBlocks {
		metadata, err := t.blockMetadataStore.Get(t.databaseContext, stagingArea, blockID)
		if err != nil {
			return nil, err
		}
		reference := &reference{
			metadata:       metadata,
			inclusionState: inclusionStates[*blockID],
			conflict:       conflicts[*blockID],
		}
		t.blockMetadataStore.StageSnapshot(stagingArea, metadata.Snapshot().WithReferenced(
			mutations.MilestoneIndex, mutations.MilestoneTimestamp, reference.inclusionState, reference.conflict))
		references = append(references, reference)
	}
	return references, nil
}

// refreshConeIndexes moves the cone indexes of the solid, unreferenced
// blocks above the newly referenced ones forward
func (t *tangle) refreshConeIndexes(ctx context.Context, referenced []*externalapi.BlockID) error {
	stagingArea := model.NewStagingArea()
	updated, refreshErr := t.solidifier.RefreshConeIndexes(ctx, stagingArea, referenced)

	err := t.commit(ctx, stagingArea)
	if err != nil {
		return err
	}
	if refreshErr != nil {
		return refreshErr
	}
	log.Debugf("Refreshed the cone indexes of %d blocks", len(updated))
	return nil
}

// ComputeInclusionMerkleRoot returns the inclusion merkle root a milestone
// following the latest solid milestone must declare for parents
func (t *tangle) ComputeInclusionMerkleRoot(ctx context.Context,
	parents []*externalapi.BlockID) (externalapi.Hash, error) {

	t.windowLock.HighPriorityReadLock()
	defer t.windowLock.HighPriorityReadUnlock()

	t.whiteFlagMutex.Lock()
	defer t.whiteFlagMutex.Unlock()

	stagingArea := model.NewStagingArea()
	lsmi, err := t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, stagingArea)
	if err != nil {
		return externalapi.Hash{}, err
	}
	mutations, err := t.whiteFlagEngine.Run(ctx, stagingArea, &externalapi.Milestone{Index: lsmi + 1}, parents)
	if err != nil {
		return externalapi.Hash{}, err
	}
	return mutations.AppliedMerkleRoot, nil
}

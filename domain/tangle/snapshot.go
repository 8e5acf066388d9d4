package tangle

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/ledgercommitment"
	"github.com/pkg/errors"
)

// initialize stages the state of a fresh tangle: the root solid entry
// point at index 0 and an empty ledger. It does nothing if the database
// already holds a tangle.
func (t *tangle) initialize() error {
	stagingArea := model.NewStagingArea()
	isInitialized, err := t.consensusStateStore.IsInitialized(t.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if isInitialized {
		return nil
	}

	t.solidEntryPointStore.Add(stagingArea, t.params.RootSolidEntryPoint, 0)
	t.consensusStateStore.StageLatestSolidMilestoneIndex(stagingArea, 0)
	t.consensusStateStore.StagePruningIndex(stagingArea, 0)
	t.consensusStateStore.StageLedgerCommitment(stagingArea, ledgercommitment.New().Serialize())

	log.Infof("Initializing a fresh %s tangle", t.params.Name)
	return t.commit(context.Background(), stagingArea)
}

// InitializeFromSnapshot replaces the state of a tangle that holds no
// blocks with snapshot. Afterwards the snapshot index is both the latest
// solid milestone index and the pruning index.
func (t *tangle) InitializeFromSnapshot(snapshot *externalapi.Snapshot) error {
	t.windowLock.LowPriorityLock()
	defer t.windowLock.LowPriorityUnlock()

	stagingArea := model.NewStagingArea()
	lsmi, err := t.consensusStateStore.LatestSolidMilestoneIndex(t.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	blockCount := t.blockStore.Count(stagingArea)
	if lsmi != 0 || blockCount != 0 {
		return errors.Wrapf(ruleerrors.ErrSnapshotOnInitializedTangle, "the tangle holds %d blocks "+
			"and confirmed up to milestone %d", blockCount, lsmi)
	}
	if len(snapshot.SolidEntryPoints) == 0 {
		return errors.New("a snapshot must contain at least one solid entry point")
	}

	for blockID := range t.solidEntryPointStore.SolidEntryPoints() {
		blockID := blockID
		t.solidEntryPointStore.Remove(stagingArea, &blockID)
	}
	for _, solidEntryPoint := range snapshot.SolidEntryPoints {
		t.solidEntryPointStore.Add(stagingArea, solidEntryPoint.BlockID, solidEntryPoint.Index)
	}

	commitment := ledgercommitment.New()
	for _, output := range snapshot.UnspentOutputs {
		commitment.AddOutput(output)
	}
	t.utxoStore.StageMutations(stagingArea, snapshot.UnspentOutputs, nil)
	t.consensusStateStore.StageLedgerCommitment(stagingArea, commitment.Serialize())
	t.consensusStateStore.StageLatestSolidMilestoneIndex(stagingArea, snapshot.Index)
	t.consensusStateStore.StagePruningIndex(stagingArea, snapshot.Index)

	err = t.commit(context.Background(), stagingArea)
	if err != nil {
		return err
	}
	log.Infof("Loaded snapshot at milestone %d: %d solid entry points, %d unspent outputs",
		snapshot.Index, len(snapshot.SolidEntryPoints), len(snapshot.UnspentOutputs))
	return nil
}

package blockmetadatastore

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
	"github.com/iotaledger/bee-sub004/util/mstime"
)

func TestBlockMetadataStoreKeepsOneLiveEntry(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestBlockMetadataStoreKeepsOneLiveEntry", func(t *testing.T, dbManager model.DBManager) {
		store := New()
		blockID := testutils.BlockIDFromByte(7)

		stagingArea := model.NewStagingArea()
		metadata := externalapi.NewBlockMetadata(blockID, mstime.Now(), 3)
		store.Stage(stagingArea, metadata)
		err := staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		got, err := store.Get(dbManager, model.NewStagingArea(), blockID)
		if err != nil {
			t.Fatalf("Get: %s", err)
		}
		if got != metadata {
			t.Fatalf("Get returned a different instance than the committed one")
		}

		// A fresh store loads the persisted state from the database.
		reloadedStore := New()
		reloaded, err := reloadedStore.Get(dbManager, model.NewStagingArea(), blockID)
		if err != nil {
			t.Fatalf("Get: %s", err)
		}
		again, err := reloadedStore.Get(dbManager, model.NewStagingArea(), blockID)
		if err != nil {
			t.Fatalf("Get: %s", err)
		}
		if reloaded != again {
			t.Fatalf("loading twice created two live entries")
		}
		if reloaded.ArrivalMilestoneIndex() != 3 {
			t.Fatalf("unexpected arrival index %d", reloaded.ArrivalMilestoneIndex())
		}
	})
}

func TestBlockMetadataStoreSnapshotAndDelete(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestBlockMetadataStoreSnapshotAndDelete", func(t *testing.T, dbManager model.DBManager) {
		store := New()
		blockID := testutils.BlockIDFromByte(1)
		cone := &externalapi.ConeIndex{Index: 2, RootID: blockID}

		stagingArea := model.NewStagingArea()
		metadata := externalapi.NewBlockMetadata(blockID, mstime.Now(), 1)
		metadata.SetSolid(cone, cone, mstime.Now())
		store.Stage(stagingArea, metadata)
		err := staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		stagingArea = model.NewStagingArea()
		store.StageSnapshot(stagingArea, metadata.Snapshot().WithReferenced(2, mstime.Now(),
			externalapi.LedgerInclusionStateNoTransaction, externalapi.ConflictNone))
		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}
		if metadata.IsReferenced() {
			t.Fatalf("staging a snapshot changed the live entry")
		}

		persisted, err := New().Get(dbManager, model.NewStagingArea(), blockID)
		if err != nil {
			t.Fatalf("Get: %s", err)
		}
		if index, ok := persisted.ReferencedIndex(); !ok || index != 2 {
			t.Fatalf("the snapshot was not persisted")
		}

		stagingArea = model.NewStagingArea()
		store.Delete(stagingArea, blockID)
		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}
		_, err = store.Get(dbManager, model.NewStagingArea(), blockID)
		if !database.IsNotFoundError(err) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
		if store.Len() != 0 {
			t.Fatalf("arena still holds %d entries", store.Len())
		}
	})
}

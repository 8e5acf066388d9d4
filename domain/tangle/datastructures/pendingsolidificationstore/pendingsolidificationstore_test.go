package pendingsolidificationstore

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
)

func TestPendingSolidificationStore(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestPendingSolidificationStore", func(t *testing.T, dbManager model.DBManager) {
		store := New()

		stagingArea := model.NewStagingArea()
		store.Stage(stagingArea, testutils.BlockIDFromByte(1))
		store.Stage(stagingArea, testutils.BlockIDFromByte(2))
		if !store.IsStaged(stagingArea) {
			t.Fatalf("IsStaged is expected to report the staged blocks")
		}
		err := staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		stagingArea = model.NewStagingArea()
		store.Delete(stagingArea, testutils.BlockIDFromByte(1))
		store.Stage(stagingArea, testutils.BlockIDFromByte(3))
		store.Stage(stagingArea, testutils.BlockIDFromByte(2))
		blockIDs, err := store.BlockIDs(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("BlockIDs: %s", err)
		}
		expected := hashset.NewFromSlice(testutils.BlockIDFromByte(2), testutils.BlockIDFromByte(3))
		if len(blockIDs) != len(expected) || !expected.ContainsAllInSlice(blockIDs) {
			t.Fatalf("unexpected staged view %v", blockIDs)
		}

		blockIDs, err = store.BlockIDs(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("BlockIDs: %s", err)
		}
		expected = hashset.NewFromSlice(testutils.BlockIDFromByte(1), testutils.BlockIDFromByte(2))
		if len(blockIDs) != len(expected) || !expected.ContainsAllInSlice(blockIDs) {
			t.Fatalf("uncommitted changes leaked: %v", blockIDs)
		}

		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}
		blockIDs, err = store.BlockIDs(dbManager, model.NewStagingArea())
		if err != nil {
			t.Fatalf("BlockIDs: %s", err)
		}
		expected = hashset.NewFromSlice(testutils.BlockIDFromByte(2), testutils.BlockIDFromByte(3))
		if len(blockIDs) != len(expected) || !expected.ContainsAllInSlice(blockIDs) {
			t.Fatalf("unexpected committed blocks %v", blockIDs)
		}
	})
}

package childrenstore

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
)

func TestChildrenStore(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestChildrenStore", func(t *testing.T, dbManager model.DBManager) {
		store := New()
		parent := testutils.BlockIDFromByte(1)
		otherParent := testutils.BlockIDFromByte(2)

		stagingArea := model.NewStagingArea()
		store.Stage(stagingArea, parent, testutils.BlockIDFromByte(10))
		store.Stage(stagingArea, parent, testutils.BlockIDFromByte(11))
		store.Stage(stagingArea, otherParent, testutils.BlockIDFromByte(12))

		children, err := store.Children(dbManager, stagingArea, parent)
		if err != nil {
			t.Fatalf("Children: %s", err)
		}
		if len(children) != 2 {
			t.Fatalf("expected 2 staged children, got %d", len(children))
		}

		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		stagingArea = model.NewStagingArea()
		store.Delete(stagingArea, parent, testutils.BlockIDFromByte(10))
		store.Stage(stagingArea, parent, testutils.BlockIDFromByte(13))
		children, err = store.Children(dbManager, stagingArea, parent)
		if err != nil {
			t.Fatalf("Children: %s", err)
		}
		expected := hashset.NewFromSlice(testutils.BlockIDFromByte(11), testutils.BlockIDFromByte(13))
		if len(children) != len(expected) || !expected.ContainsAllInSlice(children) {
			t.Fatalf("unexpected children %v", children)
		}

		children, err = store.Children(dbManager, model.NewStagingArea(), otherParent)
		if err != nil {
			t.Fatalf("Children: %s", err)
		}
		if len(children) != 1 || !children[0].Equal(testutils.BlockIDFromByte(12)) {
			t.Fatalf("children of the other parent leaked: %v", children)
		}
	})
}

package tangle_test

import (
	"context"
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func TestAttachAndSolidify(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestAttachAndSolidify")
		defer teardown()

		var attached, solid []*externalapi.BlockID
		tc.Events().OnBlockAttached = func(blockID *externalapi.BlockID) {
			attached = append(attached, blockID)
		}
		tc.Events().OnBlockSolid = func(blockID *externalapi.BlockID) {
			solid = append(solid, blockID)
		}

		root := tc.Params().RootSolidEntryPoint
		if !tc.IsSolidEntryPoint(root) {
			t.Fatalf("the root is expected to be a solid entry point")
		}

		blockA := addBlock(t, tc, []*externalapi.BlockID{root}, nil)
		blockB := addBlock(t, tc, []*externalapi.BlockID{root, blockA},
			&externalapi.TaggedData{Tag: []byte("tag"), Data: []byte("data")})

		if len(attached) != 2 || len(solid) != 2 {
			t.Fatalf("expected 2 attached and 2 solid events, got %d and %d", len(attached), len(solid))
		}
		if !solid[0].Equal(blockA) || !solid[1].Equal(blockB) {
			t.Fatalf("unexpected solid events %v", solid)
		}
		if tc.BlockCount() != 2 {
			t.Fatalf("expected 2 blocks, got %d", tc.BlockCount())
		}

		infoB := blockInfo(t, tc, blockB)
		if !infoB.IsSolid {
			t.Fatalf("block B is expected to be solid")
		}
		if !externalapi.BlockIDsEqual(infoB.Parents, testutils.SortedParents(root, blockA)) {
			t.Fatalf("unexpected parents %v", infoB.Parents)
		}
		if infoB.MilestoneIndex != nil || infoB.ReferencedByMilestoneIndex != nil || infoB.LedgerInclusionState != nil {
			t.Fatalf("an unreferenced block is not expected to carry milestone fields")
		}
		if infoB.ShouldPromote == nil || *infoB.ShouldPromote || infoB.ShouldReattach == nil || *infoB.ShouldReattach {
			t.Fatalf("a fresh solid block should neither be promoted nor reattached")
		}

		block, err := tc.GetBlock(blockB)
		if err != nil {
			t.Fatalf("GetBlock: %+v", err)
		}
		if !consensushashing.BlockID(block).Equal(blockB) {
			t.Fatalf("GetBlock returned a block with a different id")
		}

		tips, err := tc.SelectTips()
		if err != nil {
			t.Fatalf("SelectTips: %+v", err)
		}
		if len(tips) != 2 {
			t.Fatalf("expected both blocks to be tips, got %v", tips)
		}
	})
}

func TestAttachBlockValidation(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestAttachBlockValidation")
		defer teardown()

		root := tc.Params().RootSolidEntryPoint
		tooManyParents := make([]*externalapi.BlockID, externalapi.MaxParents+1)
		for i := range tooManyParents {
			tooManyParents[i] = testutils.BlockIDFromByte(byte(i + 1))
		}

		tests := []struct {
			name        string
			block       *externalapi.Block
			expectedErr error
		}{
			{
				name:        "no parents",
				block:       &externalapi.Block{},
				expectedErr: ruleerrors.ErrInvalidParentsCount,
			},
			{
				name:        "too many parents",
				block:       &externalapi.Block{Parents: tooManyParents},
				expectedErr: ruleerrors.ErrInvalidParentsCount,
			},
			{
				name: "unsorted parents",
				block: &externalapi.Block{Parents: []*externalapi.BlockID{
					testutils.BlockIDFromByte(2), testutils.BlockIDFromByte(1)}},
				expectedErr: ruleerrors.ErrParentsNotSorted,
			},
			{
				name:        "repeated parent",
				block:       &externalapi.Block{Parents: []*externalapi.BlockID{root, root}},
				expectedErr: ruleerrors.ErrParentsNotSorted,
			},
		}
		for _, test := range tests {
			_, err := tc.AttachBlock(context.Background(), test.block)
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("%s: expected %v, got %v", test.name, test.expectedErr, err)
			}
		}
		if tc.BlockCount() != 0 {
			t.Fatalf("invalid blocks must not be stored, got %d blocks", tc.BlockCount())
		}

		block := tc.BuildBlock([]*externalapi.BlockID{root}, nil)
		_, err := tc.AttachBlock(context.Background(), block)
		if err != nil {
			t.Fatalf("AttachBlock: %+v", err)
		}
		_, err = tc.AttachBlock(context.Background(), block.Clone())
		if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
			t.Fatalf("expected ErrDuplicateBlock, got %v", err)
		}
		if tc.BlockCount() != 1 {
			t.Fatalf("expected 1 block, got %d", tc.BlockCount())
		}
	})
}

func TestAttachWithMissingAncestors(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestAttachWithMissingAncestors")
		defer teardown()

		var missing []*externalapi.BlockID
		tc.Events().OnMissingAncestors = func(blockIDs []*externalapi.BlockID) {
			missing = append(missing, blockIDs...)
		}
		var solid []*externalapi.BlockID
		tc.Events().OnBlockSolid = func(blockID *externalapi.BlockID) {
			solid = append(solid, blockID)
		}

		root := tc.Params().RootSolidEntryPoint
		blockA := tc.BuildBlock([]*externalapi.BlockID{root}, nil)
		blockAID := consensushashing.BlockID(blockA)

		blockB := addBlock(t, tc, []*externalapi.BlockID{blockAID}, nil)
		if len(missing) != 1 || !missing[0].Equal(blockAID) {
			t.Fatalf("expected block A to be reported missing, got %v", missing)
		}
		if len(solid) != 0 {
			t.Fatalf("no block is expected to be solid yet, got %v", solid)
		}
		if blockInfo(t, tc, blockB).IsSolid {
			t.Fatalf("block B is not expected to be solid before block A arrives")
		}
		_, err := tc.GetBlock(blockAID)
		if !errors.Is(err, ruleerrors.ErrBlockNotFound) {
			t.Fatalf("expected ErrBlockNotFound, got %v", err)
		}

		_, err = tc.AttachBlock(context.Background(), blockA)
		if err != nil {
			t.Fatalf("AttachBlock: %+v", err)
		}
		if len(solid) != 2 || !solid[0].Equal(blockAID) || !solid[1].Equal(blockB) {
			t.Fatalf("expected A and then B to become solid, got %v", solid)
		}
		if !blockInfo(t, tc, blockB).IsSolid {
			t.Fatalf("block B is expected to be solid")
		}
	})
}

func TestSolidEntryPointIsNotABlock(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestSolidEntryPointIsNotABlock")
		defer teardown()

		root := tc.Params().RootSolidEntryPoint
		_, err := tc.GetBlock(root)
		if !errors.Is(err, ruleerrors.ErrBlockNotFound) {
			t.Fatalf("GetBlock: expected ErrBlockNotFound, got %v", err)
		}
		_, err = tc.GetBlockInfo(root)
		if !errors.Is(err, ruleerrors.ErrBlockNotFound) {
			t.Fatalf("GetBlockInfo: expected ErrBlockNotFound, got %v", err)
		}
	})
}

func TestConcurrentAttach(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestConcurrentAttach")
		defer teardown()

		root := tc.Params().RootSolidEntryPoint
		const blockCount = 32
		blocks := make([]*externalapi.Block, blockCount)
		blocks[0] = tc.BuildBlock([]*externalapi.BlockID{root}, nil)
		for i := 1; i < blockCount; i++ {
			blocks[i] = tc.BuildBlock([]*externalapi.BlockID{consensushashing.BlockID(blocks[i-1])}, nil)
		}

		// Blocks arrive in any order and each one is attached twice
		group, ctx := errgroup.WithContext(context.Background())
		for _, block := range append(blocks, blocks...) {
			block := block
			group.Go(func() error {
				_, err := tc.AttachBlock(ctx, block.Clone())
				if errors.Is(err, ruleerrors.ErrDuplicateBlock) {
					return nil
				}
				return err
			})
		}
		err := group.Wait()
		if err != nil {
			t.Fatalf("AttachBlock: %+v", err)
		}

		if tc.BlockCount() != blockCount {
			t.Fatalf("expected %d blocks, got %d", blockCount, tc.BlockCount())
		}
		for _, block := range blocks {
			if !blockInfo(t, tc, consensushashing.BlockID(block)).IsSolid {
				t.Fatalf("every block of the chain is expected to be solid")
			}
		}
	})
}

func pendingBlocks(t *testing.T, tc tangle.TestTangle) []*externalapi.BlockID {
	pending, err := tc.PendingSolidificationStore().BlockIDs(tc.DatabaseContext(), model.NewStagingArea())
	if err != nil {
		t.Fatalf("BlockIDs: %+v", err)
	}
	return pending
}

// attachParentCancelled attaches a child whose parent is missing, then
// attaches the parent with a context that is cancelled right after the
// parent became solid, before its child was checked
func attachParentCancelled(t *testing.T, tc tangle.TestTangle,
	grandparent *externalapi.BlockID) (parentID, childID *externalapi.BlockID) {

	parent := tc.BuildBlock([]*externalapi.BlockID{grandparent}, nil)
	parentID = consensushashing.BlockID(parent)
	childID = addBlock(t, tc, []*externalapi.BlockID{parentID}, nil)
	if blockInfo(t, tc, childID).IsSolid {
		t.Fatalf("a block over a missing parent must not be solid")
	}

	attachedID, err := tc.AttachBlock(newErrCountdownContext(1), parent)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the attachment to be cancelled, got %v", err)
	}
	if attachedID == nil || !attachedID.Equal(parentID) {
		t.Fatalf("a stored block is expected to be returned along with the cancellation, got %v", attachedID)
	}
	if !blockInfo(t, tc, parentID).IsSolid {
		t.Fatalf("the parent is expected to be solid")
	}
	if blockInfo(t, tc, childID).IsSolid {
		t.Fatalf("the child is expected to be left for a later propagation")
	}
	pending := pendingBlocks(t, tc)
	if len(pending) != 1 || !pending[0].Equal(childID) {
		t.Fatalf("expected only the child to be pending, got %v", pending)
	}
	return parentID, childID
}

func TestCancelledPropagationIsResumed(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestCancelledPropagationIsResumed")
		defer teardown()

		var solid []*externalapi.BlockID
		tc.Events().OnBlockSolid = func(blockID *externalapi.BlockID) {
			solid = append(solid, blockID)
		}

		root := tc.Params().RootSolidEntryPoint
		parentID, childID := attachParentCancelled(t, tc, root)
		if len(solid) != 1 || !solid[0].Equal(parentID) {
			t.Fatalf("the parent is expected to be reported solid, got %v", solid)
		}
		tips, err := tc.SelectTips()
		if err != nil {
			t.Fatalf("SelectTips: %+v", err)
		}
		if len(tips) != 1 || !tips[0].Equal(parentID) {
			t.Fatalf("the parent is expected to be the only tip, got %v", tips)
		}

		// The next attachment picks up where the cancelled one stopped
		siblingID := addBlock(t, tc, []*externalapi.BlockID{parentID}, nil)
		if !blockInfo(t, tc, siblingID).IsSolid || !blockInfo(t, tc, childID).IsSolid {
			t.Fatalf("the sibling and the child are expected to be solid")
		}
		grandchildID := addBlock(t, tc, []*externalapi.BlockID{childID}, nil)
		if !blockInfo(t, tc, grandchildID).IsSolid {
			t.Fatalf("a block over the resumed child is expected to be solid")
		}
		if len(pendingBlocks(t, tc)) != 0 {
			t.Fatalf("nothing is expected to be pending")
		}

		// Without further attachments, Resume does the same
		_, otherChildID := attachParentCancelled(t, tc, grandchildID)
		err = tc.Resume(context.Background())
		if err != nil {
			t.Fatalf("Resume: %+v", err)
		}
		if !blockInfo(t, tc, otherChildID).IsSolid {
			t.Fatalf("the child is expected to be solid after Resume")
		}
		if len(pendingBlocks(t, tc)) != 0 {
			t.Fatalf("nothing is expected to be pending after Resume")
		}
		if !solid[len(solid)-1].Equal(otherChildID) {
			t.Fatalf("the resumed child is expected to be reported solid")
		}
	})
}

func TestConeIndexesSpanParents(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestConeIndexesSpanParents")
		defer teardown()

		root := tc.Params().RootSolidEntryPoint
		old := addBlock(t, tc, []*externalapi.BlockID{root}, nil)
		firstMilestone := addNextMilestone(t, tc, coordinator, []*externalapi.BlockID{old})
		young := addBlock(t, tc, []*externalapi.BlockID{firstMilestone}, nil)
		addNextMilestone(t, tc, coordinator, []*externalapi.BlockID{young})
		assertLSMI(t, tc, 2)

		// old is referenced by milestone 1, young by milestone 2
		child := addBlock(t, tc, []*externalapi.BlockID{old, young}, nil)
		metadata, err := tc.DAGTopologyManager().Metadata(model.NewStagingArea(), child)
		if err != nil {
			t.Fatalf("Metadata: %+v", err)
		}
		omrsi, ymrsi, ok := metadata.ConeIndexes()
		if !ok {
			t.Fatalf("a solid block is expected to have cone indexes")
		}
		if omrsi.Index != 1 || !omrsi.RootID.Equal(old) {
			t.Fatalf("expected the oldest index 1 rooted at %s, got %d at %s", old, omrsi.Index, omrsi.RootID)
		}
		if ymrsi.Index != 2 || !ymrsi.RootID.Equal(young) {
			t.Fatalf("expected the youngest index 2 rooted at %s, got %d at %s", young, ymrsi.Index, ymrsi.RootID)
		}
		if omrsi.Index > ymrsi.Index {
			t.Fatalf("the oldest index %d is above the youngest %d", omrsi.Index, ymrsi.Index)
		}
	})
}

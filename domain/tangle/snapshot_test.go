package tangle_test

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
	"github.com/pkg/errors"
)

func TestInitializeFromSnapshot(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestInitializeFromSnapshot")
		defer teardown()

		err := tc.InitializeFromSnapshot(&externalapi.Snapshot{Index: 10})
		if err == nil {
			t.Fatalf("a snapshot without solid entry points is expected to be rejected")
		}

		entryPoint := testutils.BlockIDFromByte(7)
		err = tc.InitializeFromSnapshot(&externalapi.Snapshot{
			Index:            10,
			SolidEntryPoints: []*externalapi.SolidEntryPoint{{BlockID: entryPoint, Index: 10}},
		})
		if err != nil {
			t.Fatalf("InitializeFromSnapshot: %+v", err)
		}

		assertLSMI(t, tc, 10)
		pruningIndex, err := tc.PruningIndex()
		if err != nil {
			t.Fatalf("PruningIndex: %+v", err)
		}
		if pruningIndex != 10 {
			t.Fatalf("expected pruning index 10, got %d", pruningIndex)
		}
		if !tc.IsSolidEntryPoint(entryPoint) {
			t.Fatalf("the snapshot entry point is expected to be a solid entry point")
		}
		if tc.IsSolidEntryPoint(tc.Params().RootSolidEntryPoint) {
			t.Fatalf("the snapshot is expected to replace the root entry point")
		}

		blockID := addBlock(t, tc, []*externalapi.BlockID{entryPoint}, nil)
		if !blockInfo(t, tc, blockID).IsSolid {
			t.Fatalf("a block over the snapshot entry point is expected to be solid")
		}

		err = tc.InitializeFromSnapshot(&externalapi.Snapshot{
			Index:            20,
			SolidEntryPoints: []*externalapi.SolidEntryPoint{{BlockID: entryPoint, Index: 20}},
		})
		if !errors.Is(err, ruleerrors.ErrSnapshotOnInitializedTangle) {
			t.Fatalf("expected ErrSnapshotOnInitializedTangle, got %v", err)
		}
	})
}

func TestShouldPromoteOrReattach(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		params := coordinator.SimnetParams(1)
		params.YMRSIDelta = 10
		params.OMRSIDelta = 15
		params.BelowMaxDepth = 16
		tc, teardown := newTestTangle(t, factory, params, "TestShouldPromoteOrReattach")
		defer teardown()

		entryPoints := map[externalapi.MilestoneIndex]*externalapi.BlockID{
			480: testutils.BlockIDFromByte(1),
			484: testutils.BlockIDFromByte(2),
			485: testutils.BlockIDFromByte(3),
			490: testutils.BlockIDFromByte(4),
			495: testutils.BlockIDFromByte(5),
		}
		snapshot := &externalapi.Snapshot{Index: 500}
		for index, blockID := range entryPoints {
			snapshot.SolidEntryPoints = append(snapshot.SolidEntryPoints,
				&externalapi.SolidEntryPoint{BlockID: blockID, Index: index})
		}
		err := tc.InitializeFromSnapshot(snapshot)
		if err != nil {
			t.Fatalf("InitializeFromSnapshot: %+v", err)
		}

		tests := []struct {
			name             string
			parents          []externalapi.MilestoneIndex
			expectedPromote  bool
			expectedReattach bool
		}{
			{
				name:             "oldest root below max depth",
				parents:          []externalapi.MilestoneIndex{480, 495},
				expectedReattach: true,
			},
			{
				name:    "within both deltas",
				parents: []externalapi.MilestoneIndex{485, 490},
			},
			{
				name:            "oldest root beyond its delta",
				parents:         []externalapi.MilestoneIndex{484},
				expectedPromote: true,
			},
		}
		for _, test := range tests {
			parents := make([]*externalapi.BlockID, len(test.parents))
			for i, index := range test.parents {
				parents[i] = entryPoints[index]
			}
			info := blockInfo(t, tc, addBlock(t, tc, parents, nil))
			if !info.IsSolid {
				t.Fatalf("%s: the block is expected to be solid", test.name)
			}
			if info.ShouldPromote == nil || *info.ShouldPromote != test.expectedPromote {
				t.Fatalf("%s: expected promote %t, got %v", test.name, test.expectedPromote, info.ShouldPromote)
			}
			if info.ShouldReattach == nil || *info.ShouldReattach != test.expectedReattach {
				t.Fatalf("%s: expected reattach %t, got %v", test.name, test.expectedReattach, info.ShouldReattach)
			}
		}
	})
}

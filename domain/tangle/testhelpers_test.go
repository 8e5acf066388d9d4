package tangle_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
)

func forAllDatabaseTypes(t *testing.T, testFunc func(t *testing.T, factory tangle.Factory)) {
	for _, databaseType := range []string{tangle.DatabaseTypeLevelDB, tangle.DatabaseTypeBadger} {
		databaseType := databaseType
		t.Run(databaseType, func(t *testing.T) {
			factory := tangle.NewFactory()
			factory.SetTestDatabaseType(databaseType)
			testFunc(t, factory)
		})
	}
}

func newTestTangle(t *testing.T, factory tangle.Factory, params *dagconfig.Params,
	testName string) (tangle.TestTangle, func()) {

	tc, teardown, err := factory.NewTestTangle(params, testName)
	if err != nil {
		t.Fatalf("Error setting up tangle: %+v", err)
	}
	return tc, func() { teardown(false) }
}

func addBlock(t *testing.T, tc tangle.TestTangle, parents []*externalapi.BlockID,
	payload externalapi.Payload) *externalapi.BlockID {

	blockID, err := tc.AddBlock(parents, payload)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	return blockID
}

func signWith(t *testing.T, coordinator *testutils.Coordinator, keyIndexes ...int) tangle.MilestoneSigner {
	return func(payload *externalapi.MilestonePayload) {
		coordinator.Sign(t, payload, keyIndexes...)
	}
}

// addNextMilestone adds the milestone following the latest solid one,
// declaring the inclusion merkle root the tangle computes for parents
func addNextMilestone(t *testing.T, tc tangle.TestTangle, coordinator *testutils.Coordinator,
	parents []*externalapi.BlockID) *externalapi.BlockID {

	lsmi, err := tc.LatestSolidMilestoneIndex()
	if err != nil {
		t.Fatalf("LatestSolidMilestoneIndex: %+v", err)
	}
	root, err := tc.ComputeInclusionMerkleRoot(context.Background(), parents)
	if err != nil {
		t.Fatalf("ComputeInclusionMerkleRoot: %+v", err)
	}
	milestoneID, err := tc.AddMilestone(lsmi+1, parents, root, signWith(t, coordinator, 0))
	if err != nil {
		t.Fatalf("AddMilestone %d: %+v", lsmi+1, err)
	}
	return milestoneID
}

// buildMilestoneBlock builds a milestone block signed by the first key
// of coordinator without attaching it
func buildMilestoneBlock(t *testing.T, tc tangle.TestTangle, coordinator *testutils.Coordinator,
	index externalapi.MilestoneIndex, parents []*externalapi.BlockID, root externalapi.Hash) *externalapi.Block {

	block := tc.BuildBlock(parents, nil)
	payload := &externalapi.MilestonePayload{
		Index:               index,
		Timestamp:           int64(1_600_000_000 + index),
		Parents:             externalapi.CloneBlockIDs(block.Parents),
		InclusionMerkleRoot: root,
	}
	coordinator.Sign(t, payload, 0)
	block.Payload = payload
	return block
}

func addressFromByte(b byte) externalapi.Address {
	var address externalapi.Address
	address[0] = b
	return address
}

func transaction(inputs []*externalapi.Outpoint, outputs ...*externalapi.Output) *externalapi.Transaction {
	return &externalapi.Transaction{
		Inputs:  inputs,
		Outputs: outputs,
	}
}

func output(address byte, amount uint64) *externalapi.Output {
	return &externalapi.Output{Address: addressFromByte(address), Amount: amount}
}

func assertLSMI(t *testing.T, tc tangle.TestTangle, expected externalapi.MilestoneIndex) {
	lsmi, err := tc.LatestSolidMilestoneIndex()
	if err != nil {
		t.Fatalf("LatestSolidMilestoneIndex: %+v", err)
	}
	if lsmi != expected {
		t.Fatalf("expected latest solid milestone index %d, got %d", expected, lsmi)
	}
}

func blockInfo(t *testing.T, tc tangle.TestTangle, blockID *externalapi.BlockID) *externalapi.BlockInfo {
	info, err := tc.GetBlockInfo(blockID)
	if err != nil {
		t.Fatalf("GetBlockInfo %s: %+v", blockID, err)
	}
	return info
}

// errCountdownContext lets the first allowed calls to Err pass and reports
// cancellation from then on. Done never fires, so only walks that poll
// Err notice it, which places the cancellation at an exact step.
type errCountdownContext struct {
	context.Context
	allowed int32
}

func newErrCountdownContext(allowed int32) *errCountdownContext {
	return &errCountdownContext{Context: context.Background(), allowed: allowed}
}

func (c *errCountdownContext) Err() error {
	if atomic.AddInt32(&c.allowed, -1) < 0 {
		return context.Canceled
	}
	return nil
}

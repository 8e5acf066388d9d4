package tangle_test

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/ledgercommitment"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/merkle"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
	"github.com/pkg/errors"
)

var snapshotTransactionID = externalapi.TransactionID{0xaa}

func snapshotOutput(index uint16, address byte, amount uint64) *externalapi.UnspentOutput {
	return &externalapi.UnspentOutput{
		Outpoint: externalapi.Outpoint{TransactionID: snapshotTransactionID, Index: index},
		Entry: &externalapi.UTXOEntry{
			Output:               output(address, amount),
			MilestoneIndexBooked: 1,
		},
	}
}

// loadLedgerSnapshot bootstraps tc at milestone 1 with two unspent
// outputs worth 100 and 50
func loadLedgerSnapshot(t *testing.T, tc tangle.TestTangle) (first, second *externalapi.UnspentOutput) {
	first = snapshotOutput(0, 1, 100)
	second = snapshotOutput(1, 2, 50)
	err := tc.InitializeFromSnapshot(&externalapi.Snapshot{
		Index: 1,
		SolidEntryPoints: []*externalapi.SolidEntryPoint{
			{BlockID: tc.Params().RootSolidEntryPoint, Index: 1},
		},
		UnspentOutputs: []*externalapi.UnspentOutput{first, second},
	})
	if err != nil {
		t.Fatalf("InitializeFromSnapshot: %+v", err)
	}
	return first, second
}

// ledgerScenario is a chain of five transactions over the snapshot
// ledger, applied in chain order by a milestone over its tip:
//
//	t1 spends the first snapshot output
//	t2 spends it again
//	t3 spends an outpoint that never existed
//	t4 spends the second snapshot output with mismatching sums
//	t5 spends the output t1 created
type ledgerScenario struct {
	t1, t2, t3, t4, t5 *externalapi.BlockID
	t5Output           *externalapi.UnspentOutput
}

func buildLedgerScenario(t *testing.T, tc tangle.TestTangle, first, second *externalapi.UnspentOutput) *ledgerScenario {
	root := tc.Params().RootSolidEntryPoint
	scenario := &ledgerScenario{}

	tx1 := transaction([]*externalapi.Outpoint{&first.Outpoint}, output(3, 100))
	scenario.t1 = addBlock(t, tc, []*externalapi.BlockID{root}, tx1)

	tx2 := transaction([]*externalapi.Outpoint{&first.Outpoint}, output(4, 100))
	scenario.t2 = addBlock(t, tc, []*externalapi.BlockID{scenario.t1}, tx2)

	unknown := &externalapi.Outpoint{TransactionID: externalapi.TransactionID{0xbb}}
	tx3 := transaction([]*externalapi.Outpoint{unknown}, output(5, 10))
	scenario.t3 = addBlock(t, tc, []*externalapi.BlockID{scenario.t2}, tx3)

	tx4 := transaction([]*externalapi.Outpoint{&second.Outpoint}, output(6, 60))
	scenario.t4 = addBlock(t, tc, []*externalapi.BlockID{scenario.t3}, tx4)

	tx1Output := &externalapi.Outpoint{TransactionID: consensushashing.TransactionID(tx1)}
	tx5 := transaction([]*externalapi.Outpoint{tx1Output}, output(7, 100))
	scenario.t5 = addBlock(t, tc, []*externalapi.BlockID{scenario.t4}, tx5)
	scenario.t5Output = &externalapi.UnspentOutput{
		Outpoint: externalapi.Outpoint{TransactionID: consensushashing.TransactionID(tx5)},
		Entry:    &externalapi.UTXOEntry{Output: output(7, 100), MilestoneIndexBooked: 2},
	}
	return scenario
}

func assertInclusion(t *testing.T, tc tangle.TestTangle, blockID *externalapi.BlockID,
	expectedState externalapi.LedgerInclusionState, expectedConflict externalapi.ConflictReason) {

	info := blockInfo(t, tc, blockID)
	if info.LedgerInclusionState == nil || *info.LedgerInclusionState != expectedState {
		t.Fatalf("block %s: expected inclusion state %s, got %v", blockID, expectedState, info.LedgerInclusionState)
	}
	if expectedState != externalapi.LedgerInclusionStateConflicting {
		if info.ConflictReason != nil {
			t.Fatalf("block %s: unexpected conflict %s", blockID, *info.ConflictReason)
		}
		return
	}
	if info.ConflictReason == nil || *info.ConflictReason != expectedConflict {
		t.Fatalf("block %s: expected conflict %s, got %v", blockID, expectedConflict, info.ConflictReason)
	}
}

func TestWhiteFlagLedgerMutations(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestWhiteFlagLedgerMutations")
		defer teardown()

		var confirmed *externalapi.WhiteFlagMutations
		tc.Events().OnMilestoneConfirmed = func(mutations *externalapi.WhiteFlagMutations, _ time.Duration) {
			confirmed = mutations
		}

		first, second := loadLedgerSnapshot(t, tc)
		scenario := buildLedgerScenario(t, tc, first, second)

		root, err := tc.ComputeInclusionMerkleRoot(context.Background(), []*externalapi.BlockID{scenario.t5})
		if err != nil {
			t.Fatalf("ComputeInclusionMerkleRoot: %+v", err)
		}
		if root != merkle.CalculateRoot([]*externalapi.BlockID{scenario.t1, scenario.t5}) {
			t.Fatalf("the inclusion merkle root must commit to the included blocks in application order")
		}

		milestone2 := addNextMilestone(t, tc, coordinator, []*externalapi.BlockID{scenario.t5})
		assertLSMI(t, tc, 2)

		if !externalapi.BlockIDsEqual(confirmed.ReferencedBlocks, []*externalapi.BlockID{
			scenario.t1, scenario.t2, scenario.t3, scenario.t4, scenario.t5}) {
			t.Fatalf("blocks must be applied parents first, got %v", confirmed.ReferencedBlocks)
		}
		if len(confirmed.NewSpents) != 1 || confirmed.NewSpents[0].Outpoint != first.Outpoint {
			t.Fatalf("only the first snapshot output is expected to be spent, got %s", spew.Sdump(confirmed.NewSpents))
		}
		if confirmed.NewSpents[0].MilestoneIndexSpent != 2 {
			t.Fatalf("unexpected spent index %d", confirmed.NewSpents[0].MilestoneIndexSpent)
		}
		if len(confirmed.NewOutputs) != 1 || confirmed.NewOutputs[0].Outpoint != scenario.t5Output.Outpoint {
			t.Fatalf("only the output of t5 is expected to be created, got %s", spew.Sdump(confirmed.NewOutputs))
		}

		assertInclusion(t, tc, scenario.t1, externalapi.LedgerInclusionStateIncluded, externalapi.ConflictNone)
		assertInclusion(t, tc, scenario.t2, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictInputUTXOAlreadySpentInThisMilestone)
		assertInclusion(t, tc, scenario.t3, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictInputUTXONotFound)
		assertInclusion(t, tc, scenario.t4, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictInputOutputSumMismatch)
		assertInclusion(t, tc, scenario.t5, externalapi.LedgerInclusionStateIncluded, externalapi.ConflictNone)

		_, err = tc.GetUnspentOutput(&first.Outpoint)
		if !database.IsNotFoundError(err) {
			t.Fatalf("the first snapshot output is expected to be spent, got %v", err)
		}
		entry, err := tc.GetUnspentOutput(&scenario.t5Output.Outpoint)
		if err != nil {
			t.Fatalf("GetUnspentOutput: %+v", err)
		}
		if entry.MilestoneIndexBooked != 2 || *entry.Output != *scenario.t5Output.Entry.Output {
			t.Fatalf("unexpected entry %s", spew.Sdump(entry))
		}

		expectedCommitment := ledgercommitment.New()
		expectedCommitment.AddOutput(second)
		expectedCommitment.AddOutput(scenario.t5Output)
		commitment, err := tc.LedgerCommitment()
		if err != nil {
			t.Fatalf("LedgerCommitment: %+v", err)
		}
		if commitment != expectedCommitment.Hash() {
			t.Fatalf("the ledger commitment does not match the unspent set")
		}
		milestone, err := tc.GetMilestone(2)
		if err != nil {
			t.Fatalf("GetMilestone: %+v", err)
		}
		if milestone.LedgerCommitment != commitment {
			t.Fatalf("the milestone record is expected to carry the ledger commitment")
		}

		// Spending an output a previous milestone consumed, and malformed
		// transactions
		tx6 := transaction([]*externalapi.Outpoint{&first.Outpoint}, output(8, 100))
		t6 := addBlock(t, tc, []*externalapi.BlockID{milestone2}, tx6)
		tx7 := transaction([]*externalapi.Outpoint{&second.Outpoint, &second.Outpoint}, output(9, 100))
		t7 := addBlock(t, tc, []*externalapi.BlockID{t6}, tx7)
		tx8 := transaction(nil, output(10, 1))
		t8 := addBlock(t, tc, []*externalapi.BlockID{t7}, tx8)
		tx9 := transaction([]*externalapi.Outpoint{&second.Outpoint}, output(11, 0), output(12, 50))
		t9 := addBlock(t, tc, []*externalapi.BlockID{t8}, tx9)

		addNextMilestone(t, tc, coordinator, []*externalapi.BlockID{t9})
		assertLSMI(t, tc, 3)

		assertInclusion(t, tc, milestone2, externalapi.LedgerInclusionStateNoTransaction, externalapi.ConflictNone)
		assertInclusion(t, tc, t6, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictInputUTXOAlreadySpent)
		assertInclusion(t, tc, t7, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictSemanticValidationFailed)
		assertInclusion(t, tc, t8, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictSemanticValidationFailed)
		assertInclusion(t, tc, t9, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictSemanticValidationFailed)

		commitmentAfter, err := tc.LedgerCommitment()
		if err != nil {
			t.Fatalf("LedgerCommitment: %+v", err)
		}
		if commitmentAfter != commitment {
			t.Fatalf("a milestone without included transactions must not change the ledger")
		}
	})
}

func TestWhiteFlagIsDeterministic(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestWhiteFlagIsDeterministic")
		defer teardown()

		first, second := loadLedgerSnapshot(t, tc)
		scenario := buildLedgerScenario(t, tc, first, second)

		parents := testutils.SortedParents(scenario.t5, scenario.t3)
		milestone := &externalapi.Milestone{Index: 2}
		run := func() *externalapi.WhiteFlagMutations {
			mutations, err := tc.WhiteFlagEngine().Run(context.Background(), model.NewStagingArea(), milestone, parents)
			if err != nil {
				t.Fatalf("Run: %+v", err)
			}
			return mutations
		}

		firstRun := run()
		secondRun := run()
		if diff := cmp.Diff(firstRun, secondRun, cmp.AllowUnexported(externalapi.BlockID{})); diff != "" {
			t.Fatalf("white-flag runs over the same cone differ (-first +second):\n%s", diff)
		}
		if len(firstRun.ReferencedBlocks) != 5 {
			t.Fatalf("expected 5 referenced blocks, got %d", len(firstRun.ReferencedBlocks))
		}
	})
}

func TestMilestoneMerkleRootMismatch(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestMilestoneMerkleRootMismatch")
		defer teardown()

		var invalid []externalapi.MilestoneIndex
		tc.Events().OnMilestoneInvalid = func(index externalapi.MilestoneIndex, _ error) {
			invalid = append(invalid, index)
		}

		first, second := loadLedgerSnapshot(t, tc)
		scenario := buildLedgerScenario(t, tc, first, second)

		_, err := tc.AddMilestone(2, []*externalapi.BlockID{scenario.t5}, merkle.CalculateRoot(nil),
			signWith(t, coordinator, 0))
		if !errors.Is(err, ruleerrors.ErrMilestoneMerkleRootMismatch) {
			t.Fatalf("expected ErrMilestoneMerkleRootMismatch, got %v", err)
		}
		if len(invalid) != 1 || invalid[0] != 2 {
			t.Fatalf("expected milestone 2 to be reported invalid, got %v", invalid)
		}
		assertLSMI(t, tc, 1)

		info := blockInfo(t, tc, scenario.t1)
		if info.ReferencedByMilestoneIndex != nil {
			t.Fatalf("nothing may be referenced by a milestone that failed confirmation")
		}
		_, err = tc.GetUnspentOutput(&first.Outpoint)
		if err != nil {
			t.Fatalf("the ledger must be untouched, got %v", err)
		}
	})
}

func TestCancelledConfirmationCommitsNothing(t *testing.T) {
	forAllDatabaseTypes(t, func(t *testing.T, factory tangle.Factory) {
		coordinator := testutils.NewCoordinator(t, 1)
		tc, teardown := newTestTangle(t, factory, coordinator.SimnetParams(1), "TestCancelledConfirmationCommitsNothing")
		defer teardown()

		confirmedCount := 0
		tc.Events().OnMilestoneConfirmed = func(*externalapi.WhiteFlagMutations, time.Duration) {
			confirmedCount++
		}
		var invalid []externalapi.MilestoneIndex
		tc.Events().OnMilestoneInvalid = func(index externalapi.MilestoneIndex, _ error) {
			invalid = append(invalid, index)
		}

		first, second := loadLedgerSnapshot(t, tc)
		scenario := buildLedgerScenario(t, tc, first, second)
		commitmentBefore, err := tc.LedgerCommitment()
		if err != nil {
			t.Fatalf("LedgerCommitment: %+v", err)
		}

		parents := []*externalapi.BlockID{scenario.t5}
		root, err := tc.ComputeInclusionMerkleRoot(context.Background(), parents)
		if err != nil {
			t.Fatalf("ComputeInclusionMerkleRoot: %+v", err)
		}
		milestoneBlock := buildMilestoneBlock(t, tc, coordinator, 2, parents, root)

		// Propagation polls once, the white-flag walk is cancelled at its
		// second step
		milestoneID, err := tc.AttachBlock(newErrCountdownContext(2), milestoneBlock)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected the confirmation to be cancelled, got %v", err)
		}
		if !blockInfo(t, tc, milestoneID).IsSolid {
			t.Fatalf("the milestone block is expected to be solid")
		}
		if len(invalid) != 0 {
			t.Fatalf("a cancelled confirmation must not report the milestone invalid, got %v", invalid)
		}

		assertLSMI(t, tc, 1)
		if confirmedCount != 0 {
			t.Fatalf("no milestone is expected to be confirmed")
		}
		commitment, err := tc.LedgerCommitment()
		if err != nil {
			t.Fatalf("LedgerCommitment: %+v", err)
		}
		if commitment != commitmentBefore {
			t.Fatalf("the ledger commitment must not change")
		}
		_, err = tc.GetUnspentOutput(&first.Outpoint)
		if err != nil {
			t.Fatalf("the first snapshot output must still be unspent, got %v", err)
		}
		_, err = tc.GetUnspentOutput(&scenario.t5Output.Outpoint)
		if !database.IsNotFoundError(err) {
			t.Fatalf("the output of t5 must not be booked yet, got %v", err)
		}
		for _, blockID := range []*externalapi.BlockID{scenario.t1, scenario.t5} {
			if blockInfo(t, tc, blockID).ReferencedByMilestoneIndex != nil {
				t.Fatalf("block %s must not be referenced", blockID)
			}
		}
		milestone, err := tc.GetMilestone(2)
		if err != nil {
			t.Fatalf("GetMilestone: %+v", err)
		}
		if milestone.IsConfirmed {
			t.Fatalf("milestone 2 must not be recorded as confirmed")
		}

		// The confirmation is retried by Resume
		err = tc.Resume(context.Background())
		if err != nil {
			t.Fatalf("Resume: %+v", err)
		}
		assertLSMI(t, tc, 2)
		if confirmedCount != 1 {
			t.Fatalf("expected one confirmation, got %d", confirmedCount)
		}
		assertInclusion(t, tc, scenario.t1, externalapi.LedgerInclusionStateIncluded, externalapi.ConflictNone)
		assertInclusion(t, tc, scenario.t2, externalapi.LedgerInclusionStateConflicting,
			externalapi.ConflictInputUTXOAlreadySpentInThisMilestone)
		_, err = tc.GetUnspentOutput(&first.Outpoint)
		if !database.IsNotFoundError(err) {
			t.Fatalf("the first snapshot output is expected to be spent, got %v", err)
		}
		expectedCommitment := ledgercommitment.New()
		expectedCommitment.AddOutput(second)
		expectedCommitment.AddOutput(scenario.t5Output)
		commitment, err = tc.LedgerCommitment()
		if err != nil {
			t.Fatalf("LedgerCommitment: %+v", err)
		}
		if commitment != expectedCommitment.Hash() {
			t.Fatalf("the ledger commitment does not match the unspent set")
		}
	})
}

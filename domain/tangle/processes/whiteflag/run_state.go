package whiteflag

import (
	"math"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/merkle"
	"github.com/pkg/errors"
)

// runState is the traversal-local view of the ledger during a single
// white-flag run. The store is only read; everything the run creates or
// consumes lives here until the caller commits the mutations.
type runState struct {
	engine      *whiteFlagEngine
	stagingArea *model.StagingArea
	mutations   *externalapi.WhiteFlagMutations

	// createdOutputs holds outputs created by this run and not consumed
	// by it yet. createdOrder remembers their creation order.
	createdOutputs map[externalapi.Outpoint]*externalapi.UTXOEntry
	createdOrder   []externalapi.Outpoint

	// consumedOutputs holds every outpoint this run spent, created here
	// or booked by an earlier milestone.
	consumedOutputs map[externalapi.Outpoint]struct{}
}

func newRunState(engine *whiteFlagEngine, stagingArea *model.StagingArea,
	milestone *externalapi.Milestone) *runState {

	return &runState{
		engine:      engine,
		stagingArea: stagingArea,
		mutations: &externalapi.WhiteFlagMutations{
			MilestoneIndex:     milestone.Index,
			MilestoneBlockID:   milestone.BlockID,
			MilestoneTimestamp: milestone.Timestamp,
		},
		createdOutputs:  make(map[externalapi.Outpoint]*externalapi.UTXOEntry),
		consumedOutputs: make(map[externalapi.Outpoint]struct{}),
	}
}

// spend is an input resolved against the run's ledger view.
type spend struct {
	outpoint         externalapi.Outpoint
	entry            *externalapi.UTXOEntry
	createdInThisRun bool
}

func (rs *runState) apply(blockID *externalapi.BlockID, block *externalapi.Block) error {
	rs.mutations.ReferencedBlocks = append(rs.mutations.ReferencedBlocks, blockID)

	transaction := block.Transaction()
	if transaction == nil {
		rs.mutations.ExcludedWithoutTransactions = append(rs.mutations.ExcludedWithoutTransactions, blockID)
		return nil
	}

	spends, conflict, err := rs.resolveInputs(transaction)
	if err != nil {
		return err
	}
	if conflict == externalapi.ConflictNone {
		conflict = checkSums(spends, transaction)
	}
	if conflict != externalapi.ConflictNone {
		log.Debugf("Block %s conflicts: %s", blockID, conflict)
		rs.mutations.ExcludedWithConflicts = append(rs.mutations.ExcludedWithConflicts,
			&externalapi.ConflictedBlock{BlockID: blockID, Conflict: conflict})
		return nil
	}

	transactionID := consensushashing.TransactionID(transaction)
	for _, spend := range spends {
		rs.consumedOutputs[spend.outpoint] = struct{}{}
		if spend.createdInThisRun {
			delete(rs.createdOutputs, spend.outpoint)
			continue
		}
		rs.mutations.NewSpents = append(rs.mutations.NewSpents, &externalapi.SpentOutput{
			Outpoint:              spend.outpoint,
			Entry:                 spend.entry,
			SpendingTransactionID: transactionID,
			MilestoneIndexSpent:   rs.mutations.MilestoneIndex,
		})
	}
	for i, output := range transaction.Outputs {
		outpoint := externalapi.Outpoint{TransactionID: transactionID, Index: uint16(i)}
		rs.createdOutputs[outpoint] = &externalapi.UTXOEntry{
			Output:               output.Clone(),
			MilestoneIndexBooked: rs.mutations.MilestoneIndex,
		}
		rs.createdOrder = append(rs.createdOrder, outpoint)
	}

	rs.mutations.IncludedBlocks = append(rs.mutations.IncludedBlocks, blockID)
	return nil
}

// resolveInputs looks every input of transaction up, first in the run's
// own view and then in the store. The first input that can't be spent
// decides the conflict.
func (rs *runState) resolveInputs(transaction *externalapi.Transaction) (
	[]*spend, externalapi.ConflictReason, error) {

	if len(transaction.Inputs) == 0 || len(transaction.Outputs) == 0 ||
		len(transaction.Outputs) > math.MaxUint16+1 {
		return nil, externalapi.ConflictSemanticValidationFailed, nil
	}

	seen := make(map[externalapi.Outpoint]struct{}, len(transaction.Inputs))
	spends := make([]*spend, 0, len(transaction.Inputs))
	for _, input := range transaction.Inputs {
		outpoint := *input
		if _, ok := seen[outpoint]; ok {
			return nil, externalapi.ConflictSemanticValidationFailed, nil
		}
		seen[outpoint] = struct{}{}

		if _, ok := rs.consumedOutputs[outpoint]; ok {
			return nil, externalapi.ConflictInputUTXOAlreadySpentInThisMilestone, nil
		}
		if entry, ok := rs.createdOutputs[outpoint]; ok {
			spends = append(spends, &spend{outpoint: outpoint, entry: entry, createdInThisRun: true})
			continue
		}

		entry, err := rs.engine.utxoStore.Get(rs.engine.databaseContext, rs.stagingArea, &outpoint)
		if err == nil {
			spends = append(spends, &spend{outpoint: outpoint, entry: entry})
			continue
		}
		if !database.IsNotFoundError(err) {
			return nil, externalapi.ConflictNone, err
		}

		isSpent, err := rs.engine.utxoStore.IsSpent(rs.engine.databaseContext, rs.stagingArea, &outpoint)
		if err != nil {
			return nil, externalapi.ConflictNone, err
		}
		if isSpent {
			return nil, externalapi.ConflictInputUTXOAlreadySpent, nil
		}
		return nil, externalapi.ConflictInputUTXONotFound, nil
	}
	return spends, externalapi.ConflictNone, nil
}

func checkSums(spends []*spend, transaction *externalapi.Transaction) externalapi.ConflictReason {
	var inputSum, outputSum uint64
	for _, spend := range spends {
		if inputSum > math.MaxUint64-spend.entry.Output.Amount {
			return externalapi.ConflictSemanticValidationFailed
		}
		inputSum += spend.entry.Output.Amount
	}
	for _, output := range transaction.Outputs {
		if output.Amount == 0 || outputSum > math.MaxUint64-output.Amount {
			return externalapi.ConflictSemanticValidationFailed
		}
		outputSum += output.Amount
	}
	if inputSum != outputSum {
		return externalapi.ConflictInputOutputSumMismatch
	}
	return externalapi.ConflictNone
}

// finish checks the bookkeeping of the run and seals its mutations.
func (rs *runState) finish() (*externalapi.WhiteFlagMutations, error) {
	mutations := rs.mutations

	referenced := len(mutations.ReferencedBlocks)
	included := len(mutations.IncludedBlocks)
	conflicting := len(mutations.ExcludedWithConflicts)
	noTransaction := len(mutations.ExcludedWithoutTransactions)
	if referenced != included+conflicting+noTransaction {
		return nil, ruleerrors.NewErrInvalidCounts(referenced, included, conflicting, noTransaction)
	}

	for _, outpoint := range rs.createdOrder {
		entry, ok := rs.createdOutputs[outpoint]
		if !ok {
			continue
		}
		mutations.NewOutputs = append(mutations.NewOutputs, &externalapi.UnspentOutput{
			Outpoint: outpoint,
			Entry:    entry,
		})
	}

	mutations.AppliedMerkleRoot = merkle.CalculateRoot(mutations.IncludedBlocks)
	log.Debugf("Milestone %d references %d blocks: %d included, %d conflicting, %d without transaction",
		mutations.MilestoneIndex, referenced, included, conflicting, noTransaction)

	return mutations, nil
}

// CheckInclusionMerkleRoot returns an error if the root computed by a run
// differs from the one its milestone declared.
func CheckInclusionMerkleRoot(milestone *externalapi.Milestone, mutations *externalapi.WhiteFlagMutations) error {
	if milestone.InclusionMerkleRoot != mutations.AppliedMerkleRoot {
		return errors.Wrapf(ruleerrors.ErrMilestoneMerkleRootMismatch, "milestone %d declares inclusion "+
			"merkle root %s, while the applied root is %s", milestone.Index,
			milestone.InclusionMerkleRoot, mutations.AppliedMerkleRoot)
	}
	return nil
}

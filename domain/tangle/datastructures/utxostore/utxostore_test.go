package utxostore

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
)

func TestUTXOStoreMutations(t *testing.T) {
	testutils.ForAllDatabaseTypes(t, "TestUTXOStoreMutations", func(t *testing.T, dbManager model.DBManager) {
		store := New()

		genesisOutput := &externalapi.UnspentOutput{
			Entry: &externalapi.UTXOEntry{Output: &externalapi.Output{Amount: 100}},
		}
		genesisOutput.Outpoint.TransactionID[0] = 1

		stagingArea := model.NewStagingArea()
		store.StageMutations(stagingArea, []*externalapi.UnspentOutput{genesisOutput}, nil)
		err := staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		spendingOutput := &externalapi.UnspentOutput{
			Entry: &externalapi.UTXOEntry{Output: &externalapi.Output{Amount: 100}, MilestoneIndexBooked: 4},
		}
		spendingOutput.Outpoint.TransactionID[0] = 2
		spent := &externalapi.SpentOutput{
			Outpoint:              genesisOutput.Outpoint,
			Entry:                 genesisOutput.Entry,
			SpendingTransactionID: spendingOutput.Outpoint.TransactionID,
			MilestoneIndexSpent:   4,
		}

		stagingArea = model.NewStagingArea()
		store.StageMutations(stagingArea, []*externalapi.UnspentOutput{spendingOutput}, []*externalapi.SpentOutput{spent})
		has, err := store.Has(dbManager, stagingArea, &genesisOutput.Outpoint)
		if err != nil {
			t.Fatalf("Has: %s", err)
		}
		if has {
			t.Fatalf("staged spend is not visible")
		}
		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}

		_, err = store.Get(dbManager, model.NewStagingArea(), &genesisOutput.Outpoint)
		if !database.IsNotFoundError(err) {
			t.Fatalf("expected the spent output to be gone, got %v", err)
		}
		isSpent, err := store.IsSpent(dbManager, model.NewStagingArea(), &genesisOutput.Outpoint)
		if err != nil || !isSpent {
			t.Fatalf("expected a spent record, got %t, %v", isSpent, err)
		}
		spentAt, err := store.SpentAt(dbManager, 4)
		if err != nil {
			t.Fatalf("SpentAt: %s", err)
		}
		if len(spentAt) != 1 || *spentAt[0] != genesisOutput.Outpoint {
			t.Fatalf("unexpected outpoints spent at 4: %v", spentAt)
		}
		unspent, err := store.UnspentOutputs(dbManager)
		if err != nil {
			t.Fatalf("UnspentOutputs: %s", err)
		}
		if len(unspent) != 1 || unspent[0].Outpoint != spendingOutput.Outpoint {
			t.Fatalf("unexpected unspent outputs: %v", unspent)
		}

		stagingArea = model.NewStagingArea()
		store.DeleteSpent(stagingArea, &genesisOutput.Outpoint, 4)
		err = staging.CommitAllChanges(dbManager, stagingArea)
		if err != nil {
			t.Fatalf("CommitAllChanges: %s", err)
		}
		spentAt, err = store.SpentAt(dbManager, 4)
		if err != nil {
			t.Fatalf("SpentAt: %s", err)
		}
		if len(spentAt) != 0 {
			t.Fatalf("spent record survived its deletion")
		}
	})
}

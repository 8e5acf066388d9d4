package utxostore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

type spentIndexEntry struct {
	outpoint externalapi.Outpoint
	index    externalapi.MilestoneIndex
}

type utxoStagingShard struct {
	toAdd          map[externalapi.Outpoint]*externalapi.UTXOEntry
	toRemove       map[externalapi.Outpoint]struct{}
	toSpend        map[externalapi.Outpoint]*externalapi.SpentOutput
	toDeleteSpents map[spentIndexEntry]struct{}
}

func (us *utxoStore) stagingShard(stagingArea *model.StagingArea) *utxoStagingShard {
	return stagingArea.GetOrCreateShard("UTXOStore", func() model.StagingShard {
		return &utxoStagingShard{
			toAdd:          make(map[externalapi.Outpoint]*externalapi.UTXOEntry),
			toRemove:       make(map[externalapi.Outpoint]struct{}),
			toSpend:        make(map[externalapi.Outpoint]*externalapi.SpentOutput),
			toDeleteSpents: make(map[spentIndexEntry]struct{}),
		}
	}).(*utxoStagingShard)
}

func (uss *utxoStagingShard) Commit(dbTx model.DBTransaction) error {
	for outpoint, entry := range uss.toAdd {
		err := dbTx.Put(unspentKey(&outpoint), serialization.SerializeUTXOEntry(entry))
		if err != nil {
			return err
		}
	}

	for outpoint := range uss.toRemove {
		err := dbTx.Delete(unspentKey(&outpoint))
		if err != nil {
			return err
		}
	}

	for outpoint, spent := range uss.toSpend {
		err := dbTx.Put(spentKey(&outpoint), serialization.SerializeSpentOutput(spent))
		if err != nil {
			return err
		}
		err = dbTx.Put(spentIndexKey(spent.MilestoneIndexSpent, &outpoint), []byte{})
		if err != nil {
			return err
		}
	}

	for entry := range uss.toDeleteSpents {
		err := dbTx.Delete(spentKey(&entry.outpoint))
		if err != nil {
			return err
		}
		err = dbTx.Delete(spentIndexKey(entry.index, &entry.outpoint))
		if err != nil {
			return err
		}
	}

	return nil
}

func (uss *utxoStagingShard) isStaged() bool {
	return len(uss.toAdd) != 0 || len(uss.toRemove) != 0 || len(uss.toSpend) != 0 || len(uss.toDeleteSpents) != 0
}

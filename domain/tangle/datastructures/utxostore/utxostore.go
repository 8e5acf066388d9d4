package utxostore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var unspentBucket = database.MakeBucket([]byte("utxo-unspent"))
var spentBucket = database.MakeBucket([]byte("utxo-spent"))
var spentByIndexBucket = database.MakeBucket([]byte("utxo-spent-by-index"))

type utxoStore struct{}

// New instantiates a new UTXOStore
func New() model.UTXOStore {
	return &utxoStore{}
}

// StageMutations stages the ledger changes of a confirmed milestone:
// new unspent outputs, and outputs moving from unspent to spent.
func (us *utxoStore) StageMutations(stagingArea *model.StagingArea,
	newOutputs []*externalapi.UnspentOutput, newSpents []*externalapi.SpentOutput) {

	stagingShard := us.stagingShard(stagingArea)

	for _, output := range newOutputs {
		delete(stagingShard.toRemove, output.Outpoint)
		stagingShard.toAdd[output.Outpoint] = output.Entry
	}
	for _, spent := range newSpents {
		if _, ok := stagingShard.toAdd[spent.Outpoint]; ok {
			delete(stagingShard.toAdd, spent.Outpoint)
		} else {
			stagingShard.toRemove[spent.Outpoint] = struct{}{}
		}
		stagingShard.toSpend[spent.Outpoint] = spent
	}
}

func (us *utxoStore) IsStaged(stagingArea *model.StagingArea) bool {
	return us.stagingShard(stagingArea).isStaged()
}

// Get returns the unspent entry of outpoint, or database.ErrNotFound if
// the output is not unspent
func (us *utxoStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.Outpoint) (*externalapi.UTXOEntry, error) {

	stagingShard := us.stagingShard(stagingArea)

	if _, ok := stagingShard.toRemove[*outpoint]; ok {
		return nil, database.ErrNotFound
	}
	if entry, ok := stagingShard.toAdd[*outpoint]; ok {
		return entry, nil
	}

	entryBytes, err := dbContext.Get(unspentKey(outpoint))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeUTXOEntry(entryBytes)
}

// Has returns whether outpoint is unspent
func (us *utxoStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.Outpoint) (bool, error) {

	stagingShard := us.stagingShard(stagingArea)

	if _, ok := stagingShard.toRemove[*outpoint]; ok {
		return false, nil
	}
	if _, ok := stagingShard.toAdd[*outpoint]; ok {
		return true, nil
	}
	return dbContext.Has(unspentKey(outpoint))
}

// IsSpent returns whether a spent record of outpoint exists
func (us *utxoStore) IsSpent(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.Outpoint) (bool, error) {

	stagingShard := us.stagingShard(stagingArea)

	if _, ok := stagingShard.toSpend[*outpoint]; ok {
		return true, nil
	}
	return dbContext.Has(spentKey(outpoint))
}

// Spent returns the spent record of outpoint
func (us *utxoStore) Spent(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.Outpoint) (*externalapi.SpentOutput, error) {

	stagingShard := us.stagingShard(stagingArea)

	if spent, ok := stagingShard.toSpend[*outpoint]; ok {
		return spent, nil
	}

	spentBytes, err := dbContext.Get(spentKey(outpoint))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeSpentOutput(outpoint, spentBytes)
}

// SpentAt returns the outpoints spent by the milestone of the given index
func (us *utxoStore) SpentAt(dbContext model.DBReader, index externalapi.MilestoneIndex) ([]*externalapi.Outpoint, error) {
	cursor, err := dbContext.Cursor(spentByIndexBucket.Bucket(serialization.MilestoneIndexToKey(index)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var outpoints []*externalapi.Outpoint
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		outpoint, err := serialization.KeyToOutpoint(key.Suffix())
		if err != nil {
			return nil, err
		}
		outpoints = append(outpoints, outpoint)
	}
	return outpoints, nil
}

// DeleteSpent stages the removal of the spent record of outpoint
func (us *utxoStore) DeleteSpent(stagingArea *model.StagingArea, outpoint *externalapi.Outpoint,
	index externalapi.MilestoneIndex) {

	stagingShard := us.stagingShard(stagingArea)
	delete(stagingShard.toSpend, *outpoint)
	stagingShard.toDeleteSpents[spentIndexEntry{outpoint: *outpoint, index: index}] = struct{}{}
}

// UnspentOutputs returns every committed unspent output
func (us *utxoStore) UnspentOutputs(dbContext model.DBReader) ([]*externalapi.UnspentOutput, error) {
	cursor, err := dbContext.Cursor(unspentBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var outputs []*externalapi.UnspentOutput
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		outpoint, err := serialization.KeyToOutpoint(key.Suffix())
		if err != nil {
			return nil, err
		}
		entryBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		entry, err := serialization.DeserializeUTXOEntry(entryBytes)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, &externalapi.UnspentOutput{Outpoint: *outpoint, Entry: entry})
	}
	return outputs, nil
}

func unspentKey(outpoint *externalapi.Outpoint) model.DBKey {
	return unspentBucket.Key(serialization.OutpointToKey(outpoint))
}

func spentKey(outpoint *externalapi.Outpoint) model.DBKey {
	return spentBucket.Key(serialization.OutpointToKey(outpoint))
}

func spentIndexKey(index externalapi.MilestoneIndex, outpoint *externalapi.Outpoint) model.DBKey {
	return spentByIndexBucket.Bucket(serialization.MilestoneIndexToKey(index)).Key(serialization.OutpointToKey(outpoint))
}

package unreferencedblockstore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var bucket = database.MakeBucket([]byte("unreferenced-blocks"))

type entry struct {
	index   externalapi.MilestoneIndex
	blockID externalapi.BlockID
}

type unreferencedBlockStagingShard struct {
	toAdd    map[entry]struct{}
	toDelete map[entry]struct{}
}

func (ubs *unreferencedBlockStore) stagingShard(stagingArea *model.StagingArea) *unreferencedBlockStagingShard {
	return stagingArea.GetOrCreateShard("UnreferencedBlockStore", func() model.StagingShard {
		return &unreferencedBlockStagingShard{
			toAdd:    make(map[entry]struct{}),
			toDelete: make(map[entry]struct{}),
		}
	}).(*unreferencedBlockStagingShard)
}

func (ubss *unreferencedBlockStagingShard) Commit(dbTx model.DBTransaction) error {
	for e := range ubss.toAdd {
		err := dbTx.Put(entryKey(e.index, &e.blockID), []byte{})
		if err != nil {
			return err
		}
	}
	for e := range ubss.toDelete {
		err := dbTx.Delete(entryKey(e.index, &e.blockID))
		if err != nil {
			return err
		}
	}
	return nil
}

// unreferencedBlockStore indexes blocks by the latest solid milestone
// index at their arrival until a milestone references them. Pruning uses
// it to find blocks that no milestone cone will ever reach.
type unreferencedBlockStore struct{}

// New instantiates a new UnreferencedBlockStore
func New() model.UnreferencedBlockStore {
	return &unreferencedBlockStore{}
}

func (ubs *unreferencedBlockStore) Stage(stagingArea *model.StagingArea, arrivalIndex externalapi.MilestoneIndex,
	blockID *externalapi.BlockID) {

	stagingShard := ubs.stagingShard(stagingArea)
	e := entry{index: arrivalIndex, blockID: *blockID}
	delete(stagingShard.toDelete, e)
	stagingShard.toAdd[e] = struct{}{}
}

func (ubs *unreferencedBlockStore) Delete(stagingArea *model.StagingArea, arrivalIndex externalapi.MilestoneIndex,
	blockID *externalapi.BlockID) {

	stagingShard := ubs.stagingShard(stagingArea)
	e := entry{index: arrivalIndex, blockID: *blockID}
	delete(stagingShard.toAdd, e)
	stagingShard.toDelete[e] = struct{}{}
}

func (ubs *unreferencedBlockStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := ubs.stagingShard(stagingArea)
	return len(stagingShard.toAdd) != 0 || len(stagingShard.toDelete) != 0
}

// BlockIDs returns the blocks that arrived while arrivalIndex was the
// latest solid milestone index and are still unreferenced
func (ubs *unreferencedBlockStore) BlockIDs(dbContext model.DBReader, stagingArea *model.StagingArea,
	arrivalIndex externalapi.MilestoneIndex) ([]*externalapi.BlockID, error) {

	stagingShard := ubs.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(bucket.Bucket(serialization.MilestoneIndexToKey(arrivalIndex)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var blockIDs []*externalapi.BlockID
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		blockID, err := externalapi.NewBlockIDFromByteSlice(key.Suffix())
		if err != nil {
			return nil, err
		}
		e := entry{index: arrivalIndex, blockID: *blockID}
		if _, ok := stagingShard.toDelete[e]; ok {
			continue
		}
		if _, ok := stagingShard.toAdd[e]; ok {
			continue
		}
		blockIDs = append(blockIDs, blockID)
	}

	for e := range stagingShard.toAdd {
		if e.index != arrivalIndex {
			continue
		}
		blockID := e.blockID
		blockIDs = append(blockIDs, &blockID)
	}
	return blockIDs, nil
}

func entryKey(index externalapi.MilestoneIndex, blockID *externalapi.BlockID) model.DBKey {
	return bucket.Bucket(serialization.MilestoneIndexToKey(index)).Key(blockID.ByteSlice())
}

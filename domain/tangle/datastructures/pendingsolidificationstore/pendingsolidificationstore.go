package pendingsolidificationstore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var bucket = database.MakeBucket([]byte("pending-solidification"))

type pendingSolidificationStagingShard struct {
	toAdd    map[externalapi.BlockID]struct{}
	toDelete map[externalapi.BlockID]struct{}
}

func (pss *pendingSolidificationStore) stagingShard(stagingArea *model.StagingArea) *pendingSolidificationStagingShard {
	return stagingArea.GetOrCreateShard("PendingSolidificationStore", func() model.StagingShard {
		return &pendingSolidificationStagingShard{
			toAdd:    make(map[externalapi.BlockID]struct{}),
			toDelete: make(map[externalapi.BlockID]struct{}),
		}
	}).(*pendingSolidificationStagingShard)
}

func (psss *pendingSolidificationStagingShard) Commit(dbTx model.DBTransaction) error {
	for blockID := range psss.toAdd {
		blockID := blockID
		err := dbTx.Put(bucket.Key(blockID.ByteSlice()), []byte{})
		if err != nil {
			return err
		}
	}
	for blockID := range psss.toDelete {
		blockID := blockID
		err := dbTx.Delete(bucket.Key(blockID.ByteSlice()))
		if err != nil {
			return err
		}
	}
	return nil
}

// pendingSolidificationStore keeps the solidification worklist durable.
// A block enters it in the transaction that stores the block and leaves
// it once propagation has checked it.
type pendingSolidificationStore struct{}

// New instantiates a new PendingSolidificationStore
func New() model.PendingSolidificationStore {
	return &pendingSolidificationStore{}
}

func (pss *pendingSolidificationStore) Stage(stagingArea *model.StagingArea, blockID *externalapi.BlockID) {
	stagingShard := pss.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *blockID)
	stagingShard.toAdd[*blockID] = struct{}{}
}

func (pss *pendingSolidificationStore) Delete(stagingArea *model.StagingArea, blockID *externalapi.BlockID) {
	stagingShard := pss.stagingShard(stagingArea)
	delete(stagingShard.toAdd, *blockID)
	stagingShard.toDelete[*blockID] = struct{}{}
}

func (pss *pendingSolidificationStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := pss.stagingShard(stagingArea)
	return len(stagingShard.toAdd) != 0 || len(stagingShard.toDelete) != 0
}

// BlockIDs returns the pending blocks in key order, followed by the ones
// staged in stagingArea
func (pss *pendingSolidificationStore) BlockIDs(dbContext model.DBReader,
	stagingArea *model.StagingArea) ([]*externalapi.BlockID, error) {

	stagingShard := pss.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(bucket)
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
		if _, ok := stagingShard.toDelete[*blockID]; ok {
			continue
		}
		if _, ok := stagingShard.toAdd[*blockID]; ok {
			continue
		}
		blockIDs = append(blockIDs, blockID)
	}

	for blockID := range stagingShard.toAdd {
		blockID := blockID
		blockIDs = append(blockIDs, &blockID)
	}
	return blockIDs, nil
}

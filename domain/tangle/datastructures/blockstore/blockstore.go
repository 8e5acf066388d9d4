package blockstore

import (
	"sync"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/lrucache"
)

var bucket = database.MakeBucket([]byte("blocks"))
var countKey = database.MakeBucket(nil).Key([]byte("blocks-count"))

// blockStore represents a store of blocks
type blockStore struct {
	cache       *lrucache.LRUCache
	countMutex  sync.RWMutex
	countCached uint64
}

// New instantiates a new BlockStore
func New(dbContext model.DBReader, cacheSize int, preallocate bool) (model.BlockStore, error) {
	blockStore := &blockStore{
		cache: lrucache.New(cacheSize, preallocate),
	}

	err := blockStore.initializeCount(dbContext)
	if err != nil {
		return nil, err
	}

	return blockStore, nil
}

func (bs *blockStore) initializeCount(dbContext model.DBReader) error {
	count := uint64(0)
	hasCountBytes, err := dbContext.Has(countKey)
	if err != nil {
		return err
	}
	if hasCountBytes {
		countBytes, err := dbContext.Get(countKey)
		if err != nil {
			return err
		}
		count, err = serialization.DeserializeCount(countBytes)
		if err != nil {
			return err
		}
	}
	bs.countCached = count
	return nil
}

// Stage stages the given block for the given blockID
func (bs *blockStore) Stage(stagingArea *model.StagingArea, blockID *externalapi.BlockID, block *externalapi.Block) {
	stagingShard := bs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockID] = block.Clone()
}

func (bs *blockStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bs.stagingShard(stagingArea).isStaged()
}

// Block gets the block associated with the given blockID
func (bs *blockStore) Block(dbContext model.DBReader, stagingArea *model.StagingArea, blockID *externalapi.BlockID) (*externalapi.Block, error) {
	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockID]; ok {
		return nil, database.ErrNotFound
	}
	if block, ok := stagingShard.toAdd[*blockID]; ok {
		return block.Clone(), nil
	}

	if block, ok := bs.cache.Get(blockID); ok {
		return block.(*externalapi.Block).Clone(), nil
	}

	blockBytes, err := dbContext.Get(bs.blockIDAsKey(blockID))
	if err != nil {
		return nil, err
	}

	block, err := serialization.DeserializeBlock(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(blockID, block)
	return block.Clone(), nil
}

// HasBlock returns whether a block with a given id exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, stagingArea *model.StagingArea, blockID *externalapi.BlockID) (bool, error) {
	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockID]; ok {
		return false, nil
	}
	if _, ok := stagingShard.toAdd[*blockID]; ok {
		return true, nil
	}

	if bs.cache.Has(blockID) {
		return true, nil
	}

	return dbContext.Has(bs.blockIDAsKey(blockID))
}

// Delete deletes the block associated with the given blockID
func (bs *blockStore) Delete(stagingArea *model.StagingArea, blockID *externalapi.BlockID) {
	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockID]; ok {
		delete(stagingShard.toAdd, *blockID)
		return
	}
	stagingShard.toDelete[*blockID] = struct{}{}
}

func (bs *blockStore) blockIDAsKey(blockID *externalapi.BlockID) model.DBKey {
	return bucket.Key(blockID.ByteSlice())
}

func (bs *blockStore) Count(stagingArea *model.StagingArea) uint64 {
	stagingShard := bs.stagingShard(stagingArea)
	return bs.count(stagingShard)
}

func (bs *blockStore) count(stagingShard *blockStagingShard) uint64 {
	bs.countMutex.RLock()
	defer bs.countMutex.RUnlock()
	return bs.countCached + uint64(len(stagingShard.toAdd)) - uint64(len(stagingShard.toDelete))
}

package blockstore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

type blockStagingShard struct {
	store    *blockStore
	toAdd    map[externalapi.BlockID]*externalapi.Block
	toDelete map[externalapi.BlockID]struct{}
}

func (bs *blockStore) stagingShard(stagingArea *model.StagingArea) *blockStagingShard {
	return stagingArea.GetOrCreateShard("BlockStore", func() model.StagingShard {
		return &blockStagingShard{
			store:    bs,
			toAdd:    make(map[externalapi.BlockID]*externalapi.Block),
			toDelete: make(map[externalapi.BlockID]struct{}),
		}
	}).(*blockStagingShard)
}

func (bss *blockStagingShard) Commit(dbTx model.DBTransaction) error {
	for blockID, block := range bss.toAdd {
		err := dbTx.Put(bss.store.blockIDAsKey(&blockID), serialization.SerializeBlock(block))
		if err != nil {
			return err
		}
	}

	for blockID := range bss.toDelete {
		err := dbTx.Delete(bss.store.blockIDAsKey(&blockID))
		if err != nil {
			return err
		}
	}

	return dbTx.Put(countKey, serialization.SerializeCount(bss.store.count(bss)))
}

func (bss *blockStagingShard) PostCommit() {
	for blockID, block := range bss.toAdd {
		bss.store.cache.Add(&blockID, block)
	}
	for blockID := range bss.toDelete {
		bss.store.cache.Remove(&blockID)
	}

	bss.store.countMutex.Lock()
	defer bss.store.countMutex.Unlock()
	bss.store.countCached = bss.store.countCached + uint64(len(bss.toAdd)) - uint64(len(bss.toDelete))
}

func (bss *blockStagingShard) isStaged() bool {
	return len(bss.toAdd) != 0 || len(bss.toDelete) != 0
}

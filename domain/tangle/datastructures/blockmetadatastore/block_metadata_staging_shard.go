package blockmetadatastore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

type blockMetadataStagingShard struct {
	store      *blockMetadataStore
	toAdd      map[externalapi.BlockID]*externalapi.BlockMetadata
	toSnapshot map[externalapi.BlockID]*externalapi.BlockMetadataSnapshot
	toDelete   map[externalapi.BlockID]struct{}
}

func (bms *blockMetadataStore) stagingShard(stagingArea *model.StagingArea) *blockMetadataStagingShard {
	return stagingArea.GetOrCreateShard("BlockMetadataStore", func() model.StagingShard {
		return &blockMetadataStagingShard{
			store:      bms,
			toAdd:      make(map[externalapi.BlockID]*externalapi.BlockMetadata),
			toSnapshot: make(map[externalapi.BlockID]*externalapi.BlockMetadataSnapshot),
			toDelete:   make(map[externalapi.BlockID]struct{}),
		}
	}).(*blockMetadataStagingShard)
}

func (bmss *blockMetadataStagingShard) Commit(dbTx model.DBTransaction) error {
	for blockID, metadata := range bmss.toAdd {
		if _, ok := bmss.toSnapshot[blockID]; ok {
			continue
		}
		err := dbTx.Put(bmss.store.blockIDAsKey(&blockID), serialization.SerializeBlockMetadata(metadata.Snapshot()))
		if err != nil {
			return err
		}
	}

	for blockID, snapshot := range bmss.toSnapshot {
		err := dbTx.Put(bmss.store.blockIDAsKey(&blockID), serialization.SerializeBlockMetadata(snapshot))
		if err != nil {
			return err
		}
	}

	for blockID := range bmss.toDelete {
		err := dbTx.Delete(bmss.store.blockIDAsKey(&blockID))
		if err != nil {
			return err
		}
	}

	return nil
}

func (bmss *blockMetadataStagingShard) PostCommit() {
	for _, metadata := range bmss.toAdd {
		bmss.store.arena.loadOrStore(metadata)
	}
	for blockID := range bmss.toDelete {
		bmss.store.arena.remove(&blockID)
	}
}

func (bmss *blockMetadataStagingShard) isStaged() bool {
	return len(bmss.toAdd) != 0 || len(bmss.toSnapshot) != 0 || len(bmss.toDelete) != 0
}

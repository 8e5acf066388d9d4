package blockmetadatastore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var bucket = database.MakeBucket([]byte("block-metadata"))

// blockMetadataStore keeps the live metadata of every loaded block in an
// arena. Entries are loaded lazily from the database and stay until their
// block is deleted.
type blockMetadataStore struct {
	arena *arena
}

// New instantiates a new BlockMetadataStore
func New() model.BlockMetadataStore {
	return &blockMetadataStore{
		arena: newArena(),
	}
}

// Stage stages the given live metadata. Its state at commit time is
// persisted, and it becomes the arena entry once committed.
func (bms *blockMetadataStore) Stage(stagingArea *model.StagingArea, metadata *externalapi.BlockMetadata) {
	stagingShard := bms.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *metadata.BlockID())
	stagingShard.toAdd[*metadata.BlockID()] = metadata
}

// StageSnapshot stages a snapshot to be persisted without touching the
// live entry. Callers apply the same change to the live entry after the
// commit.
func (bms *blockMetadataStore) StageSnapshot(stagingArea *model.StagingArea, snapshot *externalapi.BlockMetadataSnapshot) {
	stagingShard := bms.stagingShard(stagingArea)
	stagingShard.toSnapshot[*snapshot.BlockID] = snapshot
}

func (bms *blockMetadataStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bms.stagingShard(stagingArea).isStaged()
}

// Get returns the live metadata of blockID
func (bms *blockMetadataStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (*externalapi.BlockMetadata, error) {

	stagingShard := bms.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockID]; ok {
		return nil, database.ErrNotFound
	}
	if metadata, ok := stagingShard.toAdd[*blockID]; ok {
		return metadata, nil
	}

	if metadata, ok := bms.arena.get(blockID); ok {
		return metadata, nil
	}

	metadataBytes, err := dbContext.Get(bms.blockIDAsKey(blockID))
	if err != nil {
		return nil, err
	}
	snapshot, err := serialization.DeserializeBlockMetadata(metadataBytes)
	if err != nil {
		return nil, err
	}
	return bms.arena.loadOrStore(externalapi.NewBlockMetadataFromSnapshot(snapshot)), nil
}

// Has returns whether metadata of blockID exists
func (bms *blockMetadataStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (bool, error) {

	stagingShard := bms.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockID]; ok {
		return false, nil
	}
	if _, ok := stagingShard.toAdd[*blockID]; ok {
		return true, nil
	}
	if _, ok := bms.arena.get(blockID); ok {
		return true, nil
	}
	return dbContext.Has(bms.blockIDAsKey(blockID))
}

// Delete deletes the metadata of blockID
func (bms *blockMetadataStore) Delete(stagingArea *model.StagingArea, blockID *externalapi.BlockID) {
	stagingShard := bms.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *blockID)
	delete(stagingShard.toSnapshot, *blockID)
	stagingShard.toDelete[*blockID] = struct{}{}
}

// Len returns the number of entries loaded into memory
func (bms *blockMetadataStore) Len() int {
	return bms.arena.len()
}

func (bms *blockMetadataStore) blockIDAsKey(blockID *externalapi.BlockID) model.DBKey {
	return bucket.Key(blockID.ByteSlice())
}

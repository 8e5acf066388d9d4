package solidentrypointstore

import (
	"sync"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var bucket = database.MakeBucket([]byte("solid-entry-points"))

type solidEntryPointStagingShard struct {
	store    *solidEntryPointStore
	toAdd    map[externalapi.BlockID]externalapi.MilestoneIndex
	toRemove map[externalapi.BlockID]struct{}
}

func (ss *solidEntryPointStore) stagingShard(stagingArea *model.StagingArea) *solidEntryPointStagingShard {
	return stagingArea.GetOrCreateShard("SolidEntryPointStore", func() model.StagingShard {
		return &solidEntryPointStagingShard{
			store:    ss,
			toAdd:    make(map[externalapi.BlockID]externalapi.MilestoneIndex),
			toRemove: make(map[externalapi.BlockID]struct{}),
		}
	}).(*solidEntryPointStagingShard)
}

func (sss *solidEntryPointStagingShard) Commit(dbTx model.DBTransaction) error {
	for blockID, index := range sss.toAdd {
		err := dbTx.Put(bucket.Key(blockID.ByteSlice()), serialization.SerializeMilestoneIndex(index))
		if err != nil {
			return err
		}
	}
	for blockID := range sss.toRemove {
		err := dbTx.Delete(bucket.Key(blockID.ByteSlice()))
		if err != nil {
			return err
		}
	}
	return nil
}

func (sss *solidEntryPointStagingShard) PostCommit() {
	sss.store.mutex.Lock()
	defer sss.store.mutex.Unlock()

	for blockID := range sss.toRemove {
		delete(sss.store.entryPoints, blockID)
	}
}

// solidEntryPointStore holds the whole solid entry point set in memory.
// Additions are installed in memory as soon as they are staged, so that
// solidity checks resolve them before the blocks they replace are gone.
type solidEntryPointStore struct {
	mutex       sync.RWMutex
	entryPoints map[externalapi.BlockID]externalapi.MilestoneIndex
}

// New instantiates a new SolidEntryPointStore, loading the set from dbContext
func New(dbContext model.DBReader) (model.SolidEntryPointStore, error) {
	store := &solidEntryPointStore{
		entryPoints: make(map[externalapi.BlockID]externalapi.MilestoneIndex),
	}

	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		blockID, err := externalapi.NewBlockIDFromByteSlice(key.Suffix())
		if err != nil {
			return nil, err
		}
		indexBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		index, err := serialization.DeserializeMilestoneIndex(indexBytes)
		if err != nil {
			return nil, err
		}
		store.entryPoints[*blockID] = index
	}

	return store, nil
}

// Add installs blockID as a solid entry point of the given index
func (ss *solidEntryPointStore) Add(stagingArea *model.StagingArea, blockID *externalapi.BlockID,
	index externalapi.MilestoneIndex) {

	stagingShard := ss.stagingShard(stagingArea)
	delete(stagingShard.toRemove, *blockID)
	stagingShard.toAdd[*blockID] = index

	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	ss.entryPoints[*blockID] = index
}

// Remove stages the removal of blockID from the set
func (ss *solidEntryPointStore) Remove(stagingArea *model.StagingArea, blockID *externalapi.BlockID) {
	stagingShard := ss.stagingShard(stagingArea)
	delete(stagingShard.toAdd, *blockID)
	stagingShard.toRemove[*blockID] = struct{}{}
}

func (ss *solidEntryPointStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := ss.stagingShard(stagingArea)
	return len(stagingShard.toAdd) != 0 || len(stagingShard.toRemove) != 0
}

// Index returns the milestone index at which blockID became a solid
// entry point, and whether it is one
func (ss *solidEntryPointStore) Index(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (externalapi.MilestoneIndex, bool) {

	if _, ok := ss.stagingShard(stagingArea).toRemove[*blockID]; ok {
		return 0, false
	}

	ss.mutex.RLock()
	defer ss.mutex.RUnlock()
	index, ok := ss.entryPoints[*blockID]
	return index, ok
}

// SolidEntryPoints returns a copy of the installed set
func (ss *solidEntryPointStore) SolidEntryPoints() map[externalapi.BlockID]externalapi.MilestoneIndex {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	entryPoints := make(map[externalapi.BlockID]externalapi.MilestoneIndex, len(ss.entryPoints))
	for blockID, index := range ss.entryPoints {
		entryPoints[blockID] = index
	}
	return entryPoints
}

package milestonestore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var bucket = database.MakeBucket([]byte("milestones"))

type milestoneStagingShard struct {
	toAdd    map[externalapi.MilestoneIndex]*externalapi.Milestone
	toDelete map[externalapi.MilestoneIndex]struct{}
}

func (ms *milestoneStore) stagingShard(stagingArea *model.StagingArea) *milestoneStagingShard {
	return stagingArea.GetOrCreateShard("MilestoneStore", func() model.StagingShard {
		return &milestoneStagingShard{
			toAdd:    make(map[externalapi.MilestoneIndex]*externalapi.Milestone),
			toDelete: make(map[externalapi.MilestoneIndex]struct{}),
		}
	}).(*milestoneStagingShard)
}

func (mss *milestoneStagingShard) Commit(dbTx model.DBTransaction) error {
	for index, milestone := range mss.toAdd {
		err := dbTx.Put(indexAsKey(index), serialization.SerializeMilestone(milestone))
		if err != nil {
			return err
		}
	}
	for index := range mss.toDelete {
		err := dbTx.Delete(indexAsKey(index))
		if err != nil {
			return err
		}
	}
	return nil
}

type milestoneStore struct{}

// New instantiates a new MilestoneStore
func New() model.MilestoneStore {
	return &milestoneStore{}
}

// Stage stages the given milestone record, replacing any record of the
// same index
func (ms *milestoneStore) Stage(stagingArea *model.StagingArea, milestone *externalapi.Milestone) {
	stagingShard := ms.stagingShard(stagingArea)
	delete(stagingShard.toDelete, milestone.Index)
	stagingShard.toAdd[milestone.Index] = milestone.Clone()
}

func (ms *milestoneStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := ms.stagingShard(stagingArea)
	return len(stagingShard.toAdd) != 0 || len(stagingShard.toDelete) != 0
}

// Milestone returns the milestone record of the given index
func (ms *milestoneStore) Milestone(dbContext model.DBReader, stagingArea *model.StagingArea,
	index externalapi.MilestoneIndex) (*externalapi.Milestone, error) {

	stagingShard := ms.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[index]; ok {
		return nil, database.ErrNotFound
	}
	if milestone, ok := stagingShard.toAdd[index]; ok {
		return milestone.Clone(), nil
	}

	milestoneBytes, err := dbContext.Get(indexAsKey(index))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeMilestone(milestoneBytes)
}

// Has returns whether a milestone record of the given index exists
func (ms *milestoneStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	index externalapi.MilestoneIndex) (bool, error) {

	stagingShard := ms.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[index]; ok {
		return false, nil
	}
	if _, ok := stagingShard.toAdd[index]; ok {
		return true, nil
	}
	return dbContext.Has(indexAsKey(index))
}

// Delete stages the removal of the milestone record of the given index
func (ms *milestoneStore) Delete(stagingArea *model.StagingArea, index externalapi.MilestoneIndex) {
	stagingShard := ms.stagingShard(stagingArea)
	delete(stagingShard.toAdd, index)
	stagingShard.toDelete[index] = struct{}{}
}

func indexAsKey(index externalapi.MilestoneIndex) model.DBKey {
	return bucket.Key(serialization.MilestoneIndexToKey(index))
}

package childrenstore

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
)

var bucket = database.MakeBucket([]byte("children"))

// edge is a parent to child reference. Edges are stored as empty values
// under parent||child so that the children of a block are a prefix range.
type edge struct {
	parent externalapi.BlockID
	child  externalapi.BlockID
}

type childrenStagingShard struct {
	store    *childrenStore
	toAdd    map[edge]struct{}
	toDelete map[edge]struct{}
}

func (cs *childrenStore) stagingShard(stagingArea *model.StagingArea) *childrenStagingShard {
	return stagingArea.GetOrCreateShard("ChildrenStore", func() model.StagingShard {
		return &childrenStagingShard{
			store:    cs,
			toAdd:    make(map[edge]struct{}),
			toDelete: make(map[edge]struct{}),
		}
	}).(*childrenStagingShard)
}

func (css *childrenStagingShard) Commit(dbTx model.DBTransaction) error {
	for e := range css.toAdd {
		err := dbTx.Put(edgeKey(&e.parent, &e.child), []byte{})
		if err != nil {
			return err
		}
	}
	for e := range css.toDelete {
		err := dbTx.Delete(edgeKey(&e.parent, &e.child))
		if err != nil {
			return err
		}
	}
	return nil
}

// childrenStore is not cached: children are appended by concurrent
// attachments, so every read goes to the database.
type childrenStore struct{}

// New instantiates a new ChildrenStore
func New() model.ChildrenStore {
	return &childrenStore{}
}

// Stage stages the edge parentID -> childID
func (cs *childrenStore) Stage(stagingArea *model.StagingArea, parentID *externalapi.BlockID, childID *externalapi.BlockID) {
	stagingShard := cs.stagingShard(stagingArea)
	e := edge{parent: *parentID, child: *childID}
	delete(stagingShard.toDelete, e)
	stagingShard.toAdd[e] = struct{}{}
}

func (cs *childrenStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := cs.stagingShard(stagingArea)
	return len(stagingShard.toAdd) != 0 || len(stagingShard.toDelete) != 0
}

// Children returns the known children of parentID, in key order
func (cs *childrenStore) Children(dbContext model.DBReader, stagingArea *model.StagingArea,
	parentID *externalapi.BlockID) ([]*externalapi.BlockID, error) {

	stagingShard := cs.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(bucket.Bucket(parentID.ByteSlice()))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	seen := hashset.New()
	var children []*externalapi.BlockID
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		childID, err := externalapi.NewBlockIDFromByteSlice(key.Suffix())
		if err != nil {
			return nil, err
		}
		if _, ok := stagingShard.toDelete[edge{parent: *parentID, child: *childID}]; ok {
			continue
		}
		seen.Add(childID)
		children = append(children, childID)
	}

	for e := range stagingShard.toAdd {
		if e.parent != *parentID || seen.Contains(&e.child) {
			continue
		}
		childID := e.child
		children = append(children, &childID)
	}
	return children, nil
}

// Delete stages the removal of the edge parentID -> childID
func (cs *childrenStore) Delete(stagingArea *model.StagingArea, parentID *externalapi.BlockID, childID *externalapi.BlockID) {
	stagingShard := cs.stagingShard(stagingArea)
	e := edge{parent: *parentID, child: *childID}
	delete(stagingShard.toAdd, e)
	stagingShard.toDelete[e] = struct{}{}
}

func edgeKey(parentID, childID *externalapi.BlockID) model.DBKey {
	return bucket.Bucket(parentID.ByteSlice()).Key(childID.ByteSlice())
}

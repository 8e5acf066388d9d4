package dagtopologymanager

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
)

// dagTopologyManager exposes methods for querying relationships
// between blocks in the DAG
type dagTopologyManager struct {
	databaseContext      model.DBReader
	blockStore           model.BlockStore
	blockMetadataStore   model.BlockMetadataStore
	childrenStore        model.ChildrenStore
	solidEntryPointStore model.SolidEntryPointStore
}

// New instantiates a new DAGTopologyManager
func New(
	databaseContext model.DBReader,
	blockStore model.BlockStore,
	blockMetadataStore model.BlockMetadataStore,
	childrenStore model.ChildrenStore,
	solidEntryPointStore model.SolidEntryPointStore) model.DAGTopologyManager {

	return &dagTopologyManager{
		databaseContext:      databaseContext,
		blockStore:           blockStore,
		blockMetadataStore:   blockMetadataStore,
		childrenStore:        childrenStore,
		solidEntryPointStore: solidEntryPointStore,
	}
}

// Lookup returns the block of blockID along with its presence. Solid entry
// points resolve without a body even while their block is still stored.
func (dtm *dagTopologyManager) Lookup(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (*externalapi.Block, model.BlockPresence, error) {

	if _, ok := dtm.solidEntryPointStore.Index(stagingArea, blockID); ok {
		return nil, model.BlockSolidEntryPoint, nil
	}

	block, err := dtm.blockStore.Block(dtm.databaseContext, stagingArea, blockID)
	if database.IsNotFoundError(err) {
		return nil, model.BlockMissing, nil
	}
	if err != nil {
		return nil, model.BlockMissing, err
	}
	return block, model.BlockPresent, nil
}

// Metadata returns the live metadata of blockID
func (dtm *dagTopologyManager) Metadata(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (*externalapi.BlockMetadata, error) {

	return dtm.blockMetadataStore.Get(dtm.databaseContext, stagingArea, blockID)
}

// Parents returns the DAG parents of the given blockID
func (dtm *dagTopologyManager) Parents(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) ([]*externalapi.BlockID, error) {

	block, err := dtm.blockStore.Block(dtm.databaseContext, stagingArea, blockID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed getting the parents of %s", blockID)
	}
	return block.Parents, nil
}

// Children returns the known DAG children of the given blockID
func (dtm *dagTopologyManager) Children(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) ([]*externalapi.BlockID, error) {

	return dtm.childrenStore.Children(dtm.databaseContext, stagingArea, blockID)
}

// SolidEntryPointIndex returns the index blockID became a solid entry
// point at, if it is one
func (dtm *dagTopologyManager) SolidEntryPointIndex(stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) (externalapi.MilestoneIndex, bool) {

	return dtm.solidEntryPointStore.Index(stagingArea, blockID)
}

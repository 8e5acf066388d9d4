package solidifier

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
)

// CalculateConeIndexes derives the cone indexes of a block from its
// parents: the oldest index is the minimum over the parents and the
// youngest is the maximum. A solid entry point contributes its own index,
// a referenced parent the index that referenced it.
func (s *solidifier) CalculateConeIndexes(stagingArea *model.StagingArea, blockID *externalapi.BlockID,
	block *externalapi.Block, metadata *externalapi.BlockMetadata) (omrsi, ymrsi *externalapi.ConeIndex, err error) {

	for _, parentID := range block.Parents {
		parentOMRSI, parentYMRSI, err := s.parentConeIndexes(stagingArea, parentID)
		if err != nil {
			return nil, nil, err
		}
		if omrsi == nil || parentOMRSI.Index < omrsi.Index {
			omrsi = parentOMRSI
		}
		if ymrsi == nil || parentYMRSI.Index > ymrsi.Index {
			ymrsi = parentYMRSI
		}
	}

	if index, ok := metadata.MilestoneIndex(); ok {
		own := &externalapi.ConeIndex{Index: index, RootID: blockID}
		if index < omrsi.Index {
			omrsi = own
		}
		if index > ymrsi.Index {
			ymrsi = own
		}
	}

	return omrsi.Clone(), ymrsi.Clone(), nil
}

func (s *solidifier) parentConeIndexes(stagingArea *model.StagingArea,
	parentID *externalapi.BlockID) (omrsi, ymrsi *externalapi.ConeIndex, err error) {

	if index, ok := s.dagTopologyManager.SolidEntryPointIndex(stagingArea, parentID); ok {
		coneIndex := &externalapi.ConeIndex{Index: index, RootID: parentID}
		return coneIndex, coneIndex, nil
	}

	parentMetadata, err := s.dagTopologyManager.Metadata(stagingArea, parentID)
	if err != nil {
		return nil, nil, err
	}
	if index, ok := parentMetadata.ReferencedIndex(); ok {
		coneIndex := &externalapi.ConeIndex{Index: index, RootID: parentID}
		return coneIndex, coneIndex, nil
	}

	omrsi, ymrsi, ok := parentMetadata.ConeIndexes()
	if !ok {
		return nil, nil, errors.Errorf("parent %s is not solid", parentID)
	}
	return omrsi, ymrsi, nil
}

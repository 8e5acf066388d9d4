package dagtraversalmanager

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/pkg/errors"
)

// dagTraversalManager exposes methods for traversing blocks
// in the DAG
type dagTraversalManager struct {
	dagTopologyManager model.DAGTopologyManager
}

// New instantiates a new DAGTraversalManager
func New(dagTopologyManager model.DAGTopologyManager) model.DAGTraversalManager {
	return &dagTraversalManager{
		dagTopologyManager: dagTopologyManager,
	}
}

// VisitParentsDepthFirst walks the past cone of startIDs depth first,
// visiting parents in their stored order. Every id is reported once: to
// OnSolidEntryPoint, OnMissing, OnMatch (after which its parents are
// walked) or OnNotMatch (which cuts the walk at that block).
func (dtm *dagTraversalManager) VisitParentsDepthFirst(ctx context.Context, stagingArea *model.StagingArea,
	startIDs []*externalapi.BlockID, callbacks *model.TraversalCallbacks) error {

	stack := make([]*externalapi.BlockID, 0, len(startIDs))
	for i := len(startIDs) - 1; i >= 0; i-- {
		stack = append(stack, startIDs[i])
	}

	visited := hashset.New()
	for len(stack) > 0 {
		err := ctx.Err()
		if err != nil {
			return errors.WithStack(err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(current) {
			continue
		}
		visited.Add(current)

		block, presence, err := dtm.dagTopologyManager.Lookup(stagingArea, current)
		if err != nil {
			return err
		}

		switch presence {
		case model.BlockSolidEntryPoint:
			if callbacks.OnSolidEntryPoint != nil {
				err = callbacks.OnSolidEntryPoint(current)
			}
		case model.BlockMissing:
			if callbacks.OnMissing != nil {
				err = callbacks.OnMissing(current)
			}
		default:
			var parents []*externalapi.BlockID
			parents, err = dtm.visitPresent(stagingArea, current, block, callbacks)
			for i := len(parents) - 1; i >= 0; i-- {
				if !visited.Contains(parents[i]) {
					stack = append(stack, parents[i])
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// visitPresent reports a present block and returns the parents to walk next
func (dtm *dagTraversalManager) visitPresent(stagingArea *model.StagingArea, blockID *externalapi.BlockID,
	block *externalapi.Block, callbacks *model.TraversalCallbacks) ([]*externalapi.BlockID, error) {

	metadata, err := dtm.dagTopologyManager.Metadata(stagingArea, blockID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed getting the metadata of %s", blockID)
	}

	matched, err := callbacks.Condition(blockID, metadata)
	if err != nil {
		return nil, err
	}
	if !matched {
		if callbacks.OnNotMatch != nil {
			return nil, callbacks.OnNotMatch(blockID)
		}
		return nil, nil
	}

	err = callbacks.OnMatch(blockID, block, metadata)
	if err != nil {
		return nil, err
	}
	return block.Parents, nil
}

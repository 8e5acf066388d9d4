package whiteflag

import (
	"context"
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/pkg/errors"
)

type whiteFlagEngine struct {
	databaseContext    model.DBReader
	dagTopologyManager model.DAGTopologyManager
	utxoStore          model.UTXOStore
}

// New instantiates a new WhiteFlagEngine
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	utxoStore model.UTXOStore) model.WhiteFlagEngine {

	return &whiteFlagEngine{
		databaseContext:    databaseContext,
		dagTopologyManager: dagTopologyManager,
		utxoStore:          utxoStore,
	}
}

// slowRunThreshold is the run duration above which a white-flag run is
// reported as a warning.
const slowRunThreshold = time.Second

// Run replays the past cone of parents that no earlier milestone
// referenced, in a deterministic depth-first order, and classifies every
// block it meets. Nothing is written: the returned mutations are applied
// by the caller.
//
// The walk starts with the first parent and resolves the parents of every
// block, in their stored order, before the block itself is applied.
func (wf *whiteFlagEngine) Run(ctx context.Context, stagingArea *model.StagingArea,
	milestone *externalapi.Milestone, parents []*externalapi.BlockID) (*externalapi.WhiteFlagMutations, error) {

	onEnd := logger.LogAndMeasureSlowExecution(log, "whiteFlagEngine.Run", slowRunThreshold)
	defer onEnd()

	state := newRunState(wf, stagingArea, milestone)

	stack := make([]*externalapi.BlockID, 0, len(parents))
	for i := len(parents) - 1; i >= 0; i-- {
		stack = append(stack, parents[i])
	}

	visited := hashset.New()
	for len(stack) > 0 {
		err := ctx.Err()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		current := stack[len(stack)-1]
		if visited.Contains(current) {
			stack = stack[:len(stack)-1]
			continue
		}

		block, presence, err := wf.dagTopologyManager.Lookup(stagingArea, current)
		if err != nil {
			return nil, err
		}
		switch presence {
		case model.BlockMissing:
			return nil, ruleerrors.NewErrMissingAncestor([]*externalapi.BlockID{current})
		case model.BlockSolidEntryPoint:
			visited.Add(current)
			stack = stack[:len(stack)-1]
			continue
		}

		metadata, err := wf.dagTopologyManager.Metadata(stagingArea, current)
		if err != nil {
			return nil, err
		}
		if metadata.IsReferenced() {
			visited.Add(current)
			stack = stack[:len(stack)-1]
			continue
		}

		unresolvedParent := firstUnresolvedParent(block, visited)
		if unresolvedParent != nil {
			stack = append(stack, unresolvedParent)
			continue
		}

		err = state.apply(current, block)
		if err != nil {
			return nil, err
		}
		visited.Add(current)
		stack = stack[:len(stack)-1]
	}

	return state.finish()
}

// firstUnresolvedParent returns the first parent of block that wasn't
// visited yet. Solid entry points and referenced blocks are resolved
// when they are popped, so they are pushed like any other parent.
func firstUnresolvedParent(block *externalapi.Block, visited hashset.BlockIDSet) *externalapi.BlockID {
	for _, parentID := range block.Parents {
		if !visited.Contains(parentID) {
			return parentID
		}
	}
	return nil
}

package tangle

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// Resume finishes work that earlier calls stopped short of: it checks the
// blocks a cancelled or failed propagation left pending, and confirms the
// solid milestones whose confirmation failed. It is safe to call at any
// time.
func (t *tangle) Resume(ctx context.Context) error {
	t.windowLock.HighPriorityReadLock()
	defer t.windowLock.HighPriorityReadUnlock()

	newlySolid, propagateErr := t.resumePropagation(ctx)
	_, err := t.handleNewlySolid(newlySolid)
	if err != nil {
		return err
	}
	if propagateErr != nil {
		return propagateErr
	}
	if len(newlySolid) > 0 {
		log.Infof("Resumed solidification of %d blocks", len(newlySolid))
	}

	return t.confirmMilestones(ctx)
}

func (t *tangle) resumePropagation(ctx context.Context) ([]*externalapi.BlockID, error) {
	t.insertLock.Lock()
	defer t.insertLock.Unlock()

	return t.propagateSolidity(ctx, func(stagingArea *model.StagingArea) ([]*externalapi.BlockID, error) {
		return t.solidifier.ResumePropagation(ctx, stagingArea)
	})
}

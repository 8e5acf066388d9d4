package tangle

import (
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// Events are the callbacks a Tangle reports state changes to. Every
// callback is optional. Callbacks run on the goroutine that caused the
// change and must not call back into the Tangle.
type Events struct {
	OnBlockAttached        func(blockID *externalapi.BlockID)
	OnBlockSolid           func(blockID *externalapi.BlockID)
	OnMissingAncestors     func(blockIDs []*externalapi.BlockID)
	OnMilestoneSolid       func(index externalapi.MilestoneIndex, blockID *externalapi.BlockID)
	OnMilestoneConfirmed   func(mutations *externalapi.WhiteFlagMutations, duration time.Duration)
	OnMilestoneInvalid     func(index externalapi.MilestoneIndex, err error)
	OnTipsChanged          func(tipCount int)
	OnMilestoneIndexPruned func(index externalapi.MilestoneIndex, prunedBlocks int)
}

func (e *Events) blockAttached(blockID *externalapi.BlockID) {
	if e.OnBlockAttached != nil {
		e.OnBlockAttached(blockID)
	}
}

func (e *Events) blockSolid(blockID *externalapi.BlockID) {
	if e.OnBlockSolid != nil {
		e.OnBlockSolid(blockID)
	}
}

func (e *Events) missingAncestors(blockIDs []*externalapi.BlockID) {
	if e.OnMissingAncestors != nil {
		e.OnMissingAncestors(blockIDs)
	}
}

func (e *Events) milestoneSolid(index externalapi.MilestoneIndex, blockID *externalapi.BlockID) {
	if e.OnMilestoneSolid != nil {
		e.OnMilestoneSolid(index, blockID)
	}
}

func (e *Events) milestoneConfirmed(mutations *externalapi.WhiteFlagMutations, duration time.Duration) {
	if e.OnMilestoneConfirmed != nil {
		e.OnMilestoneConfirmed(mutations, duration)
	}
}

func (e *Events) milestoneInvalid(index externalapi.MilestoneIndex, err error) {
	if e.OnMilestoneInvalid != nil {
		e.OnMilestoneInvalid(index, err)
	}
}

func (e *Events) tipsChanged(tipCount int) {
	if e.OnTipsChanged != nil {
		e.OnTipsChanged(tipCount)
	}
}

func (e *Events) milestoneIndexPruned(index externalapi.MilestoneIndex, prunedBlocks int) {
	if e.OnMilestoneIndexPruned != nil {
		e.OnMilestoneIndexPruned(index, prunedBlocks)
	}
}

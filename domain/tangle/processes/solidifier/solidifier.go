package solidifier

import (
	"context"

	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/iotaledger/bee-sub004/util/mstime"
	"github.com/pkg/errors"
)

// OnSolidMilestoneFunc is called for every milestone block that becomes solid
type OnSolidMilestoneFunc func(index externalapi.MilestoneIndex, blockID *externalapi.BlockID)

type solidifier struct {
	databaseContext            model.DBReader
	dagTopologyManager         model.DAGTopologyManager
	blockMetadataStore         model.BlockMetadataStore
	pendingSolidificationStore model.PendingSolidificationStore
	onSolidMilestone           OnSolidMilestoneFunc
}

// New instantiates a new Solidifier
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	blockMetadataStore model.BlockMetadataStore,
	pendingSolidificationStore model.PendingSolidificationStore,
	onSolidMilestone OnSolidMilestoneFunc) model.Solidifier {

	return &solidifier{
		databaseContext:            databaseContext,
		dagTopologyManager:         dagTopologyManager,
		blockMetadataStore:         blockMetadataStore,
		pendingSolidificationStore: pendingSolidificationStore,
		onSolidMilestone:           onSolidMilestone,
	}
}

// Propagate marks blockID solid if all of its parents are, and keeps
// going through the children of every block that became solid. Blocks
// left pending by an earlier propagation are checked as well. Metadata
// of newly solid blocks is staged in stagingArea.
//
// Parents that are neither stored nor solid entry points stop their
// branch. They are returned, after the newly solid blocks, inside a
// missing ancestor error.
//
// If the walk stops early, every block it did not check yet is staged as
// pending, so that committing stagingArea never loses part of the
// worklist.
func (s *solidifier) Propagate(ctx context.Context, stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) ([]*externalapi.BlockID, error) {

	return s.propagate(ctx, stagingArea, blockID)
}

// ResumePropagation checks the blocks left pending by earlier
// propagations
func (s *solidifier) ResumePropagation(ctx context.Context,
	stagingArea *model.StagingArea) ([]*externalapi.BlockID, error) {

	return s.propagate(ctx, stagingArea, nil)
}

func (s *solidifier) propagate(ctx context.Context, stagingArea *model.StagingArea,
	blockID *externalapi.BlockID) ([]*externalapi.BlockID, error) {

	pending, err := s.pendingSolidificationStore.BlockIDs(s.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	// A pending block may already be solid, in which case its children
	// are the ones left to check.
	seeds := hashset.NewFromSlice(pending...)
	stack := pending
	if blockID != nil && !seeds.Contains(blockID) {
		seeds.Add(blockID)
		stack = append(stack, blockID)
	}

	var newlySolid []*externalapi.BlockID
	missing := hashset.New()
	var missingIDs []*externalapi.BlockID

	for len(stack) > 0 {
		err := ctx.Err()
		if err != nil {
			s.stagePending(stagingArea, stack)
			return newlySolid, errors.WithStack(err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, becameSolid, err := s.check(stagingArea, current, seeds.Contains(current), missing, &missingIDs)
		if becameSolid {
			newlySolid = append(newlySolid, current)
		}
		if err != nil {
			// current stays pending: if it became solid, its children
			// are checked when it is resumed as a seed.
			s.stagePending(stagingArea, append(stack, current))
			return newlySolid, err
		}
		s.pendingSolidificationStore.Delete(stagingArea, current)
		stack = append(stack, children...)
	}

	if len(missingIDs) > 0 {
		return newlySolid, ruleerrors.NewErrMissingAncestor(missingIDs)
	}
	return newlySolid, nil
}

// check makes blockID solid if its parents are, and returns the children
// that have to be checked next
func (s *solidifier) check(stagingArea *model.StagingArea, blockID *externalapi.BlockID, isSeed bool,
	missing hashset.BlockIDSet, missingIDs *[]*externalapi.BlockID) (
	children []*externalapi.BlockID, becameSolid bool, err error) {

	block, presence, err := s.dagTopologyManager.Lookup(stagingArea, blockID)
	if err != nil {
		return nil, false, err
	}
	if presence != model.BlockPresent {
		return nil, false, nil
	}
	metadata, err := s.dagTopologyManager.Metadata(stagingArea, blockID)
	if err != nil {
		return nil, false, err
	}
	if metadata.IsSolid() {
		if !isSeed {
			return nil, false, nil
		}
		children, err := s.dagTopologyManager.Children(stagingArea, blockID)
		return children, false, err
	}

	parentsSolid := true
	for _, parentID := range block.Parents {
		solid, err := s.isSolidOrEntryPoint(stagingArea, parentID)
		if err != nil {
			return nil, false, err
		}
		if solid == parentMissing && !missing.Contains(parentID) {
			missing.Add(parentID)
			*missingIDs = append(*missingIDs, parentID)
		}
		if solid != parentSolid {
			parentsSolid = false
		}
	}
	if !parentsSolid {
		return nil, false, nil
	}

	omrsi, ymrsi, err := s.CalculateConeIndexes(stagingArea, blockID, block, metadata)
	if err != nil {
		return nil, false, err
	}
	if !metadata.SetSolid(omrsi, ymrsi, mstime.Now()) {
		return nil, false, nil
	}
	s.blockMetadataStore.Stage(stagingArea, metadata)
	log.Tracef("Block %s is solid, cone indexes %s/%s", blockID, omrsi, ymrsi)

	if index, ok := metadata.MilestoneIndex(); ok && s.onSolidMilestone != nil {
		s.onSolidMilestone(index, blockID)
	}

	children, err = s.dagTopologyManager.Children(stagingArea, blockID)
	if err != nil {
		return nil, true, err
	}
	return children, true, nil
}

func (s *solidifier) stagePending(stagingArea *model.StagingArea, blockIDs []*externalapi.BlockID) {
	for _, blockID := range blockIDs {
		s.pendingSolidificationStore.Stage(stagingArea, blockID)
	}
}

type parentState int

const (
	parentSolid parentState = iota
	parentNotSolid
	parentMissing
)

func (s *solidifier) isSolidOrEntryPoint(stagingArea *model.StagingArea,
	parentID *externalapi.BlockID) (parentState, error) {

	_, presence, err := s.dagTopologyManager.Lookup(stagingArea, parentID)
	if err != nil {
		return parentMissing, err
	}
	switch presence {
	case model.BlockSolidEntryPoint:
		return parentSolid, nil
	case model.BlockMissing:
		return parentMissing, nil
	}

	metadata, err := s.dagTopologyManager.Metadata(stagingArea, parentID)
	if err != nil {
		return parentMissing, err
	}
	if metadata.IsSolid() {
		return parentSolid, nil
	}
	return parentNotSolid, nil
}

// RefreshConeIndexes re-derives the cone indexes of the solid,
// unreferenced future cone of roots. It stops at blocks whose indexes did
// not change and returns the blocks that were updated.
func (s *solidifier) RefreshConeIndexes(ctx context.Context, stagingArea *model.StagingArea,
	roots []*externalapi.BlockID) ([]*externalapi.BlockID, error) {

	var updated []*externalapi.BlockID
	visited := hashset.New()

	var stack []*externalapi.BlockID
	for _, root := range roots {
		children, err := s.dagTopologyManager.Children(stagingArea, root)
		if err != nil {
			return nil, err
		}
		stack = append(stack, children...)
	}

	for len(stack) > 0 {
		err := ctx.Err()
		if err != nil {
			return updated, errors.WithStack(err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(current) {
			continue
		}
		visited.Add(current)

		block, presence, err := s.dagTopologyManager.Lookup(stagingArea, current)
		if err != nil {
			return updated, err
		}
		if presence != model.BlockPresent {
			continue
		}
		metadata, err := s.dagTopologyManager.Metadata(stagingArea, current)
		if err != nil {
			return updated, err
		}
		if !metadata.IsSolid() || metadata.IsReferenced() {
			continue
		}

		omrsi, ymrsi, err := s.CalculateConeIndexes(stagingArea, current, block, metadata)
		if err != nil {
			return updated, err
		}
		if !metadata.UpdateConeIndexes(omrsi, ymrsi) {
			continue
		}
		s.blockMetadataStore.Stage(stagingArea, metadata)
		updated = append(updated, current)

		children, err := s.dagTopologyManager.Children(stagingArea, current)
		if err != nil {
			return updated, err
		}
		stack = append(stack, children...)
	}

	return updated, nil
}

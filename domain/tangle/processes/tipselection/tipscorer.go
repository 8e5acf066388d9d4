package tipselection

import (
	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

type tipScorer struct {
	databaseContext     model.DBReader
	params              *dagconfig.Params
	dagTopologyManager  model.DAGTopologyManager
	consensusStateStore model.ConsensusStateStore
}

// NewTipScorer instantiates a new TipScorer
func NewTipScorer(
	databaseContext model.DBReader,
	params *dagconfig.Params,
	dagTopologyManager model.DAGTopologyManager,
	consensusStateStore model.ConsensusStateStore) model.TipScorer {

	return &tipScorer{
		databaseContext:     databaseContext,
		params:              params,
		dagTopologyManager:  dagTopologyManager,
		consensusStateStore: consensusStateStore,
	}
}

// Score scores blockID against the latest solid milestone index. Blocks
// that are not stored, or not solid yet, are lazy.
func (ts *tipScorer) Score(stagingArea *model.StagingArea, blockID *externalapi.BlockID) (externalapi.TipScore, error) {
	_, presence, err := ts.dagTopologyManager.Lookup(stagingArea, blockID)
	if err != nil {
		return externalapi.TipScoreLazy, err
	}
	if presence != model.BlockPresent {
		return externalapi.TipScoreLazy, nil
	}

	metadata, err := ts.dagTopologyManager.Metadata(stagingArea, blockID)
	if database.IsNotFoundError(err) {
		return externalapi.TipScoreLazy, nil
	}
	if err != nil {
		return externalapi.TipScoreLazy, err
	}
	omrsi, ymrsi, ok := metadata.ConeIndexes()
	if !ok {
		return externalapi.TipScoreLazy, nil
	}

	lsmi, err := ts.consensusStateStore.LatestSolidMilestoneIndex(ts.databaseContext, stagingArea)
	if err != nil {
		return externalapi.TipScoreLazy, err
	}
	return CalculateScore(ts.params, lsmi, omrsi.Index, ymrsi.Index), nil
}

// CalculateScore classifies a block with the given cone indexes against
// lsmi.
func CalculateScore(params *dagconfig.Params, lsmi, omrsi, ymrsi externalapi.MilestoneIndex) externalapi.TipScore {
	deltaOMRSI := distance(lsmi, omrsi)
	deltaYMRSI := distance(lsmi, ymrsi)

	if deltaYMRSI > params.YMRSIDelta || deltaOMRSI > params.BelowMaxDepth {
		return externalapi.TipScoreLazy
	}
	if deltaOMRSI > params.OMRSIDelta {
		return externalapi.TipScoreSemiLazy
	}
	return externalapi.TipScoreNonLazy
}

// PromoteOrReattach tells whether a solid, unreferenced block with the
// given cone indexes should be promoted or reattached.
func PromoteOrReattach(params *dagconfig.Params,
	lsmi, omrsi, ymrsi externalapi.MilestoneIndex) (shouldPromote, shouldReattach bool) {

	deltaOMRSI := distance(lsmi, omrsi)
	deltaYMRSI := distance(lsmi, ymrsi)

	if deltaOMRSI > params.BelowMaxDepth {
		return false, true
	}
	if deltaYMRSI > params.YMRSIDelta || deltaOMRSI > params.OMRSIDelta {
		return true, false
	}
	return false, false
}

func distance(lsmi, index externalapi.MilestoneIndex) externalapi.MilestoneIndex {
	if index >= lsmi {
		return 0
	}
	return lsmi - index
}

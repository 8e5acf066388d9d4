package tipselection

import (
	"math/rand"
	"sync"
	"time"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashset"
	"github.com/pkg/errors"
)

type tip struct {
	blockID        *externalapi.BlockID
	children       hashset.BlockIDSet
	timeFirstChild time.Time
}

// Clock returns the current time. It's injectable so that tests control
// the retention rules.
type Clock func() time.Time

// OnTipsChangedFunc is called with the pool size after every mutation
type OnTipsChangedFunc func(tipCount int)

type tipSelector struct {
	params             *dagconfig.Params
	tipScorer          model.TipScorer
	dagTopologyManager model.DAGTopologyManager
	clock              Clock
	onTipsChanged      OnTipsChangedFunc

	// writeMutex serializes mutations. tipsLock guards the map itself so
	// readers never wait for a whole mutation to finish.
	writeMutex sync.Mutex
	tipsLock   sync.RWMutex
	tips       map[externalapi.BlockID]*tip

	randomMutex sync.Mutex
	random      *rand.Rand
}

// NewTipSelector instantiates a new TipSelector
func NewTipSelector(
	params *dagconfig.Params,
	tipScorer model.TipScorer,
	dagTopologyManager model.DAGTopologyManager,
	clock Clock,
	random *rand.Rand,
	onTipsChanged OnTipsChangedFunc) model.TipSelector {

	if clock == nil {
		clock = time.Now
	}
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &tipSelector{
		params:             params,
		tipScorer:          tipScorer,
		dagTopologyManager: dagTopologyManager,
		clock:              clock,
		onTipsChanged:      onTipsChanged,
		tips:               make(map[externalapi.BlockID]*tip),
		random:             random,
	}
}

// AddTip adds blockID to the pool if it's non-lazy, and links it to its
// parents that are pooled. Parents that break a retention rule because of
// the new child are evicted.
func (ts *tipSelector) AddTip(blockID *externalapi.BlockID) (bool, error) {
	ts.writeMutex.Lock()
	defer ts.writeMutex.Unlock()

	if ts.contains(blockID) {
		return false, nil
	}

	stagingArea := model.NewStagingArea()
	score, err := ts.tipScorer.Score(stagingArea, blockID)
	if err != nil {
		return false, err
	}
	if score != externalapi.TipScoreNonLazy {
		log.Tracef("Block %s is not a tip candidate: %s", blockID, score)
		return false, nil
	}
	parents, err := ts.dagTopologyManager.Parents(stagingArea, blockID)
	if err != nil {
		return false, err
	}

	now := ts.clock()

	ts.tipsLock.Lock()
	ts.tips[*blockID] = &tip{
		blockID:  blockID,
		children: hashset.New(),
	}
	for _, parentID := range parents {
		parentTip, ok := ts.tips[*parentID]
		if !ok {
			continue
		}
		if len(parentTip.children) == 0 {
			parentTip.timeFirstChild = now
		}
		parentTip.children.Add(blockID)

		if ts.violatesRetentionRules(parentTip, now) {
			delete(ts.tips, *parentID)
			log.Tracef("Evicted tip %s after it got child %s", parentID, blockID)
		}
	}
	tipCount := len(ts.tips)
	ts.tipsLock.Unlock()

	ts.notify(tipCount)
	return true, nil
}

// violatesRetentionRules must be called with tipsLock held
func (ts *tipSelector) violatesRetentionRules(t *tip, now time.Time) bool {
	if len(t.children) == 0 {
		return false
	}
	if len(ts.tips) > ts.params.MaxNonLazyTips {
		return true
	}
	if len(t.children) > ts.params.MaxChildren {
		return true
	}
	return now.Sub(t.timeFirstChild) > ts.params.MaxAgeAfterFirstChild
}

// UpdateScores rescores every pooled tip against the current state and
// evicts the ones that are no longer non-lazy, or that are past their
// retention. It returns the number of evicted tips.
func (ts *tipSelector) UpdateScores() (int, error) {
	ts.writeMutex.Lock()
	defer ts.writeMutex.Unlock()

	now := ts.clock()
	stagingArea := model.NewStagingArea()

	var toEvict []*externalapi.BlockID
	for _, t := range ts.snapshot() {
		score, err := ts.tipScorer.Score(stagingArea, t.blockID)
		if err != nil {
			return 0, err
		}
		if score != externalapi.TipScoreNonLazy {
			toEvict = append(toEvict, t.blockID)
			continue
		}

		ts.tipsLock.RLock()
		expired := ts.violatesRetentionRules(t, now)
		ts.tipsLock.RUnlock()
		if expired {
			toEvict = append(toEvict, t.blockID)
		}
	}

	if len(toEvict) == 0 {
		return 0, nil
	}

	ts.tipsLock.Lock()
	for _, blockID := range toEvict {
		delete(ts.tips, *blockID)
	}
	tipCount := len(ts.tips)
	ts.tipsLock.Unlock()

	log.Debugf("Evicted %d tips, %d left", len(toEvict), tipCount)
	ts.notify(tipCount)
	return len(toEvict), nil
}

// SelectTips returns up to TipSelectionCount distinct tips, chosen
// uniformly at random. It returns all tips if there aren't more.
func (ts *tipSelector) SelectTips() ([]*externalapi.BlockID, error) {
	tips := ts.Tips()
	if len(tips) == 0 {
		return nil, errors.WithStack(ruleerrors.ErrNoTipsAvailable)
	}
	if len(tips) <= ts.params.TipSelectionCount {
		return tips, nil
	}

	ts.randomMutex.Lock()
	ts.random.Shuffle(len(tips), func(i, j int) {
		tips[i], tips[j] = tips[j], tips[i]
	})
	ts.randomMutex.Unlock()

	return tips[:ts.params.TipSelectionCount], nil
}

// Tips returns the pooled tips
func (ts *tipSelector) Tips() []*externalapi.BlockID {
	ts.tipsLock.RLock()
	defer ts.tipsLock.RUnlock()

	tips := make([]*externalapi.BlockID, 0, len(ts.tips))
	for _, t := range ts.tips {
		tips = append(tips, t.blockID)
	}
	return tips
}

// Len returns the number of pooled tips
func (ts *tipSelector) Len() int {
	ts.tipsLock.RLock()
	defer ts.tipsLock.RUnlock()

	return len(ts.tips)
}

func (ts *tipSelector) contains(blockID *externalapi.BlockID) bool {
	ts.tipsLock.RLock()
	defer ts.tipsLock.RUnlock()

	_, ok := ts.tips[*blockID]
	return ok
}

func (ts *tipSelector) snapshot() []*tip {
	ts.tipsLock.RLock()
	defer ts.tipsLock.RUnlock()

	tips := make([]*tip, 0, len(ts.tips))
	for _, t := range ts.tips {
		tips = append(tips, t)
	}
	return tips
}

func (ts *tipSelector) notify(tipCount int) {
	if ts.onTipsChanged != nil {
		ts.onTipsChanged(tipCount)
	}
}

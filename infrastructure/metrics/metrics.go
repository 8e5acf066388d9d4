package metrics

import (
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tangle"

// Collector exports the activity of a tangle as prometheus metrics. It is
// fed through the callbacks returned by TangleEvents.
type Collector struct {
	blocksAttached       prometheus.Counter
	blocksSolid          prometheus.Counter
	missingAncestors     prometheus.Counter
	milestonesConfirmed  prometheus.Counter
	milestonesInvalid    prometheus.Counter
	latestSolidMilestone prometheus.Gauge
	referencedBlocks     *prometheus.CounterVec
	conflicts            *prometheus.CounterVec
	whiteFlagDuration    prometheus.Histogram
	tipPoolSize          prometheus.Gauge
	pruningIndex         prometheus.Gauge
	prunedBlocks         prometheus.Counter
}

// New creates a Collector and registers its metrics with registerer
func New(registerer prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		blocksAttached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_attached_total",
			Help:      "Number of blocks stored in the tangle",
		}),
		blocksSolid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_solid_total",
			Help:      "Number of blocks that became solid",
		}),
		missingAncestors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_ancestors_total",
			Help:      "Number of missing ancestors reported while solidifying",
		}),
		milestonesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestones_confirmed_total",
			Help:      "Number of milestones confirmed by white-flag",
		}),
		milestonesInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestones_invalid_total",
			Help:      "Number of milestones that failed confirmation",
		}),
		latestSolidMilestone: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_solid_milestone_index",
			Help:      "Index of the latest confirmed milestone",
		}),
		referencedBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referenced_blocks_total",
			Help:      "Number of blocks referenced by milestones, by ledger inclusion state",
		}, []string{"state"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicting_blocks_total",
			Help:      "Number of conflicting blocks, by conflict reason",
		}, []string{"reason"}),
		whiteFlagDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "milestone_confirmation_seconds",
			Help:      "Time it takes to confirm a milestone",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		tipPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tip_pool_size",
			Help:      "Number of non-lazy tips",
		}),
		pruningIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pruning_index",
			Help:      "Index of the latest pruned milestone",
		}),
		prunedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_blocks_total",
			Help:      "Number of blocks deleted by pruning",
		}),
	}

	collectors := []prometheus.Collector{
		c.blocksAttached,
		c.blocksSolid,
		c.missingAncestors,
		c.milestonesConfirmed,
		c.milestonesInvalid,
		c.latestSolidMilestone,
		c.referencedBlocks,
		c.conflicts,
		c.whiteFlagDuration,
		c.tipPoolSize,
		c.pruningIndex,
		c.prunedBlocks,
	}
	for _, collector := range collectors {
		err := registerer.Register(collector)
		if err != nil {
			return nil, errors.Wrap(err, "failed to register tangle metrics")
		}
	}
	return c, nil
}

// TangleEvents returns callbacks that feed c. Callbacks already set in
// next are called after c is updated, so that the returned events can
// replace next.
func (c *Collector) TangleEvents(next *tangle.Events) *tangle.Events {
	if next == nil {
		next = &tangle.Events{}
	}
	return &tangle.Events{
		OnBlockAttached: func(blockID *externalapi.BlockID) {
			c.blocksAttached.Inc()
			if next.OnBlockAttached != nil {
				next.OnBlockAttached(blockID)
			}
		},
		OnBlockSolid: func(blockID *externalapi.BlockID) {
			c.blocksSolid.Inc()
			if next.OnBlockSolid != nil {
				next.OnBlockSolid(blockID)
			}
		},
		OnMissingAncestors: func(blockIDs []*externalapi.BlockID) {
			c.missingAncestors.Add(float64(len(blockIDs)))
			if next.OnMissingAncestors != nil {
				next.OnMissingAncestors(blockIDs)
			}
		},
		OnMilestoneSolid: next.OnMilestoneSolid,
		OnMilestoneConfirmed: func(mutations *externalapi.WhiteFlagMutations, duration time.Duration) {
			c.observeConfirmation(mutations, duration)
			if next.OnMilestoneConfirmed != nil {
				next.OnMilestoneConfirmed(mutations, duration)
			}
		},
		OnMilestoneInvalid: func(index externalapi.MilestoneIndex, err error) {
			c.milestonesInvalid.Inc()
			if next.OnMilestoneInvalid != nil {
				next.OnMilestoneInvalid(index, err)
			}
		},
		OnTipsChanged: func(tipCount int) {
			c.tipPoolSize.Set(float64(tipCount))
			if next.OnTipsChanged != nil {
				next.OnTipsChanged(tipCount)
			}
		},
		OnMilestoneIndexPruned: func(index externalapi.MilestoneIndex, prunedBlocks int) {
			c.pruningIndex.Set(float64(index))
			c.prunedBlocks.Add(float64(prunedBlocks))
			if next.OnMilestoneIndexPruned != nil {
				next.OnMilestoneIndexPruned(index, prunedBlocks)
			}
		},
	}
}

func (c *Collector) observeConfirmation(mutations *externalapi.WhiteFlagMutations, duration time.Duration) {
	c.milestonesConfirmed.Inc()
	c.latestSolidMilestone.Set(float64(mutations.MilestoneIndex))
	c.whiteFlagDuration.Observe(duration.Seconds())

	c.referencedBlocks.WithLabelValues(externalapi.LedgerInclusionStateIncluded.String()).
		Add(float64(len(mutations.IncludedBlocks)))
	c.referencedBlocks.WithLabelValues(externalapi.LedgerInclusionStateNoTransaction.String()).
		Add(float64(len(mutations.ExcludedWithoutTransactions)))
	c.referencedBlocks.WithLabelValues(externalapi.LedgerInclusionStateConflicting.String()).
		Add(float64(len(mutations.ExcludedWithConflicts)))
	for _, conflicted := range mutations.ExcludedWithConflicts {
		c.conflicts.WithLabelValues(conflicted.Conflict.String()).Inc()
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorFollowsEvents(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector, err := New(registry)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	confirmedCalls := 0
	events := collector.TangleEvents(&tangle.Events{
		OnMilestoneConfirmed: func(*externalapi.WhiteFlagMutations, time.Duration) {
			confirmedCalls++
		},
	})

	events.OnBlockAttached(testutils.BlockIDFromByte(1))
	events.OnBlockAttached(testutils.BlockIDFromByte(2))
	events.OnBlockSolid(testutils.BlockIDFromByte(1))
	events.OnMissingAncestors([]*externalapi.BlockID{testutils.BlockIDFromByte(3), testutils.BlockIDFromByte(4)})
	events.OnTipsChanged(7)
	events.OnMilestoneConfirmed(&externalapi.WhiteFlagMutations{
		MilestoneIndex:              12,
		IncludedBlocks:              []*externalapi.BlockID{testutils.BlockIDFromByte(5)},
		ExcludedWithoutTransactions: []*externalapi.BlockID{testutils.BlockIDFromByte(6), testutils.BlockIDFromByte(7)},
		ExcludedWithConflicts: []*externalapi.ConflictedBlock{
			{BlockID: testutils.BlockIDFromByte(8), Conflict: externalapi.ConflictInputUTXONotFound},
		},
	}, 5*time.Millisecond)
	events.OnMilestoneIndexPruned(3, 9)

	tests := []struct {
		name     string
		metric   prometheus.Collector
		expected float64
	}{
		{name: "attached", metric: collector.blocksAttached, expected: 2},
		{name: "solid", metric: collector.blocksSolid, expected: 1},
		{name: "missing", metric: collector.missingAncestors, expected: 2},
		{name: "tips", metric: collector.tipPoolSize, expected: 7},
		{name: "confirmed", metric: collector.milestonesConfirmed, expected: 1},
		{name: "lsmi", metric: collector.latestSolidMilestone, expected: 12},
		{name: "included", metric: collector.referencedBlocks.WithLabelValues("included"), expected: 1},
		{name: "no transaction", metric: collector.referencedBlocks.WithLabelValues("noTransaction"), expected: 2},
		{name: "conflicting", metric: collector.referencedBlocks.WithLabelValues("conflicting"), expected: 1},
		{name: "not found", metric: collector.conflicts.WithLabelValues("inputUTXONotFound"), expected: 1},
		{name: "pruning index", metric: collector.pruningIndex, expected: 3},
		{name: "pruned", metric: collector.prunedBlocks, expected: 9},
	}
	for _, test := range tests {
		actual := testutil.ToFloat64(test.metric)
		if actual != test.expected {
			t.Fatalf("%s: expected %f, got %f", test.name, test.expected, actual)
		}
	}
	if confirmedCalls != 1 {
		t.Fatalf("the chained callback is expected to be called once, got %d", confirmedCalls)
	}
	if events.OnMilestoneSolid != nil {
		t.Fatalf("an unset chained callback is expected to stay unset")
	}
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	_, err = New(registry)
	if err == nil {
		t.Fatalf("registering the collector twice is expected to fail")
	}
}

package externalapi

import (
	"testing"
	"time"
)

func TestBlockMetadataTransitionsAreMonotonic(t *testing.T) {
	id := &BlockID{hashArray: [BlockIDSize]byte{1}}
	root := &BlockID{hashArray: [BlockIDSize]byte{2}}
	md := NewBlockMetadata(id, time.Unix(100, 0), 10)

	if _, _, ok := md.ConeIndexes(); ok {
		t.Fatalf("cone indexes must be undefined before the block is solid")
	}

	omrsi := &ConeIndex{Index: 5, RootID: root}
	ymrsi := &ConeIndex{Index: 9, RootID: root}
	if !md.SetSolid(omrsi, ymrsi, time.Unix(101, 0)) {
		t.Fatalf("SetSolid unexpectedly returned false")
	}
	if md.SetSolid(&ConeIndex{Index: 1, RootID: root}, ymrsi, time.Unix(102, 0)) {
		t.Fatalf("second SetSolid unexpectedly returned true")
	}

	// Moving an index backwards is rejected
	if md.UpdateConeIndexes(&ConeIndex{Index: 4, RootID: root}, ymrsi) {
		t.Fatalf("UpdateConeIndexes accepted an OMRSI that moves backwards")
	}
	if !md.UpdateConeIndexes(&ConeIndex{Index: 6, RootID: root}, ymrsi) {
		t.Fatalf("UpdateConeIndexes rejected a forward OMRSI")
	}
	if md.UpdateConeIndexes(&ConeIndex{Index: 6, RootID: root}, ymrsi) {
		t.Fatalf("UpdateConeIndexes reported a change for identical indexes")
	}

	if !md.SetReferenced(11, time.Unix(103, 0), LedgerInclusionStateNoTransaction, ConflictNone) {
		t.Fatalf("SetReferenced unexpectedly returned false")
	}
	if md.SetReferenced(12, time.Unix(104, 0), LedgerInclusionStateIncluded, ConflictNone) {
		t.Fatalf("a block must not be referenced twice")
	}
	index, ok := md.ReferencedIndex()
	if !ok || index != 11 {
		t.Fatalf("expected referenced index 11 but got %d (%t)", index, ok)
	}
	gotOMRSI, gotYMRSI, _ := md.ConeIndexes()
	if gotOMRSI.Index != 11 || gotYMRSI.Index != 11 || !gotOMRSI.RootID.Equal(id) {
		t.Fatalf("referenced block cone indexes were not narrowed: %s %s", gotOMRSI, gotYMRSI)
	}
	if !md.Flags().Has(MetadataFlagSolid | MetadataFlagReferenced) {
		t.Fatalf("flags lost a transition: %b", md.Flags())
	}
}

func TestSnapshotWithReferencedLeavesLiveMetadataUntouched(t *testing.T) {
	id := &BlockID{hashArray: [BlockIDSize]byte{3}}
	md := NewBlockMetadata(id, time.Unix(100, 0), 0)
	md.SetSolid(&ConeIndex{Index: 1, RootID: id}, &ConeIndex{Index: 1, RootID: id}, time.Unix(100, 0))

	referenced := md.Snapshot().WithReferenced(2, time.Unix(200, 0), LedgerInclusionStateIncluded, ConflictNone)
	if !referenced.Flags.Has(MetadataFlagReferenced) || referenced.ReferencedIndex != 2 {
		t.Fatalf("WithReferenced didn't apply the transition: %+v", referenced)
	}
	if md.IsReferenced() {
		t.Fatalf("WithReferenced mutated the live metadata")
	}
}

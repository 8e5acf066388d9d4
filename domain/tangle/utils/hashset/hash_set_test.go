package hashset

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

func blockID(b byte) *externalapi.BlockID {
	var id [externalapi.BlockIDSize]byte
	id[0] = b
	return externalapi.NewBlockIDFromByteArray(&id)
}

func TestBlockIDSet(t *testing.T) {
	set := NewFromSlice(blockID(1), blockID(2), blockID(2))
	if len(set) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(set))
	}
	if !set.ContainsAllInSlice([]*externalapi.BlockID{blockID(1), blockID(2)}) {
		t.Fatalf("set is missing an added id")
	}

	diff := set.Subtract(NewFromSlice(blockID(2), blockID(3)))
	if len(diff) != 1 || !diff.Contains(blockID(1)) {
		t.Fatalf("unexpected difference %s", diff)
	}

	slice := set.ToSlice()
	if len(slice) != 2 || slice[0].Equal(slice[1]) {
		t.Fatalf("ToSlice returned aliased ids: %s", externalapi.BlockIDsToStrings(slice))
	}

	set.Remove(blockID(1))
	if set.Contains(blockID(1)) {
		t.Fatalf("removed id is still contained")
	}
}

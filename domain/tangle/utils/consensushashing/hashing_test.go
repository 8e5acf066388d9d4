package consensushashing

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

func TestBlockIDDependsOnEveryField(t *testing.T) {
	base := &externalapi.Block{
		Parents: []*externalapi.BlockID{externalapi.EmptyBlockID},
		Payload: &externalapi.TaggedData{Tag: []byte("a")},
		Nonce:   1,
	}
	baseID := BlockID(base)
	if !baseID.Equal(BlockID(base.Clone())) {
		t.Fatalf("BlockID is not deterministic")
	}

	tests := []struct {
		name   string
		mutate func(block *externalapi.Block)
	}{
		{name: "nonce", mutate: func(block *externalapi.Block) { block.Nonce++ }},
		{name: "payload", mutate: func(block *externalapi.Block) { block.Payload = nil }},
		{name: "parents", mutate: func(block *externalapi.Block) {
			block.Parents = append(block.Parents, baseID)
		}},
	}
	for _, test := range tests {
		block := base.Clone()
		test.mutate(block)
		if BlockID(block).Equal(baseID) {
			t.Fatalf("%s: changing the field did not change the block id", test.name)
		}
	}
}

func TestHashDomainsAreSeparated(t *testing.T) {
	tx := &externalapi.Transaction{}
	txID := TransactionID(tx)
	essenceHash := MilestoneEssenceHash(&externalapi.MilestonePayload{})
	if txID == essenceHash {
		t.Fatalf("empty transaction and empty milestone essence hash to the same value")
	}
}

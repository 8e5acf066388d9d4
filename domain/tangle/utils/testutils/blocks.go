package testutils

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// BlockIDFromByte returns a block id whose first byte is b
func BlockIDFromByte(b byte) *externalapi.BlockID {
	var id [externalapi.BlockIDSize]byte
	id[0] = b
	return externalapi.NewBlockIDFromByteArray(&id)
}

// SortedParents returns a copy of parents sorted ascending by bytes, as
// blocks require
func SortedParents(parents ...*externalapi.BlockID) []*externalapi.BlockID {
	sorted := externalapi.CloneBlockIDs(parents)
	externalapi.SortBlockIDs(sorted)
	return sorted
}

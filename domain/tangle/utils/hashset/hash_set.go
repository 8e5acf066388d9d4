package hashset

import (
	"strings"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// BlockIDSet is an unordered set of block ids
type BlockIDSet map[externalapi.BlockID]struct{}

// New returns an empty set
func New() BlockIDSet {
	return BlockIDSet{}
}

// NewFromSlice returns a set holding the given ids
func NewFromSlice(blockIDs ...*externalapi.BlockID) BlockIDSet {
	set := New()

	for _, blockID := range blockIDs {
		set.Add(blockID)
	}

	return set
}

func (hs BlockIDSet) String() string {
	idStrings := make([]string, 0, len(hs))
	for blockID := range hs {
		idStrings = append(idStrings, blockID.String())
	}
	return strings.Join(idStrings, ", ")
}

// Add adds blockID to the set
func (hs BlockIDSet) Add(blockID *externalapi.BlockID) {
	hs[*blockID] = struct{}{}
}

// Remove removes blockID from the set
func (hs BlockIDSet) Remove(blockID *externalapi.BlockID) {
	delete(hs, *blockID)
}

// Contains returns whether blockID is in the set
func (hs BlockIDSet) Contains(blockID *externalapi.BlockID) bool {
	_, ok := hs[*blockID]
	return ok
}

// Subtract returns the ids of hs that are not in other
func (hs BlockIDSet) Subtract(other BlockIDSet) BlockIDSet {
	diff := New()

	for blockID := range hs {
		if !other.Contains(&blockID) {
			diff.Add(&blockID)
		}
	}

	return diff
}

// ContainsAllInSlice returns whether every id of slice is in the set
func (hs BlockIDSet) ContainsAllInSlice(slice []*externalapi.BlockID) bool {
	for _, blockID := range slice {
		if !hs.Contains(blockID) {
			return false
		}
	}

	return true
}

// ToSlice returns the ids of the set in no particular order
func (hs BlockIDSet) ToSlice() []*externalapi.BlockID {
	slice := make([]*externalapi.BlockID, 0, len(hs))

	for blockID := range hs {
		blockID := blockID
		slice = append(slice, &blockID)
	}

	return slice
}

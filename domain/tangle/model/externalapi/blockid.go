package externalapi

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/pkg/errors"
)

// BlockIDSize of array used to store block identifiers.
const BlockIDSize = 32

// BlockID is the content hash identifying a block.
type BlockID struct {
	hashArray [BlockIDSize]byte
}

// NewBlockIDFromByteArray constructs a new BlockID out of a byte array
func NewBlockIDFromByteArray(hashBytes *[BlockIDSize]byte) *BlockID {
	return &BlockID{
		hashArray: *hashBytes,
	}
}

// NewBlockIDFromByteSlice constructs a new BlockID out of a byte slice.
// Returns an error if the length of the byte slice is not exactly `BlockIDSize`
func NewBlockIDFromByteSlice(hashBytes []byte) (*BlockID, error) {
	if len(hashBytes) != BlockIDSize {
		return nil, errors.Errorf("invalid block id size. Want: %d, got: %d",
			BlockIDSize, len(hashBytes))
	}
	blockID := BlockID{}
	copy(blockID.hashArray[:], hashBytes)
	return &blockID, nil
}

// NewBlockIDFromString constructs a new BlockID out of a hex-encoded string.
func NewBlockIDFromString(blockIDString string) (*BlockID, error) {
	expectedLength := BlockIDSize * 2
	if len(blockIDString) != expectedLength {
		return nil, errors.Errorf("block id string length is %d, while it should be %d",
			len(blockIDString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(blockIDString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewBlockIDFromByteSlice(hashBytes)
}

// EmptyBlockID is the all-zero identifier. A fresh tangle treats it as its
// root solid entry point.
var EmptyBlockID = &BlockID{}

// String returns the BlockID as the hexadecimal string of the hash.
func (id BlockID) String() string {
	return hex.EncodeToString(id.hashArray[:])
}

// ByteArray returns the bytes in this id represented as a byte array.
// The id bytes are cloned, therefore it is safe to modify the resulting array.
func (id *BlockID) ByteArray() *[BlockIDSize]byte {
	arrayClone := id.hashArray
	return &arrayClone
}

// ByteSlice returns the bytes in this id represented as a byte slice.
// The id bytes are cloned, therefore it is safe to modify the resulting slice.
func (id *BlockID) ByteSlice() []byte {
	return id.ByteArray()[:]
}

// Equal returns whether id equals to other
func (id *BlockID) Equal(other *BlockID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.hashArray == other.hashArray
}

// Less returns true if id is less than other, comparing bytes
// lexicographically.
func (id *BlockID) Less(other *BlockID) bool {
	return bytes.Compare(id.hashArray[:], other.hashArray[:]) < 0
}

// Clone clones the id
func (id *BlockID) Clone() *BlockID {
	idClone := *id
	return &idClone
}

// BlockIDsToStrings converts a slice of block ids to a slice of the corresponding strings
func BlockIDsToStrings(ids []*BlockID) []string {
	strings := make([]string, len(ids))
	for i, id := range ids {
		strings[i] = id.String()
	}
	return strings
}

// CloneBlockIDs returns a clone of the given block ids slice.
func CloneBlockIDs(ids []*BlockID) []*BlockID {
	clone := make([]*BlockID, len(ids))
	for i, id := range ids {
		clone[i] = id.Clone()
	}
	return clone
}

// BlockIDsEqual returns whether the given slices are equal.
func BlockIDsEqual(a, b []*BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	for i, id := range a {
		if !id.Equal(b[i]) {
			return false
		}
	}
	return true
}

// SortBlockIDs sorts ids ascending by their bytes
func SortBlockIDs(ids []*BlockID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
}

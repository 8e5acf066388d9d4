// Package merkle computes the merkle root committing to the blocks a
// milestone included in the ledger, in the tree shape of RFC 6962.
package merkle

import (
	"math/bits"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashes"
)

const (
	leafHashPrefix = 0x00
	nodeHashPrefix = 0x01
)

// CalculateRoot returns the merkle root of blockIDs in the given order.
// The root of an empty list is the hash of no data.
func CalculateRoot(blockIDs []*externalapi.BlockID) externalapi.Hash {
	if len(blockIDs) == 0 {
		return hashes.NewMerkleWriter().Finalize()
	}
	if len(blockIDs) == 1 {
		return leafHash(blockIDs[0])
	}

	split := largestPowerOfTwoBelow(len(blockIDs))
	left := CalculateRoot(blockIDs[:split])
	right := CalculateRoot(blockIDs[split:])
	return nodeHash(&left, &right)
}

func leafHash(blockID *externalapi.BlockID) externalapi.Hash {
	writer := hashes.NewMerkleWriter()
	writer.InfallibleWrite([]byte{leafHashPrefix})
	writer.InfallibleWrite(blockID.ByteSlice())
	return writer.Finalize()
}

func nodeHash(left, right *externalapi.Hash) externalapi.Hash {
	writer := hashes.NewMerkleWriter()
	writer.InfallibleWrite([]byte{nodeHashPrefix})
	writer.InfallibleWrite(left[:])
	writer.InfallibleWrite(right[:])
	return writer.Finalize()
}

// largestPowerOfTwoBelow returns the largest power of two strictly less
// than n. n must be at least 2.
func largestPowerOfTwoBelow(n int) int {
	return 1 << (bits.Len(uint(n-1)) - 1)
}

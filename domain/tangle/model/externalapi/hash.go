package externalapi

import "encoding/hex"

// HashSize is the size of every non-block-id hash in the tangle.
const HashSize = 32

// Hash is a 32-byte digest: transaction identifiers, merkle roots and
// ledger commitments.
type Hash [HashSize]byte

// String returns the hexadecimal representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// TransactionID is the identifier of a transaction.
type TransactionID = Hash

// MilestoneIndex is the sequence number of a milestone.
type MilestoneIndex uint32

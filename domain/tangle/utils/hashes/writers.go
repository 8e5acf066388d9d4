package hashes

import (
	"hash"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is blake2b.
// This can only be created via one of the domain separated constructors
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() externalapi.Hash {
	var sum externalapi.Hash
	copy(sum[:], h.Sum(sum[:0]))
	return sum
}

const (
	blockIDDomain          = "BlockID"
	transactionIDDomain    = "TransactionID"
	milestoneEssenceDomain = "MilestoneEssence"
)

func newDomainWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// NewBlockIDWriter returns a new HashWriter used for block ids
func NewBlockIDWriter() HashWriter {
	return newDomainWriter(blockIDDomain)
}

// NewTransactionIDWriter returns a new HashWriter used for transaction ids
func NewTransactionIDWriter() HashWriter {
	return newDomainWriter(transactionIDDomain)
}

// NewMilestoneEssenceWriter returns a new HashWriter used for the message
// signed by the coordinator
func NewMilestoneEssenceWriter() HashWriter {
	return newDomainWriter(milestoneEssenceDomain)
}

// NewMerkleWriter returns an unkeyed blake2b-256 HashWriter for merkle
// tree nodes. Leaves and inner nodes are separated by their prefix byte.
func NewMerkleWriter() HashWriter {
	blake, err := blake2b.New256(nil)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. unkeyed blake2b cannot fail"))
	}
	return HashWriter{blake}
}

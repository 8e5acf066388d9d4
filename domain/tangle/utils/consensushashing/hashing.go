package consensushashing

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/hashes"
)

// BlockID returns the id of the given block
func BlockID(block *externalapi.Block) *externalapi.BlockID {
	writer := hashes.NewBlockIDWriter()
	writer.InfallibleWrite(serialization.SerializeBlock(block))
	hash := writer.Finalize()
	return externalapi.NewBlockIDFromByteArray((*[externalapi.BlockIDSize]byte)(&hash))
}

// TransactionID returns the id of the given transaction
func TransactionID(tx *externalapi.Transaction) externalapi.TransactionID {
	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite(serialization.SerializeTransaction(tx))
	return writer.Finalize()
}

// MilestoneEssenceHash returns the hash the coordinator signs for the given
// milestone payload. Signatures are not part of it.
func MilestoneEssenceHash(payload *externalapi.MilestonePayload) externalapi.Hash {
	writer := hashes.NewMilestoneEssenceWriter()
	writer.InfallibleWrite(serialization.SerializeMilestoneEssence(payload))
	return writer.Finalize()
}

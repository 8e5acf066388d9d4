package model

import "github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"

// LedgerCommitment is an order-independent accumulator over the unspent
// outputs of the ledger.
type LedgerCommitment interface {
	AddOutput(output *externalapi.UnspentOutput)
	RemoveOutput(output *externalapi.UnspentOutput)
	Hash() externalapi.Hash
	Serialize() []byte
	Clone() LedgerCommitment
}

package ledgercommitment

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
)

type ledgerCommitment struct {
	ms *muhash.MuHash
}

// New returns the commitment of an empty ledger
func New() model.LedgerCommitment {
	return &ledgerCommitment{ms: muhash.NewMuHash()}
}

// FromBytes deserializes the given bytes slice and returns a commitment.
func FromBytes(commitmentBytes []byte) (model.LedgerCommitment, error) {
	serialized := &muhash.SerializedMuHash{}
	if len(serialized) != len(commitmentBytes) {
		return nil, errors.Errorf("ledger commitment bytes expected to be in length of %d but got %d",
			len(serialized), len(commitmentBytes))
	}
	copy(serialized[:], commitmentBytes)
	ms, err := muhash.DeserializeMuHash(serialized)
	if err != nil {
		return nil, err
	}

	return &ledgerCommitment{ms: ms}, nil
}

func (lc *ledgerCommitment) AddOutput(output *externalapi.UnspentOutput) {
	lc.ms.Add(element(output))
}

func (lc *ledgerCommitment) RemoveOutput(output *externalapi.UnspentOutput) {
	lc.ms.Remove(element(output))
}

func (lc *ledgerCommitment) Hash() externalapi.Hash {
	var hash externalapi.Hash
	finalized := lc.ms.Finalize()
	copy(hash[:], finalized[:])
	return hash
}

func (lc *ledgerCommitment) Serialize() []byte {
	return lc.ms.Serialize()[:]
}

func (lc *ledgerCommitment) Clone() model.LedgerCommitment {
	return &ledgerCommitment{ms: lc.ms.Clone()}
}

func element(output *externalapi.UnspentOutput) []byte {
	b := serialization.OutpointToKey(&output.Outpoint)
	return append(b, serialization.SerializeUTXOEntry(output.Entry)...)
}

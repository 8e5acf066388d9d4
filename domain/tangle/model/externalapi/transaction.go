package externalapi

import "fmt"

// AddressSize is the length of an output address.
const AddressSize = 32

// Address is the owner of an output.
type Address [AddressSize]byte

// Outpoint references a transaction output.
type Outpoint struct {
	TransactionID TransactionID
	Index         uint16
}

// String stringifies an outpoint.
func (op Outpoint) String() string {
	return fmt.Sprintf("(%s: %d)", op.TransactionID, op.Index)
}

// Output is a transaction output.
type Output struct {
	Address Address
	Amount  uint64
}

// Clone returns a clone of Output
func (output *Output) Clone() *Output {
	outputClone := *output
	return &outputClone
}

// Transaction is a ledger-mutating block payload.
type Transaction struct {
	Inputs  []*Outpoint
	Outputs []*Output
}

// PayloadType implements Payload.
func (*Transaction) PayloadType() PayloadType { return PayloadTypeTransaction }

// ClonePayload implements Payload.
func (tx *Transaction) ClonePayload() Payload {
	return tx.Clone()
}

// Clone returns a clone of Transaction
func (tx *Transaction) Clone() *Transaction {
	inputsClone := make([]*Outpoint, len(tx.Inputs))
	for i, input := range tx.Inputs {
		inputClone := *input
		inputsClone[i] = &inputClone
	}
	outputsClone := make([]*Output, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputsClone[i] = output.Clone()
	}
	return &Transaction{
		Inputs:  inputsClone,
		Outputs: outputsClone,
	}
}

// UTXOEntry is an unspent output together with the index of the milestone
// that booked it into the ledger.
type UTXOEntry struct {
	Output               *Output
	MilestoneIndexBooked MilestoneIndex
}

// UnspentOutput couples an outpoint with its entry.
type UnspentOutput struct {
	Outpoint Outpoint
	Entry    *UTXOEntry
}

// SpentOutput is an output consumed by a white-flag run.
type SpentOutput struct {
	Outpoint              Outpoint
	Entry                 *UTXOEntry
	SpendingTransactionID TransactionID
	MilestoneIndexSpent   MilestoneIndex
}

package serialization

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	utxoEntryFieldOutput               = 1
	utxoEntryFieldMilestoneIndexBooked = 2

	spentOutputFieldEntry                 = 1
	spentOutputFieldSpendingTransactionID = 2
	spentOutputFieldMilestoneIndexSpent   = 3
)

// SerializeUTXOEntry encodes an unspent output entry.
func SerializeUTXOEntry(entry *externalapi.UTXOEntry) []byte {
	b := appendBytesField(nil, utxoEntryFieldOutput, serializeOutput(entry.Output))
	return appendVarintField(b, utxoEntryFieldMilestoneIndexBooked, uint64(entry.MilestoneIndexBooked))
}

// DeserializeUTXOEntry is the inverse of SerializeUTXOEntry.
func DeserializeUTXOEntry(b []byte) (*externalapi.UTXOEntry, error) {
	entry := &externalapi.UTXOEntry{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case utxoEntryFieldOutput:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			entry.Output, err = deserializeOutput(value)
			return n, err
		case utxoEntryFieldMilestoneIndexBooked:
			value, n, err := consumeVarint(num, typ, b)
			entry.MilestoneIndexBooked = externalapi.MilestoneIndex(value)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing utxo entry")
	}
	if entry.Output == nil {
		return nil, errors.New("failed deserializing utxo entry: missing output")
	}
	return entry, nil
}

// SerializeSpentOutput encodes the spent record of an output. The outpoint
// itself is part of the key.
func SerializeSpentOutput(spent *externalapi.SpentOutput) []byte {
	b := appendBytesField(nil, spentOutputFieldEntry, SerializeUTXOEntry(spent.Entry))
	b = appendBytesField(b, spentOutputFieldSpendingTransactionID, spent.SpendingTransactionID[:])
	return appendVarintField(b, spentOutputFieldMilestoneIndexSpent, uint64(spent.MilestoneIndexSpent))
}

// DeserializeSpentOutput is the inverse of SerializeSpentOutput.
func DeserializeSpentOutput(outpoint *externalapi.Outpoint, b []byte) (*externalapi.SpentOutput, error) {
	spent := &externalapi.SpentOutput{Outpoint: *outpoint}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case spentOutputFieldEntry:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			spent.Entry, err = DeserializeUTXOEntry(value)
			return n, err
		case spentOutputFieldSpendingTransactionID:
			return consumeHash(num, typ, b, &spent.SpendingTransactionID)
		case spentOutputFieldMilestoneIndexSpent:
			value, n, err := consumeVarint(num, typ, b)
			spent.MilestoneIndexSpent = externalapi.MilestoneIndex(value)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing spent output")
	}
	return spent, nil
}

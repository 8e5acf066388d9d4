package serialization

import (
	"encoding/binary"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	transactionFieldInputs  = 1
	transactionFieldOutputs = 2

	outpointFieldTransactionID = 1
	outpointFieldIndex         = 2

	outputFieldAddress = 1
	outputFieldAmount  = 2
)

// SerializeTransaction returns the canonical encoding of a transaction.
func SerializeTransaction(tx *externalapi.Transaction) []byte {
	var b []byte
	for _, input := range tx.Inputs {
		b = appendBytesField(b, transactionFieldInputs, serializeOutpoint(input))
	}
	for _, output := range tx.Outputs {
		b = appendBytesField(b, transactionFieldOutputs, serializeOutput(output))
	}
	return b
}

// DeserializeTransaction is the inverse of SerializeTransaction.
func DeserializeTransaction(b []byte) (*externalapi.Transaction, error) {
	tx := &externalapi.Transaction{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case transactionFieldInputs:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			input, err := deserializeOutpoint(value)
			if err != nil {
				return 0, err
			}
			tx.Inputs = append(tx.Inputs, input)
			return n, nil
		case transactionFieldOutputs:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			output, err := deserializeOutput(value)
			if err != nil {
				return 0, err
			}
			tx.Outputs = append(tx.Outputs, output)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing transaction")
	}
	return tx, nil
}

func serializeOutpoint(outpoint *externalapi.Outpoint) []byte {
	b := appendBytesField(nil, outpointFieldTransactionID, outpoint.TransactionID[:])
	return appendVarintField(b, outpointFieldIndex, uint64(outpoint.Index))
}

func deserializeOutpoint(b []byte) (*externalapi.Outpoint, error) {
	outpoint := &externalapi.Outpoint{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case outpointFieldTransactionID:
			return consumeHash(num, typ, b, &outpoint.TransactionID)
		case outpointFieldIndex:
			value, n, err := consumeVarint(num, typ, b)
			outpoint.Index = uint16(value)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}
	return outpoint, nil
}

func serializeOutput(output *externalapi.Output) []byte {
	b := appendBytesField(nil, outputFieldAddress, output.Address[:])
	return appendVarintField(b, outputFieldAmount, output.Amount)
}

func deserializeOutput(b []byte) (*externalapi.Output, error) {
	output := &externalapi.Output{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case outputFieldAddress:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			if len(value) != externalapi.AddressSize {
				return 0, errors.Errorf("invalid address length %d", len(value))
			}
			copy(output.Address[:], value)
			return n, nil
		case outputFieldAmount:
			var n int
			var err error
			output.Amount, n, err = consumeVarint(num, typ, b)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

// OutpointSize is the length of an outpoint serialized as a key.
const OutpointSize = externalapi.HashSize + 2

// OutpointToKey serializes an outpoint into a fixed-width key suffix.
func OutpointToKey(outpoint *externalapi.Outpoint) []byte {
	keyBytes := make([]byte, OutpointSize)
	copy(keyBytes, outpoint.TransactionID[:])
	binary.BigEndian.PutUint16(keyBytes[externalapi.HashSize:], outpoint.Index)
	return keyBytes
}

// KeyToOutpoint is the inverse of OutpointToKey.
func KeyToOutpoint(keyBytes []byte) (*externalapi.Outpoint, error) {
	if len(keyBytes) != OutpointSize {
		return nil, errors.Errorf("invalid outpoint key length %d", len(keyBytes))
	}
	outpoint := &externalapi.Outpoint{Index: binary.BigEndian.Uint16(keyBytes[externalapi.HashSize:])}
	copy(outpoint.TransactionID[:], keyBytes[:externalapi.HashSize])
	return outpoint, nil
}

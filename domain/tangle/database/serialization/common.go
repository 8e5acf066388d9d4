// Package serialization holds the canonical binary encoding of every
// tangle object. The encoding uses protobuf wire primitives with a fixed
// field order, so equal objects always serialize to equal bytes and the
// output can be hashed.
package serialization

import (
	"encoding/binary"
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/util/mstime"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// fieldHandler consumes the value of a single field and returns the number
// of bytes consumed, or a negative protowire error code.
type fieldHandler func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeMessage(b []byte, handle fieldHandler) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "failed consuming tag")
		}
		b = b[n:]

		m, err := handle(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return errors.Wrapf(protowire.ParseError(m), "failed consuming field %d", num)
		}
		b = b[m:]
	}
	return nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return protowire.ConsumeFieldValue(num, typ, b), nil
}

func expectType(num protowire.Number, typ, expected protowire.Type) error {
	if typ != expected {
		return errors.Errorf("field %d has wire type %d, expected %d", num, typ, expected)
	}
	return nil
}

func appendBytesField(b []byte, num protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func appendVarintField(b []byte, num protowire.Number, value uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}

func appendTimeField(b []byte, num protowire.Number, t time.Time) []byte {
	return appendVarintField(b, num, protowire.EncodeZigZag(mstime.TimeToUnixMilli(t)))
}

func consumeVarint(num protowire.Number, typ protowire.Type, b []byte) (uint64, int, error) {
	err := expectType(num, typ, protowire.VarintType)
	if err != nil {
		return 0, 0, err
	}
	value, n := protowire.ConsumeVarint(b)
	return value, n, nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	err := expectType(num, typ, protowire.BytesType)
	if err != nil {
		return nil, 0, err
	}
	value, n := protowire.ConsumeBytes(b)
	return value, n, nil
}

func consumeTime(num protowire.Number, typ protowire.Type, b []byte) (time.Time, int, error) {
	value, n, err := consumeVarint(num, typ, b)
	if err != nil || n < 0 {
		return time.Time{}, n, err
	}
	return mstime.UnixMilliToTime(protowire.DecodeZigZag(value)), n, nil
}

func consumeBlockID(num protowire.Number, typ protowire.Type, b []byte) (*externalapi.BlockID, int, error) {
	value, n, err := consumeBytes(num, typ, b)
	if err != nil || n < 0 {
		return nil, n, err
	}
	blockID, err := externalapi.NewBlockIDFromByteSlice(value)
	if err != nil {
		return nil, 0, err
	}
	return blockID, n, nil
}

func consumeHash(num protowire.Number, typ protowire.Type, b []byte, hash *externalapi.Hash) (int, error) {
	value, n, err := consumeBytes(num, typ, b)
	if err != nil || n < 0 {
		return n, err
	}
	if len(value) != externalapi.HashSize {
		return 0, errors.Errorf("field %d: invalid hash length %d", num, len(value))
	}
	copy(hash[:], value)
	return n, nil
}

// MilestoneIndexToKey serializes a milestone index into a key suffix that
// sorts in index order.
func MilestoneIndexToKey(index externalapi.MilestoneIndex) []byte {
	var keyBytes [4]byte
	binary.BigEndian.PutUint32(keyBytes[:], uint32(index))
	return keyBytes[:]
}

// KeyToMilestoneIndex is the inverse of MilestoneIndexToKey.
func KeyToMilestoneIndex(keyBytes []byte) (externalapi.MilestoneIndex, error) {
	if len(keyBytes) != 4 {
		return 0, errors.Errorf("invalid milestone index key length %d", len(keyBytes))
	}
	return externalapi.MilestoneIndex(binary.BigEndian.Uint32(keyBytes)), nil
}

// SerializeMilestoneIndex serializes a milestone index value.
func SerializeMilestoneIndex(index externalapi.MilestoneIndex) []byte {
	return protowire.AppendVarint(nil, uint64(index))
}

// DeserializeMilestoneIndex is the inverse of SerializeMilestoneIndex.
func DeserializeMilestoneIndex(b []byte) (externalapi.MilestoneIndex, error) {
	value, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, errors.Wrap(protowire.ParseError(n), "failed deserializing milestone index")
	}
	return externalapi.MilestoneIndex(value), nil
}

// SerializeCount serializes a stored counter.
func SerializeCount(count uint64) []byte {
	return protowire.AppendVarint(nil, count)
}

// DeserializeCount is the inverse of SerializeCount.
func DeserializeCount(b []byte) (uint64, error) {
	value, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, errors.Wrap(protowire.ParseError(n), "failed deserializing count")
	}
	return value, nil
}

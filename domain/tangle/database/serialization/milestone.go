package serialization

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	milestonePayloadFieldIndex               = 1
	milestonePayloadFieldTimestamp           = 2
	milestonePayloadFieldParents             = 3
	milestonePayloadFieldInclusionMerkleRoot = 4
	milestonePayloadFieldSignatures          = 5

	signatureFieldPublicKey = 1
	signatureFieldSignature = 2
)

// SerializeMilestoneEssence returns the signed part of a milestone payload:
// everything but the signatures.
func SerializeMilestoneEssence(payload *externalapi.MilestonePayload) []byte {
	return serializeMilestonePayload(payload, false)
}

func serializeMilestonePayload(payload *externalapi.MilestonePayload, withSignatures bool) []byte {
	b := appendVarintField(nil, milestonePayloadFieldIndex, uint64(payload.Index))
	b = appendVarintField(b, milestonePayloadFieldTimestamp, protowire.EncodeZigZag(payload.Timestamp))
	for _, parent := range payload.Parents {
		b = appendBytesField(b, milestonePayloadFieldParents, parent.ByteSlice())
	}
	b = appendBytesField(b, milestonePayloadFieldInclusionMerkleRoot, payload.InclusionMerkleRoot[:])
	if withSignatures {
		for _, signature := range payload.Signatures {
			signatureBytes := appendBytesField(nil, signatureFieldPublicKey, signature.PublicKey[:])
			signatureBytes = appendBytesField(signatureBytes, signatureFieldSignature, signature.Signature[:])
			b = appendBytesField(b, milestonePayloadFieldSignatures, signatureBytes)
		}
	}
	return b
}

func deserializeMilestonePayload(b []byte) (*externalapi.MilestonePayload, error) {
	payload := &externalapi.MilestonePayload{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case milestonePayloadFieldIndex:
			value, n, err := consumeVarint(num, typ, b)
			payload.Index = externalapi.MilestoneIndex(value)
			return n, err
		case milestonePayloadFieldTimestamp:
			value, n, err := consumeVarint(num, typ, b)
			payload.Timestamp = protowire.DecodeZigZag(value)
			return n, err
		case milestonePayloadFieldParents:
			parent, n, err := consumeBlockID(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			payload.Parents = append(payload.Parents, parent)
			return n, nil
		case milestonePayloadFieldInclusionMerkleRoot:
			return consumeHash(num, typ, b, &payload.InclusionMerkleRoot)
		case milestonePayloadFieldSignatures:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			signature, err := deserializeMilestoneSignature(value)
			if err != nil {
				return 0, err
			}
			payload.Signatures = append(payload.Signatures, signature)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing milestone payload")
	}
	return payload, nil
}

func deserializeMilestoneSignature(b []byte) (*externalapi.MilestoneSignature, error) {
	signature := &externalapi.MilestoneSignature{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case signatureFieldPublicKey, signatureFieldSignature:
			value, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			target := signature.PublicKey[:]
			if num == signatureFieldSignature {
				target = signature.Signature[:]
			}
			if len(value) != len(target) {
				return 0, errors.Errorf("field %d: invalid length %d", num, len(value))
			}
			copy(target, value)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}
	return signature, nil
}

const (
	milestoneFieldIndex               = 1
	milestoneFieldBlockID             = 2
	milestoneFieldTimestamp           = 3
	milestoneFieldInclusionMerkleRoot = 4
	milestoneFieldAppliedMerkleRoot   = 5
	milestoneFieldLedgerCommitment    = 6
	milestoneFieldIsConfirmed         = 7
)

// SerializeMilestone encodes a milestone record.
func SerializeMilestone(milestone *externalapi.Milestone) []byte {
	b := appendVarintField(nil, milestoneFieldIndex, uint64(milestone.Index))
	b = appendBytesField(b, milestoneFieldBlockID, milestone.BlockID.ByteSlice())
	b = appendTimeField(b, milestoneFieldTimestamp, milestone.Timestamp)
	b = appendBytesField(b, milestoneFieldInclusionMerkleRoot, milestone.InclusionMerkleRoot[:])
	b = appendBytesField(b, milestoneFieldAppliedMerkleRoot, milestone.AppliedMerkleRoot[:])
	b = appendBytesField(b, milestoneFieldLedgerCommitment, milestone.LedgerCommitment[:])
	return appendVarintField(b, milestoneFieldIsConfirmed, protowire.EncodeBool(milestone.IsConfirmed))
}

// DeserializeMilestone is the inverse of SerializeMilestone.
func DeserializeMilestone(b []byte) (*externalapi.Milestone, error) {
	milestone := &externalapi.Milestone{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case milestoneFieldIndex:
			value, n, err := consumeVarint(num, typ, b)
			milestone.Index = externalapi.MilestoneIndex(value)
			return n, err
		case milestoneFieldBlockID:
			var n int
			var err error
			milestone.BlockID, n, err = consumeBlockID(num, typ, b)
			return n, err
		case milestoneFieldTimestamp:
			var n int
			var err error
			milestone.Timestamp, n, err = consumeTime(num, typ, b)
			return n, err
		case milestoneFieldInclusionMerkleRoot:
			return consumeHash(num, typ, b, &milestone.InclusionMerkleRoot)
		case milestoneFieldAppliedMerkleRoot:
			return consumeHash(num, typ, b, &milestone.AppliedMerkleRoot)
		case milestoneFieldLedgerCommitment:
			return consumeHash(num, typ, b, &milestone.LedgerCommitment)
		case milestoneFieldIsConfirmed:
			value, n, err := consumeVarint(num, typ, b)
			milestone.IsConfirmed = protowire.DecodeBool(value)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing milestone")
	}
	if milestone.BlockID == nil {
		return nil, errors.New("failed deserializing milestone: missing block id")
	}
	return milestone, nil
}

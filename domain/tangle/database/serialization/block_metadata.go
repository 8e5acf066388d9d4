package serialization

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	metadataFieldBlockID               = 1
	metadataFieldFlags                 = 2
	metadataFieldArrivalMilestoneIndex = 3
	metadataFieldArrivalTime           = 4
	metadataFieldSolidificationTime    = 5
	metadataFieldOMRSI                 = 6
	metadataFieldYMRSI                 = 7
	metadataFieldMilestoneIndex        = 8
	metadataFieldReferencedIndex       = 9
	metadataFieldReferenceTime         = 10
	metadataFieldConflict              = 11
	metadataFieldInclusionState        = 12

	coneIndexFieldIndex  = 1
	coneIndexFieldRootID = 2
)

// SerializeBlockMetadata encodes a metadata snapshot.
func SerializeBlockMetadata(snapshot *externalapi.BlockMetadataSnapshot) []byte {
	b := appendBytesField(nil, metadataFieldBlockID, snapshot.BlockID.ByteSlice())
	b = appendVarintField(b, metadataFieldFlags, uint64(snapshot.Flags))
	b = appendVarintField(b, metadataFieldArrivalMilestoneIndex, uint64(snapshot.ArrivalMilestoneIndex))
	b = appendTimeField(b, metadataFieldArrivalTime, snapshot.ArrivalTime)
	b = appendTimeField(b, metadataFieldSolidificationTime, snapshot.SolidificationTime)
	if snapshot.OMRSI != nil {
		b = appendBytesField(b, metadataFieldOMRSI, serializeConeIndex(snapshot.OMRSI))
	}
	if snapshot.YMRSI != nil {
		b = appendBytesField(b, metadataFieldYMRSI, serializeConeIndex(snapshot.YMRSI))
	}
	b = appendVarintField(b, metadataFieldMilestoneIndex, uint64(snapshot.MilestoneIndex))
	b = appendVarintField(b, metadataFieldReferencedIndex, uint64(snapshot.ReferencedIndex))
	b = appendTimeField(b, metadataFieldReferenceTime, snapshot.ReferenceTime)
	b = appendVarintField(b, metadataFieldConflict, uint64(snapshot.Conflict))
	return appendVarintField(b, metadataFieldInclusionState, uint64(snapshot.InclusionState))
}

// DeserializeBlockMetadata is the inverse of SerializeBlockMetadata.
func DeserializeBlockMetadata(b []byte) (*externalapi.BlockMetadataSnapshot, error) {
	snapshot := &externalapi.BlockMetadataSnapshot{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var n int
		var err error
		var value uint64
		switch num {
		case metadataFieldBlockID:
			snapshot.BlockID, n, err = consumeBlockID(num, typ, b)
		case metadataFieldFlags:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.Flags = externalapi.MetadataFlags(value)
		case metadataFieldArrivalMilestoneIndex:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.ArrivalMilestoneIndex = externalapi.MilestoneIndex(value)
		case metadataFieldArrivalTime:
			snapshot.ArrivalTime, n, err = consumeTime(num, typ, b)
		case metadataFieldSolidificationTime:
			snapshot.SolidificationTime, n, err = consumeTime(num, typ, b)
		case metadataFieldOMRSI:
			snapshot.OMRSI, n, err = consumeConeIndex(num, typ, b)
		case metadataFieldYMRSI:
			snapshot.YMRSI, n, err = consumeConeIndex(num, typ, b)
		case metadataFieldMilestoneIndex:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.MilestoneIndex = externalapi.MilestoneIndex(value)
		case metadataFieldReferencedIndex:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.ReferencedIndex = externalapi.MilestoneIndex(value)
		case metadataFieldReferenceTime:
			snapshot.ReferenceTime, n, err = consumeTime(num, typ, b)
		case metadataFieldConflict:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.Conflict = externalapi.ConflictReason(value)
		case metadataFieldInclusionState:
			value, n, err = consumeVarint(num, typ, b)
			snapshot.InclusionState = externalapi.LedgerInclusionState(value)
		default:
			return skipField(num, typ, b)
		}
		return n, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing block metadata")
	}
	if snapshot.BlockID == nil {
		return nil, errors.New("failed deserializing block metadata: missing block id")
	}
	return snapshot, nil
}

func serializeConeIndex(coneIndex *externalapi.ConeIndex) []byte {
	b := appendVarintField(nil, coneIndexFieldIndex, uint64(coneIndex.Index))
	return appendBytesField(b, coneIndexFieldRootID, coneIndex.RootID.ByteSlice())
}

func consumeConeIndex(num protowire.Number, typ protowire.Type, b []byte) (*externalapi.ConeIndex, int, error) {
	value, n, err := consumeBytes(num, typ, b)
	if err != nil || n < 0 {
		return nil, n, err
	}
	coneIndex := &externalapi.ConeIndex{}
	err = consumeMessage(value, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case coneIndexFieldIndex:
			index, n, err := consumeVarint(num, typ, b)
			coneIndex.Index = externalapi.MilestoneIndex(index)
			return n, err
		case coneIndexFieldRootID:
			var n int
			var err error
			coneIndex.RootID, n, err = consumeBlockID(num, typ, b)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if coneIndex.RootID == nil {
		return nil, 0, errors.New("cone index without root")
	}
	return coneIndex, n, nil
}

package serialization

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	blockFieldParents = 1
	blockFieldPayload = 2
	blockFieldNonce   = 3

	payloadFieldType = 1
	payloadFieldBody = 2
)

// SerializeBlock returns the canonical encoding of block.
func SerializeBlock(block *externalapi.Block) []byte {
	var b []byte
	for _, parent := range block.Parents {
		b = appendBytesField(b, blockFieldParents, parent.ByteSlice())
	}
	if block.Payload != nil {
		b = appendBytesField(b, blockFieldPayload, serializePayload(block.Payload))
	}
	b = protowire.AppendTag(b, blockFieldNonce, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, block.Nonce)
	return b
}

// DeserializeBlock is the inverse of SerializeBlock.
func DeserializeBlock(b []byte) (*externalapi.Block, error) {
	block := &externalapi.Block{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case blockFieldParents:
			parent, n, err := consumeBlockID(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			block.Parents = append(block.Parents, parent)
			return n, nil
		case blockFieldPayload:
			payloadBytes, n, err := consumeBytes(num, typ, b)
			if err != nil || n < 0 {
				return n, err
			}
			block.Payload, err = deserializePayload(payloadBytes)
			return n, err
		case blockFieldNonce:
			err := expectType(num, typ, protowire.Fixed64Type)
			if err != nil {
				return 0, err
			}
			var n int
			block.Nonce, n = protowire.ConsumeFixed64(b)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing block")
	}
	return block, nil
}

func serializePayload(payload externalapi.Payload) []byte {
	var body []byte
	switch payload := payload.(type) {
	case *externalapi.Transaction:
		body = SerializeTransaction(payload)
	case *externalapi.MilestonePayload:
		body = serializeMilestonePayload(payload, true)
	case *externalapi.TaggedData:
		body = appendBytesField(nil, 1, payload.Tag)
		body = appendBytesField(body, 2, payload.Data)
	}
	b := appendVarintField(nil, payloadFieldType, uint64(payload.PayloadType()))
	return appendBytesField(b, payloadFieldBody, body)
}

func deserializePayload(b []byte) (externalapi.Payload, error) {
	var payloadType externalapi.PayloadType
	var body []byte
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case payloadFieldType:
			value, n, err := consumeVarint(num, typ, b)
			payloadType = externalapi.PayloadType(value)
			return n, err
		case payloadFieldBody:
			var n int
			var err error
			body, n, err = consumeBytes(num, typ, b)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}

	switch payloadType {
	case externalapi.PayloadTypeTransaction:
		return DeserializeTransaction(body)
	case externalapi.PayloadTypeMilestone:
		return deserializeMilestonePayload(body)
	case externalapi.PayloadTypeTaggedData:
		return deserializeTaggedData(body)
	default:
		return nil, errors.Errorf("unknown payload type %d", payloadType)
	}
}

func deserializeTaggedData(b []byte) (*externalapi.TaggedData, error) {
	taggedData := &externalapi.TaggedData{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			value, n, err := consumeBytes(num, typ, b)
			taggedData.Tag = append([]byte(nil), value...)
			return n, err
		case 2:
			value, n, err := consumeBytes(num, typ, b)
			taggedData.Data = append([]byte(nil), value...)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}
	return taggedData, nil
}

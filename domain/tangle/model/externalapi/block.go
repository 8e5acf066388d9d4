package externalapi

// MinParents and MaxParents bound the number of parents of a block.
const (
	MinParents = 1
	MaxParents = 8
)

// Block is an immutable vertex of the tangle.
type Block struct {
	Parents []*BlockID
	Payload Payload
	Nonce   uint64
}

// Clone returns a clone of Block
func (block *Block) Clone() *Block {
	var payloadClone Payload
	if block.Payload != nil {
		payloadClone = block.Payload.ClonePayload()
	}
	return &Block{
		Parents: CloneBlockIDs(block.Parents),
		Payload: payloadClone,
		Nonce:   block.Nonce,
	}
}

// Transaction returns the block's transaction payload, or nil.
func (block *Block) Transaction() *Transaction {
	transaction, _ := block.Payload.(*Transaction)
	return transaction
}

// Milestone returns the block's milestone payload, or nil.
func (block *Block) Milestone() *MilestonePayload {
	milestone, _ := block.Payload.(*MilestonePayload)
	return milestone
}

// PayloadType identifies the kind of payload a block carries.
type PayloadType uint32

// The payload types a block may carry.
const (
	PayloadTypeTaggedData  PayloadType = 5
	PayloadTypeTransaction PayloadType = 6
	PayloadTypeMilestone   PayloadType = 7
)

// Payload is the optional content of a block.
type Payload interface {
	PayloadType() PayloadType
	ClonePayload() Payload
}

// TaggedData is an opaque payload without ledger semantics.
type TaggedData struct {
	Tag  []byte
	Data []byte
}

// PayloadType implements Payload.
func (*TaggedData) PayloadType() PayloadType { return PayloadTypeTaggedData }

// ClonePayload implements Payload.
func (td *TaggedData) ClonePayload() Payload {
	return &TaggedData{
		Tag:  append([]byte(nil), td.Tag...),
		Data: append([]byte(nil), td.Data...),
	}
}

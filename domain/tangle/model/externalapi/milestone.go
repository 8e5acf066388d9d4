package externalapi

import "time"

// Sizes of the coordinator signature parts carried by a milestone.
const (
	MilestonePublicKeySize = 32
	MilestoneSignatureSize = 64
)

// MilestoneSignature is one coordinator signature over a milestone essence.
type MilestoneSignature struct {
	PublicKey [MilestonePublicKeySize]byte
	Signature [MilestoneSignatureSize]byte
}

// MilestonePayload anchors a confirmed checkpoint of the tangle.
// Parents must equal the parents of the block carrying the payload.
type MilestonePayload struct {
	Index               MilestoneIndex
	Timestamp           int64
	Parents             []*BlockID
	InclusionMerkleRoot Hash
	Signatures          []*MilestoneSignature
}

// PayloadType implements Payload.
func (*MilestonePayload) PayloadType() PayloadType { return PayloadTypeMilestone }

// ClonePayload implements Payload.
func (ms *MilestonePayload) ClonePayload() Payload {
	signaturesClone := make([]*MilestoneSignature, len(ms.Signatures))
	for i, signature := range ms.Signatures {
		signatureClone := *signature
		signaturesClone[i] = &signatureClone
	}
	return &MilestonePayload{
		Index:               ms.Index,
		Timestamp:           ms.Timestamp,
		Parents:             CloneBlockIDs(ms.Parents),
		InclusionMerkleRoot: ms.InclusionMerkleRoot,
		Signatures:          signaturesClone,
	}
}

// Milestone is the stored record of a validated milestone.
// AppliedMerkleRoot and LedgerCommitment are set once the milestone
// has been confirmed by a white-flag run.
type Milestone struct {
	Index               MilestoneIndex
	BlockID             *BlockID
	Timestamp           time.Time
	InclusionMerkleRoot Hash
	AppliedMerkleRoot   Hash
	LedgerCommitment    Hash
	IsConfirmed         bool
}

// Clone returns a clone of Milestone
func (ms *Milestone) Clone() *Milestone {
	msClone := *ms
	msClone.BlockID = ms.BlockID.Clone()
	return &msClone
}

// MilestoneTuple is the output of milestone validation handed over to
// the propagator and the white-flag engine.
type MilestoneTuple struct {
	Index     MilestoneIndex
	BlockID   *BlockID
	Timestamp time.Time
}

package externalapi

import (
	"sync"
	"time"
)

// MetadataFlags is the bit-set of states a block has reached.
type MetadataFlags uint8

// The metadata flags. No transition ever clears a flag.
const (
	MetadataFlagSolid MetadataFlags = 1 << iota
	MetadataFlagMilestone
	MetadataFlagReferenced
)

// Has returns whether all bits of flag are set.
func (f MetadataFlags) Has(flag MetadataFlags) bool {
	return f&flag == flag
}

// BlockMetadata is the live, mutable state of a block. A single instance
// exists per retained block and every transition goes through its lock,
// so readers never observe the solid flag without the cone indexes.
type BlockMetadata struct {
	mutex sync.RWMutex

	blockID               *BlockID
	flags                 MetadataFlags
	arrivalMilestoneIndex MilestoneIndex
	arrivalTime           time.Time

	solidificationTime time.Time
	omrsi              *ConeIndex
	ymrsi              *ConeIndex

	milestoneIndex MilestoneIndex

	referencedIndex MilestoneIndex
	referenceTime   time.Time
	conflict        ConflictReason
	inclusionState  LedgerInclusionState
}

// NewBlockMetadata returns the metadata of a block that just arrived.
// arrivalMilestoneIndex is the latest solid milestone index at arrival.
func NewBlockMetadata(blockID *BlockID, arrivalTime time.Time, arrivalMilestoneIndex MilestoneIndex) *BlockMetadata {
	return &BlockMetadata{
		blockID:               blockID.Clone(),
		arrivalTime:           arrivalTime,
		arrivalMilestoneIndex: arrivalMilestoneIndex,
	}
}

// BlockID returns the id of the block this metadata belongs to.
func (md *BlockMetadata) BlockID() *BlockID {
	return md.blockID
}

// ArrivalMilestoneIndex returns the latest solid milestone index at the
// time the block arrived.
func (md *BlockMetadata) ArrivalMilestoneIndex() MilestoneIndex {
	return md.arrivalMilestoneIndex
}

// Flags returns the current flag set.
func (md *BlockMetadata) Flags() MetadataFlags {
	md.mutex.RLock()
	defer md.mutex.RUnlock()
	return md.flags
}

// IsSolid returns whether the block is solid.
func (md *BlockMetadata) IsSolid() bool {
	return md.Flags().Has(MetadataFlagSolid)
}

// IsMilestone returns whether the block carries a validated milestone.
func (md *BlockMetadata) IsMilestone() bool {
	return md.Flags().Has(MetadataFlagMilestone)
}

// IsReferenced returns whether a milestone referenced the block.
func (md *BlockMetadata) IsReferenced() bool {
	return md.Flags().Has(MetadataFlagReferenced)
}

// SetSolid transitions the block to solid with the given cone indexes.
// It returns false if the block was already solid.
func (md *BlockMetadata) SetSolid(omrsi, ymrsi *ConeIndex, solidificationTime time.Time) bool {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.flags.Has(MetadataFlagSolid) {
		return false
	}
	md.omrsi = omrsi.Clone()
	md.ymrsi = ymrsi.Clone()
	md.solidificationTime = solidificationTime
	md.flags |= MetadataFlagSolid
	return true
}

// SolidificationTime returns when the block became solid.
func (md *BlockMetadata) SolidificationTime() time.Time {
	md.mutex.RLock()
	defer md.mutex.RUnlock()
	return md.solidificationTime
}

// ConeIndexes returns the OMRSI and YMRSI of the block, and whether
// they are defined.
func (md *BlockMetadata) ConeIndexes() (omrsi, ymrsi *ConeIndex, ok bool) {
	md.mutex.RLock()
	defer md.mutex.RUnlock()

	if !md.flags.Has(MetadataFlagSolid) {
		return nil, nil, false
	}
	return md.omrsi.Clone(), md.ymrsi.Clone(), true
}

// UpdateConeIndexes replaces the cone indexes of a solid block. The update
// is rejected if either index would move backwards or nothing changes.
func (md *BlockMetadata) UpdateConeIndexes(omrsi, ymrsi *ConeIndex) bool {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if !md.flags.Has(MetadataFlagSolid) {
		return false
	}
	if omrsi.Index < md.omrsi.Index || ymrsi.Index < md.ymrsi.Index {
		return false
	}
	if omrsi.Equal(md.omrsi) && ymrsi.Equal(md.ymrsi) {
		return false
	}
	md.omrsi = omrsi.Clone()
	md.ymrsi = ymrsi.Clone()
	return true
}

// SetMilestone flags the block as the carrier of milestone index.
// It returns false if the flag was already set.
func (md *BlockMetadata) SetMilestone(index MilestoneIndex) bool {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.flags.Has(MetadataFlagMilestone) {
		return false
	}
	md.milestoneIndex = index
	md.flags |= MetadataFlagMilestone
	return true
}

// MilestoneIndex returns the index of the milestone the block carries.
func (md *BlockMetadata) MilestoneIndex() (MilestoneIndex, bool) {
	md.mutex.RLock()
	defer md.mutex.RUnlock()
	return md.milestoneIndex, md.flags.Has(MetadataFlagMilestone)
}

// SetReferenced records the outcome of the white-flag run that referenced
// the block and narrows its cone indexes to the referencing milestone.
// A block is referenced at most once; later calls return false.
func (md *BlockMetadata) SetReferenced(index MilestoneIndex, referenceTime time.Time,
	inclusionState LedgerInclusionState, conflict ConflictReason) bool {

	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.flags.Has(MetadataFlagReferenced) {
		return false
	}
	if md.flags.Has(MetadataFlagSolid) {
		md.omrsi = &ConeIndex{Index: index, RootID: md.blockID.Clone()}
		md.ymrsi = &ConeIndex{Index: index, RootID: md.blockID.Clone()}
	}
	md.referencedIndex = index
	md.referenceTime = referenceTime
	md.inclusionState = inclusionState
	md.conflict = conflict
	md.flags |= MetadataFlagReferenced
	return true
}

// ReferencedIndex returns the index of the milestone that referenced
// the block.
func (md *BlockMetadata) ReferencedIndex() (MilestoneIndex, bool) {
	md.mutex.RLock()
	defer md.mutex.RUnlock()
	return md.referencedIndex, md.flags.Has(MetadataFlagReferenced)
}

// Conflict returns the conflict reason and ledger inclusion state. Both
// are meaningful only once the block is referenced.
func (md *BlockMetadata) Conflict() (LedgerInclusionState, ConflictReason) {
	md.mutex.RLock()
	defer md.mutex.RUnlock()
	return md.inclusionState, md.conflict
}

// Snapshot returns a consistent copy of the metadata.
func (md *BlockMetadata) Snapshot() *BlockMetadataSnapshot {
	md.mutex.RLock()
	defer md.mutex.RUnlock()

	return &BlockMetadataSnapshot{
		BlockID:               md.blockID.Clone(),
		Flags:                 md.flags,
		ArrivalMilestoneIndex: md.arrivalMilestoneIndex,
		ArrivalTime:           md.arrivalTime,
		SolidificationTime:    md.solidificationTime,
		OMRSI:                 md.omrsi.Clone(),
		YMRSI:                 md.ymrsi.Clone(),
		MilestoneIndex:        md.milestoneIndex,
		ReferencedIndex:       md.referencedIndex,
		ReferenceTime:         md.referenceTime,
		Conflict:              md.conflict,
		InclusionState:        md.inclusionState,
	}
}

// BlockMetadataSnapshot is a plain copy of BlockMetadata, as persisted.
type BlockMetadataSnapshot struct {
	BlockID               *BlockID
	Flags                 MetadataFlags
	ArrivalMilestoneIndex MilestoneIndex
	ArrivalTime           time.Time
	SolidificationTime    time.Time
	OMRSI                 *ConeIndex
	YMRSI                 *ConeIndex
	MilestoneIndex        MilestoneIndex
	ReferencedIndex       MilestoneIndex
	ReferenceTime         time.Time
	Conflict              ConflictReason
	InclusionState        LedgerInclusionState
}

// NewBlockMetadataFromSnapshot rebuilds live metadata out of a snapshot.
func NewBlockMetadataFromSnapshot(snapshot *BlockMetadataSnapshot) *BlockMetadata {
	return &BlockMetadata{
		blockID:               snapshot.BlockID.Clone(),
		flags:                 snapshot.Flags,
		arrivalMilestoneIndex: snapshot.ArrivalMilestoneIndex,
		arrivalTime:           snapshot.ArrivalTime,
		solidificationTime:    snapshot.SolidificationTime,
		omrsi:                 snapshot.OMRSI.Clone(),
		ymrsi:                 snapshot.YMRSI.Clone(),
		milestoneIndex:        snapshot.MilestoneIndex,
		referencedIndex:       snapshot.ReferencedIndex,
		referenceTime:         snapshot.ReferenceTime,
		conflict:              snapshot.Conflict,
		inclusionState:        snapshot.InclusionState,
	}
}

// WithReferenced returns a copy of the snapshot as it will look after
// SetReferenced is applied with the same arguments.
func (s *BlockMetadataSnapshot) WithReferenced(index MilestoneIndex, referenceTime time.Time,
	inclusionState LedgerInclusionState, conflict ConflictReason) *BlockMetadataSnapshot {

	md := NewBlockMetadataFromSnapshot(s)
	md.SetReferenced(index, referenceTime, inclusionState, conflict)
	return md.Snapshot()
}

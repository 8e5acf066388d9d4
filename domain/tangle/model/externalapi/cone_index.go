package externalapi

import "fmt"

// ConeIndex is a milestone index together with the block that
// contributed it.
type ConeIndex struct {
	Index  MilestoneIndex
	RootID *BlockID
}

// Clone returns a clone of ConeIndex
func (ci *ConeIndex) Clone() *ConeIndex {
	if ci == nil {
		return nil
	}
	return &ConeIndex{Index: ci.Index, RootID: ci.RootID.Clone()}
}

// Equal returns whether ci equals to other
func (ci *ConeIndex) Equal(other *ConeIndex) bool {
	if ci == nil || other == nil {
		return ci == other
	}
	return ci.Index == other.Index && ci.RootID.Equal(other.RootID)
}

func (ci *ConeIndex) String() string {
	if ci == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d@%s", ci.Index, ci.RootID)
}

package externalapi

// TipScore is the staleness classification of a block relative to the
// latest solid milestone.
type TipScore uint8

// The tip scores, worst first.
const (
	TipScoreLazy TipScore = iota
	TipScoreSemiLazy
	TipScoreNonLazy
)

func (s TipScore) String() string {
	switch s {
	case TipScoreNonLazy:
		return "NonLazy"
	case TipScoreSemiLazy:
		return "SemiLazy"
	default:
		return "Lazy"
	}
}

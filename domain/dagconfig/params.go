package dagconfig

import (
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
)

// CoordinatorPublicKey is an x-only Schnorr public key of a milestone
// issuer.
type CoordinatorPublicKey [externalapi.MilestonePublicKeySize]byte

// Params defines a tangle network by its parameters. These parameters may
// be used by tangle applications to differentiate networks as well as
// addresses and keys for one network from those intended for use on
// another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// YMRSIDelta is the distance between the latest solid milestone index
	// and a block's YMRSI above which the block should be promoted.
	YMRSIDelta externalapi.MilestoneIndex

	// OMRSIDelta is the distance between the latest solid milestone index
	// and a block's OMRSI above which the block should be promoted.
	OMRSIDelta externalapi.MilestoneIndex

	// BelowMaxDepth is the distance between the latest solid milestone
	// index and a block's OMRSI above which the block should be
	// reattached. It also bounds how close to the latest solid milestone
	// pruning may go.
	BelowMaxDepth externalapi.MilestoneIndex

	// MaxNonLazyTips is the number of non-lazy tips above which tips that
	// got a child are evicted from the pool.
	MaxNonLazyTips int

	// MaxChildren is the number of children above which a tip is evicted
	// from the pool.
	MaxChildren int

	// MaxAgeAfterFirstChild is how long a tip stays in the pool after it
	// got its first child.
	MaxAgeAfterFirstChild time.Duration

	// TipSelectionCount is the number of tips handed out per selection.
	TipSelectionCount int

	// CoordinatorPublicKeys are the keys allowed to sign milestones.
	CoordinatorPublicKeys []CoordinatorPublicKey

	// MilestoneSignatureThreshold is the minimal number of valid
	// signatures from distinct coordinator keys a milestone must carry.
	MilestoneSignatureThreshold int

	// PruningDelay is the number of confirmed milestones kept below the
	// latest solid milestone. Zero disables automatic pruning.
	PruningDelay externalapi.MilestoneIndex

	// BlockCacheSize is the number of block bodies kept in memory.
	BlockCacheSize int

	// StorageRetryInterval and StorageMaxRetries control how failed
	// storage commits are retried.
	StorageRetryInterval time.Duration
	StorageMaxRetries    uint64

	// RootSolidEntryPoint is the solid entry point a fresh tangle starts
	// from.
	RootSolidEntryPoint *externalapi.BlockID
}

// Validate returns an error if the parameters are inconsistent.
func (p *Params) Validate() error {
	if !(p.YMRSIDelta < p.OMRSIDelta && p.OMRSIDelta < p.BelowMaxDepth) {
		return errors.Errorf("cone index thresholds must satisfy ymrsi delta (%d) < "+
			"omrsi delta (%d) < below max depth (%d)", p.YMRSIDelta, p.OMRSIDelta, p.BelowMaxDepth)
	}
	if p.MaxNonLazyTips <= 0 {
		return errors.Errorf("max non-lazy tips must be positive, got %d", p.MaxNonLazyTips)
	}
	if p.MaxChildren <= 0 {
		return errors.Errorf("max children must be positive, got %d", p.MaxChildren)
	}
	if p.MaxAgeAfterFirstChild <= 0 {
		return errors.Errorf("max age after first child must be positive, got %s", p.MaxAgeAfterFirstChild)
	}
	if p.TipSelectionCount <= 0 {
		return errors.Errorf("tip selection count must be positive, got %d", p.TipSelectionCount)
	}
	if p.MilestoneSignatureThreshold <= 0 {
		return errors.Errorf("milestone signature threshold must be positive, got %d",
			p.MilestoneSignatureThreshold)
	}
	if len(p.CoordinatorPublicKeys) < p.MilestoneSignatureThreshold {
		return errors.Errorf("%d coordinator keys cannot reach a threshold of %d",
			len(p.CoordinatorPublicKeys), p.MilestoneSignatureThreshold)
	}
	if p.PruningDelay != 0 && p.PruningDelay < p.BelowMaxDepth {
		return errors.Errorf("pruning delay %d is below max depth %d", p.PruningDelay, p.BelowMaxDepth)
	}
	if p.BlockCacheSize <= 0 {
		return errors.Errorf("block cache size must be positive, got %d", p.BlockCacheSize)
	}
	if p.RootSolidEntryPoint == nil {
		return errors.New("root solid entry point is missing")
	}
	return nil
}

// IsCoordinatorKey returns whether publicKey may sign milestones.
func (p *Params) IsCoordinatorKey(publicKey *CoordinatorPublicKey) bool {
	for i := range p.CoordinatorPublicKeys {
		if p.CoordinatorPublicKeys[i] == *publicKey {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the parameters.
func (p *Params) Clone() *Params {
	clone := *p
	clone.CoordinatorPublicKeys = append([]CoordinatorPublicKey(nil), p.CoordinatorPublicKeys...)
	clone.RootSolidEntryPoint = p.RootSolidEntryPoint.Clone()
	return &clone
}

const (
	defaultYMRSIDelta            = 8
	defaultOMRSIDelta            = 13
	defaultBelowMaxDepth         = 15
	defaultMaxNonLazyTips        = 100
	defaultMaxChildren           = 2
	defaultMaxAgeAfterFirstChild = 3 * time.Second
	defaultTipSelectionCount     = 4
	defaultBlockCacheSize        = 10_000
	defaultStorageRetryInterval  = 100 * time.Millisecond
	defaultStorageMaxRetries     = 5
)

// DevnetParams defines the network parameters for the development network.
var DevnetParams = Params{
	Name:                  "devnet",
	YMRSIDelta:            defaultYMRSIDelta,
	OMRSIDelta:            defaultOMRSIDelta,
	BelowMaxDepth:         defaultBelowMaxDepth,
	MaxNonLazyTips:        defaultMaxNonLazyTips,
	MaxChildren:           defaultMaxChildren,
	MaxAgeAfterFirstChild: defaultMaxAgeAfterFirstChild,
	TipSelectionCount:     defaultTipSelectionCount,
	CoordinatorPublicKeys: []CoordinatorPublicKey{
		devnetCoordinatorPublicKey,
	},
	MilestoneSignatureThreshold: 1,
	PruningDelay:                1000,
	BlockCacheSize:              defaultBlockCacheSize,
	StorageRetryInterval:        defaultStorageRetryInterval,
	StorageMaxRetries:           defaultStorageMaxRetries,
	RootSolidEntryPoint:         rootSolidEntryPoint,
}

// SimnetParams defines the network parameters for the simulation test
// network. It carries no coordinator keys; the simulation adds its own.
var SimnetParams = Params{
	Name:                        "simnet",
	YMRSIDelta:                  defaultYMRSIDelta,
	OMRSIDelta:                  defaultOMRSIDelta,
	BelowMaxDepth:               defaultBelowMaxDepth,
	MaxNonLazyTips:              defaultMaxNonLazyTips,
	MaxChildren:                 defaultMaxChildren,
	MaxAgeAfterFirstChild:       defaultMaxAgeAfterFirstChild,
	TipSelectionCount:           defaultTipSelectionCount,
	MilestoneSignatureThreshold: 1,
	PruningDelay:                0,
	BlockCacheSize:              1000,
	StorageRetryInterval:        time.Millisecond,
	StorageMaxRetries:           3,
	RootSolidEntryPoint:         rootSolidEntryPoint,
}

// ParamsByName returns the parameters of the network called name.
func ParamsByName(name string) (*Params, error) {
	switch name {
	case DevnetParams.Name:
		return DevnetParams.Clone(), nil
	case SimnetParams.Name:
		return SimnetParams.Clone(), nil
	}
	return nil, errors.Errorf("unknown network %s", name)
}

package config

import (
	"encoding/hex"
	"time"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is
// selected and how its consensus parameters are overridden
type NetworkFlags struct {
	Devnet bool `long:"devnet" description:"Use the development network (default)"`
	Simnet bool `long:"simnet" description:"Use the simulation test network"`

	YMRSIDelta            uint32        `long:"ymrsi-delta" description:"Milestones a tip's youngest cone root may lag behind before it turns lazy"`
	OMRSIDelta            uint32        `long:"omrsi-delta" description:"Milestones a tip's oldest cone root may lag behind before it turns semi-lazy"`
	BelowMaxDepth         uint32        `long:"below-max-depth" description:"Milestones a tip's oldest cone root may lag behind before it turns lazy"`
	MaxTips               int           `long:"max-tips" description:"Maximum number of non-lazy tips kept in the tip pool"`
	MaxChildren           int           `long:"max-children" description:"Maximum number of children a tip may gain before it leaves the tip pool"`
	MaxTipAge             time.Duration `long:"max-tip-age" description:"How long a tip stays in the tip pool after its first child arrived. Valid time units are {ms, s, m}"`
	TipsToSelect          int           `long:"tips-to-select" description:"Number of tips returned by tip selection"`
	PruningDelay          uint32        `long:"pruning-delay" description:"Confirmed milestones to keep before pruning automatically"`
	CoordinatorPublicKeys []string      `long:"coordinator-pubkey" description:"Hex encoded coordinator public key trusted to sign milestones (may be repeated)"`
	MilestoneThreshold    int           `long:"milestone-threshold" description:"Number of distinct coordinator signatures a milestone requires"`

	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork picks the network parameters selected by the network
// flags, applies the overrides and validates the result
func (networkFlags *NetworkFlags) ResolveNetwork() error {
	if networkFlags.Devnet && networkFlags.Simnet {
		return errors.New("multiple networks (devnet, simnet) cannot be used together. " +
			"Please choose only one network")
	}

	params := dagconfig.DevnetParams.Clone()
	if networkFlags.Simnet {
		params = dagconfig.SimnetParams.Clone()
	}

	err := networkFlags.overrideParams(params)
	if err != nil {
		return err
	}
	err = params.Validate()
	if err != nil {
		return errors.Wrapf(err, "invalid %s parameters", params.Name)
	}

	networkFlags.ActiveNetParams = params
	return nil
}

// overrideParams applies every override that was set. Zero values leave the
// network default in place.
func (networkFlags *NetworkFlags) overrideParams(params *dagconfig.Params) error {
	if networkFlags.YMRSIDelta != 0 {
		params.YMRSIDelta = externalapi.MilestoneIndex(networkFlags.YMRSIDelta)
	}
	if networkFlags.OMRSIDelta != 0 {
		params.OMRSIDelta = externalapi.MilestoneIndex(networkFlags.OMRSIDelta)
	}
	if networkFlags.BelowMaxDepth != 0 {
		params.BelowMaxDepth = externalapi.MilestoneIndex(networkFlags.BelowMaxDepth)
	}
	if networkFlags.MaxTips != 0 {
		params.MaxNonLazyTips = networkFlags.MaxTips
	}
	if networkFlags.MaxChildren != 0 {
		params.MaxChildren = networkFlags.MaxChildren
	}
	if networkFlags.MaxTipAge != 0 {
		params.MaxAgeAfterFirstChild = networkFlags.MaxTipAge
	}
	if networkFlags.TipsToSelect != 0 {
		params.TipSelectionCount = networkFlags.TipsToSelect
	}
	if networkFlags.PruningDelay != 0 {
		params.PruningDelay = externalapi.MilestoneIndex(networkFlags.PruningDelay)
	}
	if len(networkFlags.CoordinatorPublicKeys) > 0 {
		publicKeys := make([]dagconfig.CoordinatorPublicKey, len(networkFlags.CoordinatorPublicKeys))
		for i, publicKeyHex := range networkFlags.CoordinatorPublicKeys {
			publicKey, err := parseCoordinatorPublicKey(publicKeyHex)
			if err != nil {
				return err
			}
			publicKeys[i] = publicKey
		}
		params.CoordinatorPublicKeys = publicKeys
	}
	if networkFlags.MilestoneThreshold != 0 {
		params.MilestoneSignatureThreshold = networkFlags.MilestoneThreshold
	}
	return nil
}

func parseCoordinatorPublicKey(publicKeyHex string) (dagconfig.CoordinatorPublicKey, error) {
	var publicKey dagconfig.CoordinatorPublicKey
	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return publicKey, errors.Wrapf(err, "coordinator public key %s is not hex encoded", publicKeyHex)
	}
	if len(publicKeyBytes) != len(publicKey) {
		return publicKey, errors.Errorf("coordinator public key %s has %d bytes instead of %d",
			publicKeyHex, len(publicKeyBytes), len(publicKey))
	}
	copy(publicKey[:], publicKeyBytes)
	return publicKey, nil
}

package milestonemanager

import (
	"time"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

type milestoneManager struct {
	databaseContext    model.DBReader
	params             *dagconfig.Params
	milestoneStore     model.MilestoneStore
	blockMetadataStore model.BlockMetadataStore
}

// New instantiates a new MilestoneManager
func New(
	databaseContext model.DBReader,
	params *dagconfig.Params,
	milestoneStore model.MilestoneStore,
	blockMetadataStore model.BlockMetadataStore) model.MilestoneManager {

	return &milestoneManager{
		databaseContext:    databaseContext,
		params:             params,
		milestoneStore:     milestoneStore,
		blockMetadataStore: blockMetadataStore,
	}
}

// RegisterMilestone validates the milestone payload carried by block and,
// if it's valid, stages the milestone record and flags the block's
// metadata. It returns nil if the block carries no milestone.
func (mm *milestoneManager) RegisterMilestone(stagingArea *model.StagingArea, blockID *externalapi.BlockID,
	block *externalapi.Block, metadata *externalapi.BlockMetadata) (*externalapi.MilestoneTuple, error) {

	payload := block.Milestone()
	if payload == nil {
		return nil, nil
	}

	err := mm.validatePayload(block, payload)
	if err != nil {
		return nil, err
	}

	tuple := &externalapi.MilestoneTuple{
		Index:     payload.Index,
		BlockID:   blockID,
		Timestamp: time.Unix(payload.Timestamp, 0),
	}

	existing, err := mm.milestoneStore.Milestone(mm.databaseContext, stagingArea, payload.Index)
	if err == nil {
		if !existing.BlockID.Equal(blockID) {
			return nil, errors.Wrapf(ruleerrors.ErrConflictingMilestone, "milestone %d is already "+
				"carried by block %s, not %s", payload.Index, existing.BlockID, blockID)
		}
		return tuple, nil
	}
	if !database.IsNotFoundError(err) {
		return nil, err
	}

	mm.milestoneStore.Stage(stagingArea, &externalapi.Milestone{
		Index:               payload.Index,
		BlockID:             blockID,
		Timestamp:           tuple.Timestamp,
		InclusionMerkleRoot: payload.InclusionMerkleRoot,
	})
	if metadata.SetMilestone(payload.Index) {
		mm.blockMetadataStore.Stage(stagingArea, metadata)
	}
	log.Debugf("Registered milestone %d in block %s", payload.Index, blockID)

	return tuple, nil
}

func (mm *milestoneManager) validatePayload(block *externalapi.Block, payload *externalapi.MilestonePayload) error {
	if payload.Index == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidMilestone, "milestone index must be positive")
	}
	if !externalapi.BlockIDsEqual(payload.Parents, block.Parents) {
		return errors.Wrapf(ruleerrors.ErrInvalidMilestone, "milestone %d parents %v differ from the "+
			"parents %v of its block", payload.Index, payload.Parents, block.Parents)
	}

	validSignatures := mm.countValidSignatures(payload)
	if validSignatures < mm.params.MilestoneSignatureThreshold {
		return errors.Wrapf(ruleerrors.ErrInvalidMilestone, "milestone %d carries %d valid signatures, "+
			"while %d are required", payload.Index, validSignatures, mm.params.MilestoneSignatureThreshold)
	}
	return nil
}

// countValidSignatures counts the coordinator keys that validly signed
// the essence of payload. A key counts once however many times it signed.
func (mm *milestoneManager) countValidSignatures(payload *externalapi.MilestonePayload) int {
	essenceHash := consensushashing.MilestoneEssenceHash(payload)
	secpHash := secp256k1.Hash(essenceHash)

	signers := make(map[dagconfig.CoordinatorPublicKey]struct{}, len(payload.Signatures))
	for _, signature := range payload.Signatures {
		publicKey := dagconfig.CoordinatorPublicKey(signature.PublicKey)
		if _, ok := signers[publicKey]; ok {
			continue
		}
		if !mm.params.IsCoordinatorKey(&publicKey) {
			log.Debugf("Milestone %d is signed by unknown key %x", payload.Index, publicKey[:])
			continue
		}
		if !verifySignature(&secpHash, signature) {
			log.Debugf("Milestone %d carries an invalid signature by %x", payload.Index, publicKey[:])
			continue
		}
		signers[publicKey] = struct{}{}
	}
	return len(signers)
}

func verifySignature(hash *secp256k1.Hash, signature *externalapi.MilestoneSignature) bool {
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(signature.PublicKey[:])
	if err != nil {
		return false
	}
	schnorrSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature.Signature[:])
	if err != nil {
		return false
	}
	return publicKey.SchnorrVerify(hash, schnorrSignature)
}

package testutils

import (
	"testing"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/consensushashing"
	"github.com/kaspanet/go-secp256k1"
)

// Coordinator holds deterministic milestone signing keys for tests
type Coordinator struct {
	keyPairs   []*secp256k1.SchnorrKeyPair
	publicKeys []dagconfig.CoordinatorPublicKey
}

// NewCoordinator creates a coordinator with keyCount deterministic keys
func NewCoordinator(t *testing.T, keyCount int) *Coordinator {
	coordinator := &Coordinator{}
	for i := 0; i < keyCount; i++ {
		var privateKeyBytes [32]byte
		for j := range privateKeyBytes {
			privateKeyBytes[j] = byte(i + 1)
		}
		keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKeyBytes[:])
		if err != nil {
			t.Fatalf("DeserializeSchnorrPrivateKeyFromSlice: %s", err)
		}
		publicKey, err := keyPair.SchnorrPublicKey()
		if err != nil {
			t.Fatalf("SchnorrPublicKey: %s", err)
		}
		serializedPublicKey, err := publicKey.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %s", err)
		}
		coordinator.keyPairs = append(coordinator.keyPairs, keyPair)
		coordinator.publicKeys = append(coordinator.publicKeys, dagconfig.CoordinatorPublicKey(*serializedPublicKey))
	}
	return coordinator
}

// PublicKeys returns the coordinator's public keys
func (c *Coordinator) PublicKeys() []dagconfig.CoordinatorPublicKey {
	return append([]dagconfig.CoordinatorPublicKey(nil), c.publicKeys...)
}

// Sign appends a signature by each of the given keys to payload
func (c *Coordinator) Sign(t *testing.T, payload *externalapi.MilestonePayload, keyIndexes ...int) {
	essenceHash := consensushashing.MilestoneEssenceHash(payload)
	secpHash := secp256k1.Hash(essenceHash)
	for _, keyIndex := range keyIndexes {
		signature, err := c.keyPairs[keyIndex].SchnorrSign(&secpHash)
		if err != nil {
			t.Fatalf("SchnorrSign: %s", err)
		}
		payload.Signatures = append(payload.Signatures, &externalapi.MilestoneSignature{
			PublicKey: c.publicKeys[keyIndex],
			Signature: *signature.Serialize(),
		})
	}
}

// SimnetParams returns simnet parameters trusting the coordinator's keys
// with the given signature threshold
func (c *Coordinator) SimnetParams(threshold int) *dagconfig.Params {
	params := dagconfig.SimnetParams.Clone()
	params.CoordinatorPublicKeys = c.PublicKeys()
	params.MilestoneSignatureThreshold = threshold
	return params
}

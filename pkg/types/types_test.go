package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPurposeConstants(t *testing.T) {
	assert.Equal(t, "node_signing", string(KeyPurposeNodeSigning))
	assert.Equal(t, "committee_signing", string(KeyPurposeCommitteeSigning))
	assert.Equal(t, "dkg_dealing_encryption", string(KeyPurposeDkgDealingEncryption))
	assert.Equal(t, "tls_certificate", string(KeyPurposeTLSCertificate))
}

func TestDeriveNodeID(t *testing.T) {
	key := &PublicKeyProto{Algorithm: AlgorithmEd25519, KeyValue: []byte("public-key-bytes")}

	first := DeriveNodeID(key)
	second := DeriveNodeID(key)
	assert.Equal(t, first, second)
	assert.Len(t, string(first), 40) // 20 bytes hex-encoded

	// both the key bytes and the algorithm tag feed the identity
	otherKey := DeriveNodeID(&PublicKeyProto{Algorithm: AlgorithmEd25519, KeyValue: []byte("other-key-bytes")})
	assert.NotEqual(t, first, otherKey)
	otherAlgo := DeriveNodeID(&PublicKeyProto{Algorithm: AlgorithmMultiBls, KeyValue: []byte("public-key-bytes")})
	assert.NotEqual(t, first, otherAlgo)
}

func TestRegistryNodeRecord_RawExcludesSignature(t *testing.T) {
	record := &RegistryNodeRecord{
		NodeID:    "node-1",
		PublicKey: "abcd",
		CreatedAt: "2026-01-02T03:04:05Z",
	}

	unsigned, err := record.Raw()
	require.NoError(t, err)

	record.Signature = []byte("sig")
	signed, err := record.Raw()
	require.NoError(t, err)

	assert.Equal(t, unsigned, signed, "signing payload must not include the signature")
	assert.Equal(t, []byte("sig"), record.Sig())
}

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeID identifies a node. It is derived deterministically from the node's
// signing public key at component construction and never changes afterwards.
type NodeID string

// RegistryVersion is a monotonically increasing epoch identifier. Public key
// lookups are parameterized by it so that signatures can be verified against
// the key material that was authoritative when they were produced.
type RegistryVersion uint64

func (v RegistryVersion) String() string {
	return fmt.Sprintf("%d", v)
}

// KeyPurpose distinguishes the roles a key can play. It is a lookup
// dimension, never inferred from key bytes.
type KeyPurpose string

const (
	KeyPurposeNodeSigning          KeyPurpose = "node_signing"
	KeyPurposeCommitteeSigning     KeyPurpose = "committee_signing"
	KeyPurposeDkgDealingEncryption KeyPurpose = "dkg_dealing_encryption"
	KeyPurposeTLSCertificate       KeyPurpose = "tls_certificate"
)

// AlgorithmID tags the algorithm of a public key on the wire.
type AlgorithmID string

const (
	AlgorithmEd25519    AlgorithmID = "ed25519"
	AlgorithmThresBls   AlgorithmID = "thres_bls_bn256"
	AlgorithmMultiBls   AlgorithmID = "multi_bls_bn256"
	AlgorithmTLSEd25519 AlgorithmID = "tls_ed25519"
)

// PublicKeyProto is the wire-level representation of a public key plus its
// algorithm tag, as supplied by the registry.
type PublicKeyProto struct {
	Algorithm AlgorithmID `json:"algorithm"`
	KeyValue  []byte      `json:"key_value"`
	ProofData []byte      `json:"proof_data,omitempty"`
}

// NodePublicKeys is the set of public keys a node exposes from its secret key
// store. NodeSigning must be present for the node to have an identity.
type NodePublicKeys struct {
	NodeSigning      *PublicKeyProto `json:"node_signing"`
	CommitteeSigning *PublicKeyProto `json:"committee_signing,omitempty"`
	TLSCertificate   *PublicKeyProto `json:"tls_certificate,omitempty"`
}

// DeriveNodeID computes a node's identity from its signing public key.
// Components constructed over the same key store derive the same NodeID.
func DeriveNodeID(nodeSigningKey *PublicKeyProto) NodeID {
	h := sha256.New()
	h.Write([]byte(nodeSigningKey.Algorithm))
	h.Write(nodeSigningKey.KeyValue)
	return NodeID(hex.EncodeToString(h.Sum(nil)[:20]))
}

// DkgID identifies the subject of a distributed key generation, e.g. a
// subnet's signing committee.
type DkgID string

// ThresholdSigData is the verification material produced by a completed DKG.
// PublicCoefficients is the marshaled public polynomial; a threshold signature
// for the epoch verifies against its constant term.
type ThresholdSigData struct {
	Algorithm          AlgorithmID `json:"algorithm"`
	Threshold          int         `json:"threshold"`
	PublicCoefficients []byte      `json:"public_coefficients"`
}

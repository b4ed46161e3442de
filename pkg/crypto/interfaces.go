package crypto

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/fystack/trustcore/pkg/types"
)

// The capability interfaces below are the only surface node subsystems see.
// Callers are handed exactly the subset matching their trust level: a
// verification-only process never holds an interface with a Sign method.

// KeyManager checks that locally held keys match what the registry has
// recorded for this node.
type KeyManager interface {
	// NodePublicKeys returns the public parts of the node's keys.
	NodePublicKeys() types.NodePublicKeys

	// CheckKeysWithRegistry verifies the secret key store holds a usable
	// secret key for every key the registry records for this node at
	// version. On the remote vault backend this crosses the RPC bridge.
	CheckKeysWithRegistry(ctx context.Context, version types.RegistryVersion) error
}

// BasicSigner signs with the node's signing key.
type BasicSigner interface {
	// SignBasic signs msg after confirming the node's signing key is
	// recorded in the registry at version. On the remote vault backend this
	// crosses the RPC bridge.
	SignBasic(ctx context.Context, msg types.Signable, version types.RegistryVersion) ([]byte, error)
}

// BasicSigVerifier verifies single-signer signatures against registry keys.
type BasicSigVerifier interface {
	VerifyBasicSig(ctx context.Context, sig []byte, msg types.Signable, signer types.NodeID, version types.RegistryVersion) error
}

// BasicSigVerifierByPublicKey verifies against an explicit key, with no
// registry lookup.
type BasicSigVerifierByPublicKey interface {
	VerifyBasicSigByPublicKey(sig []byte, msg types.Signable, pub *types.PublicKeyProto) error
}

// MultiSigVerifier verifies one signer's share of a multi-signature.
// Verifying the aggregate is the caller's responsibility.
type MultiSigVerifier interface {
	VerifyMultiSigShare(ctx context.Context, sig []byte, msg types.Signable, signer types.NodeID, version types.RegistryVersion) error
}

// ThresholdSigVerifier verifies combined threshold signatures using cached
// DKG verification material.
type ThresholdSigVerifier interface {
	// VerifyCombinedThresholdSig returns ThresholdSigDataNotFoundError when
	// no material is cached for (dkgID, version); callers treat that as
	// "not yet available", not as corruption.
	VerifyCombinedThresholdSig(sig []byte, msg types.Signable, dkgID types.DkgID, version types.RegistryVersion) error
}

// ThresholdSigVerifierByPublicKey verifies a combined threshold signature
// against a self-contained public key, with no registry or cache lookup.
type ThresholdSigVerifierByPublicKey interface {
	VerifyCombinedThresholdSigByPublicKey(sig []byte, msg types.Signable, pub *types.PublicKeyProto) error
}

// TLSHandshaker authenticates TLS sessions with the node's certificate. The
// peer's certificate is checked against the registry's TLS key record, not
// against a CA hierarchy.
type TLSHandshaker interface {
	PerformTLSServerHandshake(ctx context.Context, conn net.Conn, clientID types.NodeID, version types.RegistryVersion) (*tls.Conn, error)
	PerformTLSClientHandshake(ctx context.Context, conn net.Conn, serverID types.NodeID, version types.RegistryVersion) (*tls.Conn, error)
}

// NonReplicaProcess is the view for auxiliary processes such as the
// orchestrator. It excludes every capability that would require concurrent
// high-frequency secret key access from multiple processes against the same
// store. Never run more than one holder of this view against one secret key
// store concurrently with the node process.
type NonReplicaProcess interface {
	KeyManager
	BasicSigner
	ThresholdSigVerifierByPublicKey
	TLSHandshaker
}

// VerificationOnly is the view for processes that only check signatures.
// It never touches secret keys, so throwaway key material is acceptable.
type VerificationOnly interface {
	BasicSigVerifier
	BasicSigVerifierByPublicKey
	MultiSigVerifier
	ThresholdSigVerifier
	ThresholdSigVerifierByPublicKey
}

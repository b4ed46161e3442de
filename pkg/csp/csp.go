// Package csp abstracts where secret keys physically live and which
// primitives operate on them. The crypto component facade never touches key
// bytes directly; it delegates every cryptographic operation to a
// CryptoServiceProvider.
//
// Two providers exist: a local one backed by an encrypted on-disk store, and
// a remote one that reaches an out-of-process vault over NATS request/reply.
package csp

import (
	"context"
	"crypto/tls"

	"github.com/fystack/trustcore/pkg/types"
)

// CryptoServiceProvider performs raw sign/verify/key operations for the
// crypto component.
//
// Only Sign and CheckKeys touch secret key material; on the remote vault
// provider these are the two methods that bridge a synchronous call into the
// asynchronous RPC round-trip. All verification methods are pure public-key
// computations and never cross the bridge.
type CryptoServiceProvider interface {
	// NodePublicKeys returns the public parts of the locally held keys,
	// as cached at provider construction.
	NodePublicKeys() types.NodePublicKeys

	// Sign signs msg with the secret key held for purpose.
	Sign(ctx context.Context, purpose types.KeyPurpose, msg []byte) ([]byte, error)

	// CheckKeys verifies that the secret store holds a usable secret key for
	// every public key in registryKeys.
	CheckKeys(ctx context.Context, registryKeys *types.NodePublicKeys) error

	// Verify checks sig over msg against an explicit public key proto,
	// dispatching on its algorithm tag.
	Verify(pub *types.PublicKeyProto, msg, sig []byte) error

	// ThresholdVerify checks a combined threshold signature against the
	// public coefficients of a DKG epoch.
	ThresholdVerify(data *types.ThresholdSigData, msg, sig []byte) error

	// TLSCertificate returns the node's certificate for TLS handshakes.
	TLSCertificate() (*tls.Certificate, error)

	Close() error
}

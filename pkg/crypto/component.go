// Package crypto provides the crypto component, the single entry point nodes
// use for signing, verification, key management and TLS handshake
// authentication. The component composes a crypto service provider (where
// keys live), a registry client (which keys are authoritative) and a bounded
// cache of threshold signature verification material.
package crypto

import (
	"context"
	"os"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/registry"
	"github.com/fystack/trustcore/pkg/types"
)

// Component is the node-facing crypto facade.
//
// A process holds exactly one Component per secret key store. Additional
// handles must share the instance (it is safe for concurrent use); never
// construct a second Component over the same store directory, as two
// instances racing on one backing store are out of contract. csp.OpenLocal
// enforces this in-process.
type Component struct {
	thresholdSigDataStore *LockableThresholdSigDataStore
	csp                   csp.CryptoServiceProvider
	registry              registry.Client
	// identity of the node that instantiated this component, derived from
	// the node signing public key at construction and immutable afterwards
	nodeID types.NodeID
}

// The composite views are explicit: Component declares which capability
// bundles it implements rather than relying on structural satisfaction at
// call sites.
var (
	_ NonReplicaProcess = (*Component)(nil)
	_ VerificationOnly  = (*Component)(nil)
)

// New creates the node's crypto component.
//
// The node signing public key must exist in the provider's key store: a node
// without an identity cannot run, so a missing key aborts the process rather
// than returning an error.
func New(provider csp.CryptoServiceProvider, registryClient registry.Client) *Component {
	nodeSigningKey := provider.NodePublicKeys().NodeSigning
	if nodeSigningKey == nil {
		logger.Fatal("node signing public key missing: cannot derive a node identity", nil)
	}

	return &Component{
		thresholdSigDataStore: NewLockableThresholdSigDataStore(),
		csp:                   provider,
		registry:              registryClient,
		nodeID:                types.DeriveNodeID(nodeSigningKey),
	}
}

// NewForNonReplicaProcess creates a component restricted to the capabilities
// safe for auxiliary processes. See the NonReplicaProcess doc for the
// single-holder constraint on the secret key store.
func NewForNonReplicaProcess(provider csp.CryptoServiceProvider, registryClient registry.Client) NonReplicaProcess {
	return New(provider, registryClient)
}

// NewForVerificationOnly creates a component that only verifies signatures.
// Verification needs no secret keys, so the component runs over a throwaway
// key store in a temporary directory that is removed on Close.
func NewForVerificationOnly(registryClient registry.Client) (VerificationOnly, func() error, error) {
	dir, err := os.MkdirTemp("", "trustcore-verify-*")
	if err != nil {
		return nil, nil, err
	}

	provider, err := csp.OpenLocal(csp.LocalConfig{Dir: dir})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, err
	}

	cleanup := func() error {
		err := provider.Close()
		_ = os.RemoveAll(dir)
		return err
	}
	return New(provider, registryClient), cleanup, nil
}

// NewTempWithAllKeys creates a component over a freshly generated key store
// in a temporary directory, with every generated public key registered in the
// given registry at version. Intended for tests and local experiments; the
// returned cleanup removes the key material.
func NewTempWithAllKeys(registryClient *registry.FakeClient, version types.RegistryVersion) (*Component, func() error, error) {
	dir, err := os.MkdirTemp("", "trustcore-temp-*")
	if err != nil {
		return nil, nil, err
	}

	provider, err := csp.OpenLocal(csp.LocalConfig{Dir: dir})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, err
	}

	component := New(provider, registryClient)
	keys := provider.NodePublicKeys()
	registryClient.SetCryptoKeyForNode(component.nodeID, types.KeyPurposeNodeSigning, version, keys.NodeSigning)
	registryClient.SetCryptoKeyForNode(component.nodeID, types.KeyPurposeCommitteeSigning, version, keys.CommitteeSigning)
	registryClient.SetCryptoKeyForNode(component.nodeID, types.KeyPurposeTLSCertificate, version, keys.TLSCertificate)

	cleanup := func() error {
		err := provider.Close()
		_ = os.RemoveAll(dir)
		return err
	}
	return component, cleanup, nil
}

// NodeID returns the identity of this component's node.
func (c *Component) NodeID() types.NodeID {
	return c.nodeID
}

// RegistryClient exposes the registry this component resolves keys against.
func (c *Component) RegistryClient() registry.Client {
	return c.registry
}

// IngestDkgTranscript caches the verification material of a completed DKG
// epoch. This is the only path that takes the data store's write lock.
func (c *Component) IngestDkgTranscript(dkgID types.DkgID, version types.RegistryVersion, data *types.ThresholdSigData) {
	c.thresholdSigDataStore.Update(func(store WriteAccess) {
		store.Insert(dkgID, version, data)
	})
	logger.Debug("Cached DKG transcript material", "dkg", dkgID, "version", version)
}

// keyFromRegistry is the single path by which registry absence becomes a
// typed error instead of a nil proto propagating silently.
func (c *Component) keyFromRegistry(
	ctx context.Context,
	nodeID types.NodeID,
	purpose types.KeyPurpose,
	version types.RegistryVersion,
) (*types.PublicKeyProto, error) {
	proto, err := c.registry.GetCryptoKeyForNode(ctx, nodeID, purpose, version)
	if err != nil {
		return nil, err
	}
	if proto == nil {
		return nil, &errors.PublicKeyNotFoundError{
			NodeID:          nodeID,
			KeyPurpose:      purpose,
			RegistryVersion: version,
		}
	}
	return proto, nil
}

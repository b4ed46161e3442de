package crypto

import (
	"context"
	"fmt"

	"github.com/fystack/trustcore/pkg/types"
)

// NodePublicKeys implements KeyManager.
func (c *Component) NodePublicKeys() types.NodePublicKeys {
	return c.csp.NodePublicKeys()
}

// CheckKeysWithRegistry implements KeyManager. It resolves every key the
// registry records for this node at version and asks the provider to confirm
// the matching secret keys are locally usable.
//
// On the remote vault backend the provider call crosses the sync-over-async
// bridge; do not invoke this from within another bridged call.
func (c *Component) CheckKeysWithRegistry(ctx context.Context, version types.RegistryVersion) error {
	// The node signing key is mandatory; its absence from the registry is a
	// typed not-found error.
	nodeSigning, err := c.keyFromRegistry(ctx, c.nodeID, types.KeyPurposeNodeSigning, version)
	if err != nil {
		return err
	}

	registryKeys := types.NodePublicKeys{NodeSigning: nodeSigning}

	// The remaining purposes are optional: the registry may not record them
	// for every node.
	if committee, err := c.registry.GetCryptoKeyForNode(ctx, c.nodeID, types.KeyPurposeCommitteeSigning, version); err != nil {
		return err
	} else if committee != nil {
		registryKeys.CommitteeSigning = committee
	}
	if tlsCert, err := c.registry.GetCryptoKeyForNode(ctx, c.nodeID, types.KeyPurposeTLSCertificate, version); err != nil {
		return err
	} else if tlsCert != nil {
		registryKeys.TLSCertificate = tlsCert
	}

	if err := c.csp.CheckKeys(ctx, &registryKeys); err != nil {
		return fmt.Errorf("key check against registry version %d failed: %w", version, err)
	}
	return nil
}

// SignBasic implements BasicSigner. The registry lookup pins the signature
// to key material that is authoritative at version; signing then delegates
// to the provider, which on the remote vault backend crosses the
// sync-over-async bridge.
func (c *Component) SignBasic(ctx context.Context, msg types.Signable, version types.RegistryVersion) ([]byte, error) {
	if _, err := c.keyFromRegistry(ctx, c.nodeID, types.KeyPurposeNodeSigning, version); err != nil {
		return nil, err
	}

	raw, err := msg.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal message for signing: %w", err)
	}
	return c.csp.Sign(ctx, types.KeyPurposeNodeSigning, raw)
}

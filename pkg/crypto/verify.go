package crypto

import (
	"context"
	"fmt"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

// VerifyBasicSig implements BasicSigVerifier.
func (c *Component) VerifyBasicSig(
	ctx context.Context,
	sig []byte,
	msg types.Signable,
	signer types.NodeID,
	version types.RegistryVersion,
) error {
	pub, err := c.keyFromRegistry(ctx, signer, types.KeyPurposeNodeSigning, version)
	if err != nil {
		return err
	}
	return c.VerifyBasicSigByPublicKey(sig, msg, pub)
}

// VerifyBasicSigByPublicKey implements BasicSigVerifierByPublicKey.
func (c *Component) VerifyBasicSigByPublicKey(sig []byte, msg types.Signable, pub *types.PublicKeyProto) error {
	raw, err := msg.Raw()
	if err != nil {
		return fmt.Errorf("marshal message for verification: %w", err)
	}
	return c.csp.Verify(pub, raw, sig)
}

// VerifyMultiSigShare implements MultiSigVerifier: it checks one signer's
// share against that signer's committee key. Combining and checking the
// aggregate is the caller's concern.
func (c *Component) VerifyMultiSigShare(
	ctx context.Context,
	sig []byte,
	msg types.Signable,
	signer types.NodeID,
	version types.RegistryVersion,
) error {
	pub, err := c.keyFromRegistry(ctx, signer, types.KeyPurposeCommitteeSigning, version)
	if err != nil {
		return err
	}

	raw, err := msg.Raw()
	if err != nil {
		return fmt.Errorf("marshal message for verification: %w", err)
	}
	return c.csp.Verify(pub, raw, sig)
}

// VerifyCombinedThresholdSig implements ThresholdSigVerifier. It reads the
// cached DKG material under the store's read lock; concurrent verifications
// do not block each other.
func (c *Component) VerifyCombinedThresholdSig(
	sig []byte,
	msg types.Signable,
	dkgID types.DkgID,
	version types.RegistryVersion,
) error {
	var (
		data  *types.ThresholdSigData
		found bool
	)
	c.thresholdSigDataStore.View(func(store ReadAccess) {
		data, found = store.Get(dkgID, version)
	})
	if !found {
		return &errors.ThresholdSigDataNotFoundError{DkgID: dkgID, RegistryVersion: version}
	}

	raw, err := msg.Raw()
	if err != nil {
		return fmt.Errorf("marshal message for verification: %w", err)
	}
	return c.csp.ThresholdVerify(data, raw, sig)
}

// VerifyCombinedThresholdSigByPublicKey implements
// ThresholdSigVerifierByPublicKey: the key is self-contained, so neither the
// registry nor the data store is consulted.
func (c *Component) VerifyCombinedThresholdSigByPublicKey(sig []byte, msg types.Signable, pub *types.PublicKeyProto) error {
	raw, err := msg.Raw()
	if err != nil {
		return fmt.Errorf("marshal message for verification: %w", err)
	}
	return c.csp.Verify(pub, raw, sig)
}

package csp

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

func openTestProvider(t *testing.T, password string) *LocalProvider {
	t.Helper()
	provider, err := OpenLocal(LocalConfig{Dir: t.TempDir(), Password: password})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })
	return provider
}

func TestLocalProvider_GeneratesAllKeys(t *testing.T) {
	provider := openTestProvider(t, "")

	keys := provider.NodePublicKeys()
	require.NotNil(t, keys.NodeSigning)
	require.NotNil(t, keys.CommitteeSigning)
	require.NotNil(t, keys.TLSCertificate)

	assert.Equal(t, types.AlgorithmEd25519, keys.NodeSigning.Algorithm)
	assert.Len(t, keys.NodeSigning.KeyValue, ed25519.PublicKeySize)
	assert.Equal(t, types.AlgorithmMultiBls, keys.CommitteeSigning.Algorithm)
	assert.Equal(t, types.AlgorithmTLSEd25519, keys.TLSCertificate.Algorithm)
}

func TestLocalProvider_KeysSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	provider, err := OpenLocal(LocalConfig{Dir: dir, Password: "test-password-123"})
	require.NoError(t, err)
	before := provider.NodePublicKeys()
	require.NoError(t, provider.Close())

	provider, err = OpenLocal(LocalConfig{Dir: dir, Password: "test-password-123"})
	require.NoError(t, err)
	defer provider.Close()

	after := provider.NodePublicKeys()
	assert.Equal(t, before.NodeSigning.KeyValue, after.NodeSigning.KeyValue)
	assert.Equal(t, before.CommitteeSigning.KeyValue, after.CommitteeSigning.KeyValue)
	assert.Equal(t, before.TLSCertificate.KeyValue, after.TLSCertificate.KeyValue)
}

func TestOpenLocal_SharesOneHandlePerDir(t *testing.T) {
	dir := t.TempDir()

	first, err := OpenLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)
	second, err := OpenLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)

	assert.Same(t, first, second, "same directory must share one provider instance")

	// the store survives until the last handle closes
	require.NoError(t, first.Close())
	_, err = second.Sign(context.Background(), types.KeyPurposeNodeSigning, []byte("still open"))
	assert.NoError(t, err)
	require.NoError(t, second.Close())

	// a fresh open after full release builds a new instance over the same keys
	third, err := OpenLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)
	defer third.Close()
	assert.NotSame(t, first, third)
	assert.Equal(t, first.NodePublicKeys().NodeSigning.KeyValue, third.NodePublicKeys().NodeSigning.KeyValue)
}

func TestLocalProvider_SignAndVerify(t *testing.T) {
	provider := openTestProvider(t, "")
	msg := []byte("state root 42")

	t.Run("node signing", func(t *testing.T) {
		sig, err := provider.Sign(context.Background(), types.KeyPurposeNodeSigning, msg)
		require.NoError(t, err)
		require.NoError(t, provider.Verify(provider.NodePublicKeys().NodeSigning, msg, sig))

		err = provider.Verify(provider.NodePublicKeys().NodeSigning, []byte("tampered"), sig)
		var verifyErr *errors.SignatureVerificationError
		assert.ErrorAs(t, err, &verifyErr)
	})

	t.Run("committee signing", func(t *testing.T) {
		sig, err := provider.Sign(context.Background(), types.KeyPurposeCommitteeSigning, msg)
		require.NoError(t, err)
		require.NoError(t, provider.Verify(provider.NodePublicKeys().CommitteeSigning, msg, sig))

		err = provider.Verify(provider.NodePublicKeys().CommitteeSigning, []byte("tampered"), sig)
		var verifyErr *errors.SignatureVerificationError
		assert.ErrorAs(t, err, &verifyErr)
	})

	t.Run("unknown purpose", func(t *testing.T) {
		_, err := provider.Sign(context.Background(), types.KeyPurposeDkgDealingEncryption, msg)
		assert.Error(t, err)
	})
}

func TestLocalProvider_ThresholdVerify(t *testing.T) {
	provider := openTestProvider(t, "")
	msg := []byte("finalized height 10")

	// a single-member committee: the aggregate key is the member's key, so a
	// plain BLS signature stands in for the combined threshold signature
	sig, err := provider.Sign(context.Background(), types.KeyPurposeCommitteeSigning, msg)
	require.NoError(t, err)

	data := &types.ThresholdSigData{
		Algorithm:          types.AlgorithmThresBls,
		Threshold:          1,
		PublicCoefficients: provider.NodePublicKeys().CommitteeSigning.KeyValue,
	}
	require.NoError(t, provider.ThresholdVerify(data, msg, sig))

	t.Run("tampered message", func(t *testing.T) {
		err := provider.ThresholdVerify(data, []byte("tampered"), sig)
		var verifyErr *errors.SignatureVerificationError
		assert.ErrorAs(t, err, &verifyErr)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		bad := &types.ThresholdSigData{Algorithm: types.AlgorithmEd25519, PublicCoefficients: data.PublicCoefficients}
		err := provider.ThresholdVerify(bad, msg, sig)
		var keyErr *errors.MalformedKeyError
		assert.ErrorAs(t, err, &keyErr)
	})

	t.Run("truncated coefficients", func(t *testing.T) {
		bad := &types.ThresholdSigData{Algorithm: types.AlgorithmThresBls, PublicCoefficients: []byte{1, 2, 3}}
		err := provider.ThresholdVerify(bad, msg, sig)
		var keyErr *errors.MalformedKeyError
		assert.ErrorAs(t, err, &keyErr)
	})
}

func TestLocalProvider_CheckKeys(t *testing.T) {
	provider := openTestProvider(t, "")
	own := provider.NodePublicKeys()

	require.NoError(t, provider.CheckKeys(context.Background(), &own))

	// a subset checks fine
	require.NoError(t, provider.CheckKeys(context.Background(), &types.NodePublicKeys{NodeSigning: own.NodeSigning}))

	// a foreign key is rejected
	other := openTestProvider(t, "")
	err := provider.CheckKeys(context.Background(), &types.NodePublicKeys{
		NodeSigning: other.NodePublicKeys().NodeSigning,
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not match")
}

func TestLocalProvider_TLSCertificate(t *testing.T) {
	provider := openTestProvider(t, "")

	cert, err := provider.TLSCertificate()
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)
	require.IsType(t, ed25519.PrivateKey(nil), cert.PrivateKey)

	private := cert.PrivateKey.(ed25519.PrivateKey)
	assert.Equal(t, provider.NodePublicKeys().TLSCertificate.KeyValue, []byte(private.Public().(ed25519.PublicKey)))
}

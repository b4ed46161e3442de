package signer

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice counts attach/detach transitions and can fail any operation.
type fakeDevice struct {
	attaches int
	detaches int
	attached bool

	attachErr  error
	readKeyErr error
	signErr    error

	publicKey []byte
	private   ed25519.PrivateKey
	notices   []string
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &fakeDevice{publicKey: pub, private: priv}
}

func (d *fakeDevice) NotifyOperator(message string) {
	d.notices = append(d.notices, message)
}

func (d *fakeDevice) Attach() error {
	if d.attachErr != nil {
		return d.attachErr
	}
	d.attaches++
	d.attached = true
	return nil
}

func (d *fakeDevice) Detach() error {
	d.detaches++
	d.attached = false
	return nil
}

func (d *fakeDevice) ReadPublicKey() ([]byte, error) {
	if !d.attached {
		return nil, errors.New("device not attached")
	}
	if d.readKeyErr != nil {
		return nil, d.readKeyErr
	}
	return d.publicKey, nil
}

func (d *fakeDevice) Sign(msg []byte) ([]byte, error) {
	if !d.attached {
		return nil, errors.New("device not attached")
	}
	if d.signErr != nil {
		return nil, d.signErr
	}
	return ed25519.Sign(d.private, msg), nil
}

func TestHSM_GetAndSign(t *testing.T) {
	device := newFakeDevice(t)
	hsm := NewHSM(device)

	bundle, err := hsm.Get()
	require.NoError(t, err)
	assert.Equal(t, device.publicKey, bundle.PublicKey)
	assert.Equal(t, 1, device.attaches)
	assert.Equal(t, 1, device.detaches)
	assert.False(t, device.attached, "device must be detached after reading the public key")

	msg := []byte("registration payload")
	sig, err := bundle.Sign(msg)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(bundle.PublicKey), msg, sig))
	assert.Equal(t, 2, device.attaches)
	assert.Equal(t, 2, device.detaches)
	assert.False(t, device.attached)
}

func TestHSM_DetachesAfterReadFailure(t *testing.T) {
	device := newFakeDevice(t)
	device.readKeyErr = errors.New("token removed")
	hsm := NewHSM(device)

	_, err := hsm.Get()
	require.Error(t, err)

	// the failed read still releases the device
	assert.Equal(t, device.attaches, device.detaches)
	assert.False(t, device.attached)
}

func TestHSM_DetachesAfterSignFailure(t *testing.T) {
	device := newFakeDevice(t)
	hsm := NewHSM(device)

	bundle, err := hsm.Get()
	require.NoError(t, err)

	device.signErr = errors.New("pin rejected")
	_, err = bundle.Sign([]byte("payload"))
	require.Error(t, err)

	assert.Equal(t, device.attaches, device.detaches)
	assert.False(t, device.attached)
}

func TestHSM_AttachFailure(t *testing.T) {
	device := newFakeDevice(t)
	device.attachErr = errors.New("no token present")
	hsm := NewHSM(device)

	_, err := hsm.Get()
	require.Error(t, err)
	assert.Zero(t, device.attaches)
}

func writeKeyfile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin_private.pem")
	require.NoError(t, os.WriteFile(path, contents, 0600))
	return path
}

func TestKeyfile_SignRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	path := writeKeyfile(t, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))

	keyfile, err := NewKeyfile(path)
	require.NoError(t, err)

	bundle, err := keyfile.Get()
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), bundle.PublicKey)

	msg := []byte("registration payload")
	sig, err := bundle.Sign(msg)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, msg, sig))
}

func TestKeyfile_Malformed(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewKeyfile(filepath.Join(t.TempDir(), "nope.pem"))
		assert.Error(t, err)
	})

	t.Run("not PEM", func(t *testing.T) {
		_, err := NewKeyfile(writeKeyfile(t, []byte("not a key at all")))
		assert.ErrorContains(t, err, "no PEM block")
	})

	t.Run("garbage PEM body", func(t *testing.T) {
		block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("garbage")})
		_, err := NewKeyfile(writeKeyfile(t, block))
		assert.Error(t, err)
	})

	t.Run("wrong key type", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		pkcs8, err := x509.MarshalPKCS8PrivateKey(ecKey)
		require.NoError(t, err)
		block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
		_, err = NewKeyfile(writeKeyfile(t, block))
		assert.ErrorContains(t, err, "ed25519")
	})
}

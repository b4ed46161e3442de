package signer

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Keyfile signs with an ed25519 key pair loaded from a PEM file. Intended
// for tests and local development; production setups use the HSM backend.
type Keyfile struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

var _ Signer = (*Keyfile)(nil)

// NewKeyfile loads the key pair from a PKCS#8 PEM file. An unreadable or
// malformed file yields an error and no signer.
func NewKeyfile(path string) (*Keyfile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	keyfile, err := NewKeyfileFromPEM(contents)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	return keyfile, nil
}

// NewKeyfileFromPEM parses an in-memory PKCS#8 PEM block, for callers that
// decrypt the key material themselves before handing it over.
func NewKeyfileFromPEM(contents []byte) (*Keyfile, error) {
	block, _ := pem.Decode(contents)
	if block == nil {
		return nil, fmt.Errorf("contains no PEM block")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse PKCS#8 key: %w", err)
	}
	private, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("does not hold an ed25519 key")
	}

	return &Keyfile{
		public:  private.Public().(ed25519.PublicKey),
		private: private,
	}, nil
}

// Get returns a bundle whose Sign is a pure in-process operation with no
// external resource.
func (k *Keyfile) Get() (*Bundle, error) {
	return &Bundle{
		PublicKey: k.public,
		Sign: func(msg []byte) ([]byte, error) {
			return ed25519.Sign(k.private, msg), nil
		},
	}, nil
}

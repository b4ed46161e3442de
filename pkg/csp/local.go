package csp

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/random"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/types"
)

const secretKeyPrefix = "secret_keys/"

// storedKey is the on-disk representation of one secret key. The store
// itself is encrypted at rest by badger; this is the decrypted layout.
type storedKey struct {
	Algorithm types.AlgorithmID `json:"algorithm"`
	Secret    []byte            `json:"secret"`
	Public    []byte            `json:"public"`
	CertDER   []byte            `json:"cert_der,omitempty"`
}

// LocalConfig configures the on-disk secret key store.
type LocalConfig struct {
	Dir      string
	Password string // empty disables at-rest encryption (development only)
}

// LocalProvider keeps secret keys in an encrypted badger store on the local
// disk. Badger's directory lock rejects a second process opening the same
// store; in-process duplication is prevented by OpenLocal.
type LocalProvider struct {
	dir  string
	db   *badger.DB
	keys map[types.KeyPurpose]*storedKey
	pub  types.NodePublicKeys

	refs int // guarded by openMu in open.go
}

var _ CryptoServiceProvider = (*LocalProvider)(nil)

func newLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithCompression(options.ZSTD).
		WithSyncWrites(true).
		WithVerifyValueChecksum(true).
		WithCompactL0OnClose(true).
		WithLogger(nil)
	if cfg.Password != "" {
		key := sha256.Sum256([]byte(cfg.Password))
		opts = opts.WithEncryptionKey(key[:]).WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open secret key store: %w", err)
	}

	p := &LocalProvider{dir: cfg.Dir, db: db, keys: make(map[types.KeyPurpose]*storedKey)}
	if err := p.loadOrGenerateKeys(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Opened local secret key store", "dir", cfg.Dir, "encrypted", cfg.Password != "")
	return p, nil
}

// loadOrGenerateKeys loads every node key from the store, generating any that
// are missing. A fresh store ends up with a node signing key, a committee
// signing key and a TLS certificate.
func (p *LocalProvider) loadOrGenerateKeys() error {
	purposes := []types.KeyPurpose{
		types.KeyPurposeNodeSigning,
		types.KeyPurposeCommitteeSigning,
		types.KeyPurposeTLSCertificate,
	}

	for _, purpose := range purposes {
		key, err := p.loadKey(purpose)
		if err != nil {
			return err
		}
		if key == nil {
			key, err = generateKey(purpose)
			if err != nil {
				return fmt.Errorf("generate %s key: %w", purpose, err)
			}
			if err := p.storeKey(purpose, key); err != nil {
				return err
			}
			logger.Info("Generated node key", "purpose", purpose, "algorithm", key.Algorithm)
		}
		p.keys[purpose] = key
	}

	p.pub = types.NodePublicKeys{
		NodeSigning:      publicProto(p.keys[types.KeyPurposeNodeSigning]),
		CommitteeSigning: publicProto(p.keys[types.KeyPurposeCommitteeSigning]),
		TLSCertificate:   publicProto(p.keys[types.KeyPurposeTLSCertificate]),
	}
	return nil
}

func (p *LocalProvider) loadKey(purpose types.KeyPurpose) (*storedKey, error) {
	var key *storedKey
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(secretKeyPrefix + string(purpose)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			key = &storedKey{}
			return json.Unmarshal(val, key)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load %s key: %w", purpose, err)
	}
	return key, nil
}

func (p *LocalProvider) storeKey(purpose types.KeyPurpose, key *storedKey) error {
	value, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal %s key: %w", purpose, err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(secretKeyPrefix+string(purpose)), value)
	})
	if err != nil {
		return fmt.Errorf("store %s key: %w", purpose, err)
	}
	return nil
}

func generateKey(purpose types.KeyPurpose) (*storedKey, error) {
	switch purpose {
	case types.KeyPurposeNodeSigning:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &storedKey{Algorithm: types.AlgorithmEd25519, Secret: priv, Public: pub}, nil

	case types.KeyPurposeCommitteeSigning:
		secret, public := bls.NewKeyPair(blsSuite, random.New())
		secretBytes, err := secret.MarshalBinary()
		if err != nil {
			return nil, err
		}
		publicBytes, err := public.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return &storedKey{Algorithm: types.AlgorithmMultiBls, Secret: secretBytes, Public: publicBytes}, nil

	case types.KeyPurposeTLSCertificate:
		return generateTLSKey()

	default:
		return nil, fmt.Errorf("no generator for key purpose %s", purpose)
	}
}

func generateTLSKey() (*storedKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: hex.EncodeToString(pub[:8]),
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("create TLS certificate: %w", err)
	}

	return &storedKey{
		Algorithm: types.AlgorithmTLSEd25519,
		Secret:    priv,
		Public:    pub,
		CertDER:   certDER,
	}, nil
}

func publicProto(key *storedKey) *types.PublicKeyProto {
	if key == nil {
		return nil
	}
	return &types.PublicKeyProto{Algorithm: key.Algorithm, KeyValue: key.Public}
}

func (p *LocalProvider) NodePublicKeys() types.NodePublicKeys {
	return p.pub
}

func (p *LocalProvider) Sign(_ context.Context, purpose types.KeyPurpose, msg []byte) ([]byte, error) {
	key, ok := p.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("no secret key for purpose %s", purpose)
	}

	switch key.Algorithm {
	case types.AlgorithmEd25519, types.AlgorithmTLSEd25519:
		return ed25519.Sign(ed25519.PrivateKey(key.Secret), msg), nil
	case types.AlgorithmMultiBls:
		secret := blsSuite.Scalar()
		if err := secret.UnmarshalBinary(key.Secret); err != nil {
			return nil, &errors.MalformedKeyError{Algorithm: key.Algorithm, Reason: err.Error()}
		}
		return bls.Sign(blsSuite, secret, msg)
	default:
		return nil, fmt.Errorf("cannot sign with algorithm %s", key.Algorithm)
	}
}

func (p *LocalProvider) CheckKeys(_ context.Context, registryKeys *types.NodePublicKeys) error {
	checks := []struct {
		purpose types.KeyPurpose
		proto   *types.PublicKeyProto
	}{
		{types.KeyPurposeNodeSigning, registryKeys.NodeSigning},
		{types.KeyPurposeCommitteeSigning, registryKeys.CommitteeSigning},
		{types.KeyPurposeTLSCertificate, registryKeys.TLSCertificate},
	}

	for _, check := range checks {
		if check.proto == nil {
			continue
		}
		local, ok := p.keys[check.purpose]
		if !ok {
			return fmt.Errorf("registry records a %s key but the local store holds none", check.purpose)
		}
		if local.Algorithm != check.proto.Algorithm || !bytes.Equal(local.Public, check.proto.KeyValue) {
			return fmt.Errorf("local %s key does not match the registry record", check.purpose)
		}
	}
	return nil
}

func (p *LocalProvider) Verify(pub *types.PublicKeyProto, msg, sig []byte) error {
	return verifyByPublicKey(pub, msg, sig)
}

func (p *LocalProvider) ThresholdVerify(data *types.ThresholdSigData, msg, sig []byte) error {
	return verifyThreshold(data, msg, sig)
}

func (p *LocalProvider) TLSCertificate() (*tls.Certificate, error) {
	key, ok := p.keys[types.KeyPurposeTLSCertificate]
	if !ok {
		return nil, errors.New("no TLS certificate in secret key store")
	}
	return &tls.Certificate{
		Certificate: [][]byte{key.CertDER},
		PrivateKey:  ed25519.PrivateKey(key.Secret),
	}, nil
}

func (p *LocalProvider) Close() error {
	return releaseLocal(p)
}

func (p *LocalProvider) closeDB() error {
	return p.db.Close()
}

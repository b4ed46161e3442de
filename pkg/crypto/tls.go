package crypto

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

// The TLS handshake authenticates peers against the registry's TLS key
// records, not a CA hierarchy: the peer presents a self-signed certificate
// and we require its public key to match the registry entry for the expected
// node at the given version. These paths never touch secret keys beyond the
// local certificate, so they never cross the vault bridge.

// PerformTLSServerHandshake implements TLSHandshaker.
func (c *Component) PerformTLSServerHandshake(
	ctx context.Context,
	conn net.Conn,
	clientID types.NodeID,
	version types.RegistryVersion,
) (*tls.Conn, error) {
	clientKey, err := c.keyFromRegistry(ctx, clientID, types.KeyPurposeTLSCertificate, version)
	if err != nil {
		return nil, err
	}

	cfg, err := c.baseTLSConfig(clientKey)
	if err != nil {
		return nil, err
	}
	cfg.ClientAuth = tls.RequireAnyClientCert

	tlsConn := tls.Server(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("TLS server handshake with %s failed: %w", clientID, err)
	}
	return tlsConn, nil
}

// PerformTLSClientHandshake implements TLSHandshaker.
func (c *Component) PerformTLSClientHandshake(
	ctx context.Context,
	conn net.Conn,
	serverID types.NodeID,
	version types.RegistryVersion,
) (*tls.Conn, error) {
	serverKey, err := c.keyFromRegistry(ctx, serverID, types.KeyPurposeTLSCertificate, version)
	if err != nil {
		return nil, err
	}

	cfg, err := c.baseTLSConfig(serverKey)
	if err != nil {
		return nil, err
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("TLS client handshake with %s failed: %w", serverID, err)
	}
	return tlsConn, nil
}

func (c *Component) baseTLSConfig(peerKey *types.PublicKeyProto) (*tls.Config, error) {
	cert, err := c.csp.TLSCertificate()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS13,
		// Chain validation is disabled on purpose: trust is pinned to the
		// registry-recorded key via VerifyPeerCertificate.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: requirePeerKey(peerKey),
	}, nil
}

// requirePeerKey pins the handshake to the registry-recorded public key of
// the expected peer.
func requirePeerKey(expected *types.PublicKeyProto) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return &errors.SignatureVerificationError{Reason: "peer presented no certificate"}
		}
		leaf, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("parse peer certificate: %w", err)
		}

		peerPub, ok := leaf.PublicKey.(ed25519.PublicKey)
		if !ok {
			return &errors.SignatureVerificationError{Reason: "peer certificate key is not ed25519"}
		}
		if !bytes.Equal(peerPub, expected.KeyValue) {
			return &errors.SignatureVerificationError{Reason: "peer certificate key does not match registry record"}
		}
		return nil
	}
}

package csp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

// Vault RPC operations.
const (
	vaultOpNodePublicKeys = "node_public_keys"
	vaultOpSign           = "sign"
	vaultOpCheckKeys      = "check_keys"
)

// VaultRequest is the wire format of a vault RPC call.
type VaultRequest struct {
	ID           string                `json:"id"`
	Op           string                `json:"op"`
	Purpose      types.KeyPurpose      `json:"purpose,omitempty"`
	Message      []byte                `json:"message,omitempty"`
	RegistryKeys *types.NodePublicKeys `json:"registry_keys,omitempty"`
}

// VaultResponse is the wire format of a vault RPC reply.
type VaultResponse struct {
	ID         string                `json:"id"`
	Error      string                `json:"error,omitempty"`
	Signature  []byte                `json:"signature,omitempty"`
	PublicKeys *types.NodePublicKeys `json:"public_keys,omitempty"`
}

// rpcConn is the transport slice the vault provider consumes. *nats.Conn
// satisfies it.
type rpcConn interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// VaultConfig configures the remote vault provider.
type VaultConfig struct {
	Subject string
	Timeout time.Duration
}

// VaultProvider reaches an out-of-process vault holding the node's secret
// keys over NATS request/reply.
//
// Sign and CheckKeys bridge the caller's synchronous call into the
// asynchronous RPC round-trip. Do not call them from within a handler that is
// itself servicing a vault reply on the same connection: nested bridging on
// one connection deadlocks. The provider owns its connection for exactly this
// reason; hand it a dedicated one.
type VaultProvider struct {
	conn    rpcConn
	subject string
	timeout time.Duration
	pub     types.NodePublicKeys
}

var _ CryptoServiceProvider = (*VaultProvider)(nil)

// NewVaultProvider connects to the vault and caches the node public keys.
// Construction fails if the vault is unreachable or holds no keys.
func NewVaultProvider(conn rpcConn, cfg VaultConfig) (*VaultProvider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	p := &VaultProvider{conn: conn, subject: cfg.Subject, timeout: cfg.Timeout}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	resp, err := p.roundTrip(ctx, &VaultRequest{Op: vaultOpNodePublicKeys})
	if err != nil {
		return nil, fmt.Errorf("fetch node public keys from vault: %w", err)
	}
	if resp.PublicKeys == nil {
		return nil, errors.New("vault returned no node public keys")
	}
	p.pub = *resp.PublicKeys
	return p, nil
}

func (p *VaultProvider) roundTrip(ctx context.Context, req *VaultRequest) (*VaultResponse, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req.ID = uuid.NewString()
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal vault request: %w", err)
	}

	msg, err := p.conn.RequestWithContext(ctx, p.subject, payload)
	if err != nil {
		return nil, &errors.TransientError{Op: "vault rpc " + req.Op, Err: err}
	}

	resp := &VaultResponse{}
	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return nil, fmt.Errorf("unmarshal vault response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("vault %s: %s", req.Op, resp.Error)
	}
	return resp, nil
}

func (p *VaultProvider) NodePublicKeys() types.NodePublicKeys {
	return p.pub
}

// Sign crosses the vault bridge. See the VaultProvider doc for the nesting
// precondition.
func (p *VaultProvider) Sign(ctx context.Context, purpose types.KeyPurpose, msg []byte) ([]byte, error) {
	resp, err := p.roundTrip(ctx, &VaultRequest{Op: vaultOpSign, Purpose: purpose, Message: msg})
	if err != nil {
		return nil, err
	}
	return resp.Signature, nil
}

// CheckKeys crosses the vault bridge. See the VaultProvider doc for the
// nesting precondition.
func (p *VaultProvider) CheckKeys(ctx context.Context, registryKeys *types.NodePublicKeys) error {
	_, err := p.roundTrip(ctx, &VaultRequest{Op: vaultOpCheckKeys, RegistryKeys: registryKeys})
	return err
}

func (p *VaultProvider) Verify(pub *types.PublicKeyProto, msg, sig []byte) error {
	return verifyByPublicKey(pub, msg, sig)
}

func (p *VaultProvider) ThresholdVerify(data *types.ThresholdSigData, msg, sig []byte) error {
	return verifyThreshold(data, msg, sig)
}

// TLSCertificate is not served by the remote vault: the certificate and its
// key stay with the process that terminates TLS.
func (p *VaultProvider) TLSCertificate() (*tls.Certificate, error) {
	return nil, errors.New("TLS certificate is not available from a remote vault")
}

func (p *VaultProvider) Close() error {
	return nil
}

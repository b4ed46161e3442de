package csp

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/fystack/trustcore/pkg/logger"
)

// VaultServer answers vault RPC requests against a local provider. Run it in
// the process that owns the secret key store when nodes are configured with
// the remote vault backend.
type VaultServer struct {
	provider CryptoServiceProvider
	sub      *nats.Subscription
}

// ServeVault subscribes on subject and services vault requests until Stop.
func ServeVault(nc *nats.Conn, subject string, provider CryptoServiceProvider) (*VaultServer, error) {
	s := &VaultServer{provider: provider}

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		resp := s.handle(msg.Data)
		payload, err := json.Marshal(resp)
		if err != nil {
			logger.Error("Failed to marshal vault response", err)
			return
		}
		if err := msg.Respond(payload); err != nil {
			logger.Error("Failed to respond to vault request", err, "id", resp.ID)
		}
	})
	if err != nil {
		return nil, err
	}

	s.sub = sub
	logger.Info("Vault server listening", "subject", subject)
	return s, nil
}

func (s *VaultServer) handle(data []byte) *VaultResponse {
	req := &VaultRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return &VaultResponse{Error: "malformed vault request: " + err.Error()}
	}

	resp := &VaultResponse{ID: req.ID}
	ctx := context.Background()

	switch req.Op {
	case vaultOpNodePublicKeys:
		pub := s.provider.NodePublicKeys()
		resp.PublicKeys = &pub

	case vaultOpSign:
		sig, err := s.provider.Sign(ctx, req.Purpose, req.Message)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Signature = sig

	case vaultOpCheckKeys:
		if req.RegistryKeys == nil {
			resp.Error = "check_keys request carries no registry keys"
			break
		}
		if err := s.provider.CheckKeys(ctx, req.RegistryKeys); err != nil {
			resp.Error = err.Error()
		}

	default:
		resp.Error = "unknown vault operation: " + req.Op
	}

	return resp
}

func (s *VaultServer) Stop() error {
	return s.sub.Unsubscribe()
}

package keys

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/types"
)

var showConfigPath string

// NewShowCmd creates the keys show command
func NewShowCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "show",
		Short: "Print the node's public keys",
		Long:  "Open the local key store and print the node ID and public keys as JSON",
		RunE:  runShow,
	}

	cmd.Flags().StringVarP(&showConfigPath, "config", "c", "", "Path to configuration file")

	return cmd
}

type shownKey struct {
	Algorithm string `json:"algorithm"`
	KeyValue  string `json:"key_value"` // Hex-encoded
}

func runShow(cmd *cobra.Command, args []string) error {
	if showConfigPath != "" {
		config.SetEnvConfigPath(showConfigPath)
	}
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(appConfig.Environment, false)

	provider, err := csp.OpenLocal(csp.LocalConfig{
		Dir:      appConfig.KeyStoreDir,
		Password: appConfig.KeyStorePassword,
	})
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer provider.Close()

	publicKeys := provider.NodePublicKeys()
	if publicKeys.NodeSigning == nil {
		return fmt.Errorf("key store has no node signing key")
	}
	out := struct {
		NodeID           types.NodeID `json:"node_id"`
		NodeSigning      *shownKey    `json:"node_signing,omitempty"`
		CommitteeSigning *shownKey    `json:"committee_signing,omitempty"`
		TLSCertificate   *shownKey    `json:"tls_certificate,omitempty"`
	}{
		NodeID:           types.DeriveNodeID(publicKeys.NodeSigning),
		NodeSigning:      show(publicKeys.NodeSigning),
		CommitteeSigning: show(publicKeys.CommitteeSigning),
		TLSCertificate:   show(publicKeys.TLSCertificate),
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keys: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func show(proto *types.PublicKeyProto) *shownKey {
	if proto == nil {
		return nil
	}
	return &shownKey{
		Algorithm: string(proto.Algorithm),
		KeyValue:  hex.EncodeToString(proto.KeyValue),
	}
}

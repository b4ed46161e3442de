package register

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/cmd/cli/utils"
	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/infra"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/security"
	"github.com/fystack/trustcore/pkg/signer"
	"github.com/fystack/trustcore/pkg/types"
)

var (
	configPath  string
	keyFilePath string
	hsmTool     string
	hsmArgs     []string
	outputPath  string
	submit      bool
)

// NewRegisterCmd creates the node registration command
func NewRegisterCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "register",
		Short: "Sign and publish this node's registry record",
		Long: "Read the node signing key from the local key store, build a registration " +
			"record, sign it with the administrative key (HSM or key file) and publish it",
		RunE: runRegister,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&keyFilePath, "key-file", "k", "", "PEM key file for the administrative key (plain or .age)")
	cmd.Flags().StringVar(&hsmTool, "hsm-tool", "", "Path to the HSM vendor utility (mutually exclusive with --key-file)")
	cmd.Flags().StringSliceVar(&hsmArgs, "hsm-arg", nil, "Extra argument passed to the HSM utility on every call (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the signed record JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&submit, "submit", false, "Also publish the record to the registry store")

	return cmd
}

func runRegister(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetEnvConfigPath(configPath)
	}
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(appConfig.Environment, false)

	adminSigner, err := buildSigner()
	if err != nil {
		return err
	}

	provider, err := csp.OpenLocal(csp.LocalConfig{
		Dir:      appConfig.KeyStoreDir,
		Password: appConfig.KeyStorePassword,
	})
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer provider.Close()

	keys := provider.NodePublicKeys()
	if keys.NodeSigning == nil {
		return fmt.Errorf("key store has no node signing key")
	}

	record := &types.RegistryNodeRecord{
		NodeID:    types.DeriveNodeID(keys.NodeSigning),
		PublicKey: hex.EncodeToString(keys.NodeSigning.KeyValue),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	bundle, err := adminSigner.Get()
	if err != nil {
		return fmt.Errorf("obtain administrative key: %w", err)
	}
	raw, err := record.Raw()
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}
	record.Signature, err = bundle.Sign(raw)
	if err != nil {
		return fmt.Errorf("sign record: %w", err)
	}

	// sanity check before anything leaves this process
	if len(bundle.PublicKey) == ed25519.PublicKeySize &&
		!ed25519.Verify(ed25519.PublicKey(bundle.PublicKey), raw, record.Signature) {
		return fmt.Errorf("administrative signature failed self-verification")
	}

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, append(encoded, '\n'), 0600); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		logger.Info("Wrote signed registration record", "path", outputPath, "node_id", record.NodeID)
	} else {
		fmt.Println(string(encoded))
	}

	if submit {
		kv := infra.GetConsulClient(appConfig.Environment).KV()
		key := fmt.Sprintf("%s/node_records/%s", strings.TrimSuffix(appConfig.RegistryPrefix, "/"), record.NodeID)
		if _, err := kv.Put(&api.KVPair{Key: key, Value: encoded}, nil); err != nil {
			return fmt.Errorf("publish record: %w", err)
		}
		logger.Info("Published registration record", "key", key, "node_id", record.NodeID)
	}

	return nil
}

// buildSigner selects the administrative signing backend from flags.
func buildSigner() (signer.Signer, error) {
	switch {
	case keyFilePath != "" && hsmTool != "":
		return nil, fmt.Errorf("--key-file and --hsm-tool are mutually exclusive")

	case hsmTool != "":
		return signer.NewHSM(&signer.UtilityDevice{Tool: hsmTool, ExtraArgs: hsmArgs}), nil

	case strings.HasSuffix(keyFilePath, ".age"):
		passphrase, err := utils.PromptPassword("Enter key passphrase: ")
		if err != nil {
			return nil, err
		}
		defer security.ZeroString(&passphrase)
		pemBytes, err := utils.DecryptAgeFile(keyFilePath, passphrase)
		if err != nil {
			return nil, err
		}
		defer security.ZeroBytes(pemBytes)
		return signer.NewKeyfileFromPEM(pemBytes)

	case keyFilePath != "":
		return signer.NewKeyfile(keyFilePath)

	default:
		return nil, fmt.Errorf("one of --key-file or --hsm-tool is required")
	}
}

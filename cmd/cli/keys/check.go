package keys

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/crypto"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/infra"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/registry"
	"github.com/fystack/trustcore/pkg/types"
)

var (
	checkConfigPath string
	checkVersion    uint64
)

// NewCheckCmd creates the keys check command
func NewCheckCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "check",
		Short: "Check local keys against the registry",
		Long:  "Open the local key store and verify its public keys against the registry at a version",
		RunE:  runCheck,
	}

	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().Uint64Var(&checkVersion, "version", 0, "Registry version to check against (0 = latest)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkConfigPath != "" {
		config.SetEnvConfigPath(checkConfigPath)
	}
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(appConfig.Environment, false)

	consulClient := infra.GetConsulClient(appConfig.Environment)
	registryClient := registry.NewConsulClient(consulClient.KV(), appConfig.RegistryPrefix)

	provider, err := csp.OpenLocal(csp.LocalConfig{
		Dir:      appConfig.KeyStoreDir,
		Password: appConfig.KeyStorePassword,
	})
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer provider.Close()

	component := crypto.New(provider, registryClient)

	ctx := context.Background()
	version := types.RegistryVersion(checkVersion)
	if version == 0 {
		version, err = registryClient.LatestVersion(ctx)
		if err != nil {
			return fmt.Errorf("read latest registry version: %w", err)
		}
		if version == 0 {
			return fmt.Errorf("registry holds no versions yet")
		}
	}

	if err := component.CheckKeysWithRegistry(ctx, version); err != nil {
		return fmt.Errorf("keys do not match registry version %d: %w", version, err)
	}

	fmt.Printf("Keys for node %s match registry version %d\n", component.NodeID(), version)
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/crypto"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/infra"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/messaging"
	"github.com/fystack/trustcore/pkg/registry"
)

// NewStartCmd creates the start command
func NewStartCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "start",
		Short: "Start the trust core node",
		Long:  "Start the trust core node with the specified configuration",
		RunE:  runNode,
	}

	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().BoolP("prompt-credentials", "p", false, "Prompt for sensitive parameters")
	cmd.Flags().StringP("password-file", "f", "", "Path to file containing the key store password")
	cmd.Flags().Bool("debug", false, "Enable debug logging")

	return cmd
}

func runNode(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	usePrompts, _ := cmd.Flags().GetBool("prompt-credentials")
	passwordFile, _ := cmd.Flags().GetString("password-file")
	debug, _ := cmd.Flags().GetBool("debug")

	config.SetEnvConfigPath(configPath)
	appConfig, err := config.Load()
	if err != nil {
		return err
	}
	environment := appConfig.Environment
	logger.Init(environment, debug)

	if passwordFile != "" {
		if err := loadPasswordFromFile(passwordFile); err != nil {
			return err
		}
	}
	if usePrompts {
		if err := promptForKeyStorePassword(); err != nil {
			return err
		}
	} else if err := checkRequiredConfigValues(appConfig); err != nil {
		return err
	}

	consulClient := infra.GetConsulClient(environment)
	registryClient := registry.NewConsulClient(consulClient.KV(), config.RegistryPrefix())

	provider, natsCleanup, err := buildProvider(appConfig)
	if err != nil {
		logger.Fatal("Failed to open crypto service provider", err)
	}
	defer provider.Close()
	if natsCleanup != nil {
		defer natsCleanup()
	}

	component := crypto.New(provider, registryClient)
	logger.Info("Crypto component ready", "node_id", component.NodeID())

	ctx := context.Background()
	version, err := registryClient.LatestVersion(ctx)
	if err != nil {
		logger.Error("Failed to read latest registry version", err)
	} else if version > 0 {
		if err := component.CheckKeysWithRegistry(ctx, version); err != nil {
			logger.Warn("Local keys do not match the registry", "version", version, "error", err)
		} else {
			logger.Info("Local keys match the registry", "version", version)
		}
	}

	// DKG transcript ingestion is the only writer into the threshold
	// signature data store.
	if appConfig.NATs != nil {
		natsConn, err := messaging.GetNATSConnection()
		if err != nil {
			logger.Fatal("Failed to connect to NATS", err)
		}
		defer natsConn.Close()

		sub, err := messaging.SubscribeTranscripts(natsConn, func(event messaging.TranscriptEvent) {
			component.IngestDkgTranscript(event.DkgID, event.RegistryVersion, &event.Data)
		})
		if err != nil {
			logger.Fatal("Failed to subscribe to DKG transcripts", err)
		}
		defer sub.Unsubscribe()
	}

	logger.Info("Node is running", "node_id", component.NodeID(), "vault_type", appConfig.VaultType)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down")
	logger.Sync()
	return nil
}

// buildProvider opens the secret key backend selected by configuration.
func buildProvider(appConfig *config.Config) (csp.CryptoServiceProvider, func(), error) {
	switch appConfig.VaultType {
	case config.VaultTypeRemote:
		natsConn, err := messaging.GetNATSConnection()
		if err != nil {
			return nil, nil, err
		}
		provider, err := csp.NewVaultProvider(natsConn, csp.VaultConfig{
			Subject: appConfig.VaultSubject,
			Timeout: time.Duration(appConfig.VaultTimeoutSeconds) * time.Second,
		})
		if err != nil {
			natsConn.Close()
			return nil, nil, err
		}
		return provider, natsConn.Close, nil

	default:
		provider, err := csp.OpenLocal(csp.LocalConfig{
			Dir:      appConfig.KeyStoreDir,
			Password: appConfig.KeyStorePassword,
		})
		return provider, nil, err
	}
}

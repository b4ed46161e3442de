package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/csp"
	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/messaging"
)

// NewVaultCmd creates the vault command. The vault process owns the secret
// key store and answers sign/check requests from nodes configured with the
// remote backend.
func NewVaultCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "vault",
		Short: "Run the secret key vault",
		Long:  "Serve secret key operations over NATS for nodes using the remote vault backend",
		RunE:  runVault,
	}

	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().StringP("password-file", "f", "", "Path to file containing the key store password")
	cmd.Flags().Bool("debug", false, "Enable debug logging")

	return cmd
}

func runVault(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	passwordFile, _ := cmd.Flags().GetString("password-file")
	debug, _ := cmd.Flags().GetBool("debug")

	config.SetEnvConfigPath(configPath)
	appConfig, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(appConfig.Environment, debug)

	if passwordFile != "" {
		if err := loadPasswordFromFile(passwordFile); err != nil {
			return err
		}
	}

	provider, err := csp.OpenLocal(csp.LocalConfig{
		Dir:      appConfig.KeyStoreDir,
		Password: config.KeyStorePassword(),
	})
	if err != nil {
		logger.Fatal("Failed to open secret key store", err)
	}
	defer provider.Close()

	natsConn, err := messaging.GetNATSConnection()
	if err != nil {
		logger.Fatal("Failed to connect to NATS", err)
	}
	defer natsConn.Close()

	server, err := csp.ServeVault(natsConn, appConfig.VaultSubject, provider)
	if err != nil {
		logger.Fatal("Failed to start vault server", err)
	}
	defer server.Stop()

	logger.Info("Vault is running", "subject", appConfig.VaultSubject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down")
	logger.Sync()
	return nil
}

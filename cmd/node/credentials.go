package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/security"
)

// loadPasswordFromFile reads the key store password from a file.
func loadPasswordFromFile(filePath string) error {
	passwordBytes, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read password file %s: %w", filePath, err)
	}

	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		security.ZeroBytes(passwordBytes)
		return fmt.Errorf("password file %s is empty", filePath)
	}

	config.SetKeyStorePassword(password)
	security.ZeroBytes(passwordBytes)
	security.ZeroString(&password)

	return nil
}

// promptForKeyStorePassword prompts the operator for the key store password.
func promptForKeyStorePassword() error {
	fmt.Println("WARNING: Please back up your key store password in a secure location.")
	fmt.Println("If you lose this password, you will permanently lose access to your node keys!")

	fmt.Print("Enter key store password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	password := string(passwordBytes)
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	config.SetKeyStorePassword(password)
	security.ZeroBytes(passwordBytes)
	return nil
}

func checkRequiredConfigValues(appConfig *config.Config) error {
	if config.IsProduction() && appConfig.KeyStorePassword == "" {
		return fmt.Errorf("keystore_password is required in production; pass --password-file or --prompt-credentials")
	}
	if appConfig.VaultType == config.VaultTypeRemote && appConfig.NATs == nil {
		return fmt.Errorf("nats configuration is required when vault_type is remote")
	}
	return nil
}

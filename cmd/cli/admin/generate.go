package admin

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fystack/trustcore/cmd/cli/utils"
	"github.com/fystack/trustcore/pkg/security"
)

var (
	keyName    string
	outputDir  string
	encryptKey bool
	overwrite  bool
)

// NewGenerateKeyCmd creates the admin key generate command
func NewGenerateKeyCmd(ctx context.Context) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate an ed25519 administrative signing key",
		Long:  "Generate a PKCS#8 PEM signing key with optional Age encryption, for use with register --key-file",
		RunE:  runGenerateKey,
	}

	cmd.Flags().StringVarP(&keyName, "name", "n", "admin", "Key name used for the output files")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "keys", "Output directory for key files")
	cmd.Flags().BoolVarP(&encryptKey, "encrypt", "e", false, "Encrypt private key with Age (recommended for production)")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "Overwrite key files if they already exist")

	return cmd
}

// keyInfo describes a generated key (for <name>_key.json)
type keyInfo struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"` // Hex-encoded
	CreatedAt string `json:"created_at"`
}

func runGenerateKey(cmd *cobra.Command, args []string) error {
	var passphrase string
	if encryptKey {
		var err error
		passphrase, err = utils.RequestPassword("Enter passphrase for key encryption: ")
		if err != nil {
			return err
		}
		defer security.ZeroString(&passphrase)
	} else {
		fmt.Println("WARNING: Private key will NOT be encrypted. This is not recommended for production environments.")
		fmt.Println("Use --encrypt flag to enable encryption.")
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	defer security.ZeroBytes(pemBytes)

	info := keyInfo{
		Name:      keyName,
		PublicKey: hex.EncodeToString(pubKey),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	infoPath := filepath.Join(outputDir, fmt.Sprintf("%s_key.json", keyName))
	if _, err := os.Stat(infoPath); err == nil && !overwrite {
		return fmt.Errorf("key info file %s already exists. Use --overwrite to force", infoPath)
	}
	infoBytes, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key info: %w", err)
	}
	if err := os.WriteFile(infoPath, infoBytes, 0600); err != nil {
		return fmt.Errorf("failed to write key info JSON: %w", err)
	}

	privateKeyPath := filepath.Join(outputDir, fmt.Sprintf("%s_private.pem", keyName))

	if encryptKey {
		encryptedKeyPath := privateKeyPath + ".age"
		if _, err := os.Stat(encryptedKeyPath); err == nil && !overwrite {
			return fmt.Errorf("encrypted key file %s already exists. Use --overwrite to force", encryptedKeyPath)
		}
		if err := utils.EncryptToAgeFile(encryptedKeyPath, passphrase, pemBytes); err != nil {
			return err
		}
		fmt.Printf("Generated encrypted key %s: %s, %s\n", keyName, infoPath, encryptedKeyPath)
		return nil
	}

	if _, err := os.Stat(privateKeyPath); err == nil && !overwrite {
		return fmt.Errorf("private key file %s already exists. Use --overwrite to force", privateKeyPath)
	}
	if err := os.WriteFile(privateKeyPath, pemBytes, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	fmt.Printf("Generated unencrypted key %s: %s, %s\n", keyName, infoPath, privateKeyPath)
	return nil
}
